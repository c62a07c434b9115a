package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"habit-tracker-bot/internal/adapters/bot"
	"habit-tracker-bot/internal/adapters/extractor"
	"habit-tracker-bot/internal/adapters/repo"
	"habit-tracker-bot/internal/adapters/transcriber"
	"habit-tracker-bot/internal/domain"
	"habit-tracker-bot/internal/infra/cache"
	"habit-tracker-bot/internal/infra/config"
	"habit-tracker-bot/internal/infra/db"
	"habit-tracker-bot/internal/infra/log"
	"habit-tracker-bot/internal/infra/metrics"
	openai "habit-tracker-bot/internal/infra/openai"
	"habit-tracker-bot/internal/usecase/habits"
	"habit-tracker-bot/internal/usecase/tracker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось применить схему БД")
	}

	var dedupCache domain.Cache
	if cfg.RedisAddr != "" {
		dedupCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	openaiTimeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, openaiTimeout)

	var extractorAdapter domain.Extractor
	if cfg.OpenAI.UseSimpleExtractor || cfg.OpenAI.APIKey == "" {
		logger.Info().Msg("используется эвристический извлекатель")
		extractorAdapter = extractor.NewSimple()
	} else {
		extractorAdapter = extractor.NewOpenAI(openaiClient, cfg.OpenAI.ExtractModel, openaiTimeout, cfg.Limits.NarrativeRunes)
	}
	transcriberAdapter := transcriber.NewOpenAI(openaiClient, cfg.OpenAI.TranscribeModel, openaiTimeout)

	trackerService := tracker.NewService(repoAdapter, repoAdapter, extractorAdapter, transcriberAdapter, cfg.Limits.RecentActivities)
	habitsService := habits.NewService(repoAdapter)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("некорректный webhook URL")
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Fatal().Err(err).Msg("не удалось зарегистрировать вебхук")
		}
	}

	h := bot.NewHandler(botAPI, logger, trackerService, habitsService, dedupCache, int64(cfg.Limits.VoiceBytes))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// каждый апдейт обрабатывается в своей горутине, чтобы
		// долгий конвейер одного пользователя не задерживал остальных
		go h.HandleUpdate(context.Background(), update)
		w.WriteHeader(http.StatusOK)
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Msg("бот-гейтвей запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бота")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

var _ domain.UserRepo = (*repo.Postgres)(nil)
var _ domain.ActivityRepo = (*repo.Postgres)(nil)
var _ domain.HabitRepo = (*repo.Postgres)(nil)
