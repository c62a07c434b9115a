package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"habit-tracker-bot/internal/adapters/telegram"
	"habit-tracker-bot/internal/domain"
	"habit-tracker-bot/internal/infra/metrics"
	"habit-tracker-bot/internal/usecase/habits"
	"habit-tracker-bot/internal/usecase/tracker"
)

const updateDedupTTL = 10 * time.Minute

// Handler обслуживает вебхук бота.
type Handler struct {
	bot           *tgbotapi.BotAPI
	log           zerolog.Logger
	trackerUC     *tracker.Service
	habitsUC      *habits.Service
	cache         domain.Cache
	http          *http.Client
	voiceMaxBytes int64
}

// NewHandler создаёт обработчик.
func NewHandler(botAPI *tgbotapi.BotAPI, log zerolog.Logger, trackerUC *tracker.Service, habitsUC *habits.Service, cache domain.Cache, voiceMaxBytes int64) *Handler {
	if voiceMaxBytes <= 0 {
		voiceMaxBytes = 1 << 20
	}
	return &Handler{
		bot:           botAPI,
		log:           log,
		trackerUC:     trackerUC,
		habitsUC:      habitsUC,
		cache:         cache,
		http:          &http.Client{Timeout: 30 * time.Second},
		voiceMaxBytes: voiceMaxBytes,
	}
}

// HandleUpdate обрабатывает входящий апдейт. Повторные доставки одного
// update_id (ретраи вебхука Telegram) отбрасываются через кэш.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if h.cache != nil {
		key := "tg_update:" + strconv.Itoa(upd.UpdateID)
		if err := h.cache.Once(key, updateDedupTTL, func() error {
			h.handleMessage(ctx, upd.Message)
			return nil
		}); err != nil {
			h.log.Error().Err(err).Int("update_id", upd.UpdateID).Msg("bot: дедупликация апдейта")
			h.handleMessage(ctx, upd.Message)
		}
		return
	}
	h.handleMessage(ctx, upd.Message)
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		h.reply(msg.Chat.ID, "Could not identify the user.")
		return
	}
	if msg.Voice != nil {
		h.handleVoice(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, msg)
	case strings.HasPrefix(text, "/help"):
		h.reply(msg.Chat.ID, helpMessage)
	case strings.HasPrefix(text, "/track"):
		h.reply(msg.Chat.ID, trackMessage)
	case strings.HasPrefix(text, "/stats"):
		h.handleStats(ctx, msg)
	case strings.HasPrefix(text, "/goal"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/goal"))
		h.handleGoal(ctx, msg, payload)
	case strings.HasPrefix(text, "/"):
		h.reply(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	default:
		h.handleNarrative(ctx, msg, text)
	}
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = user.UserName
	}
	return name
}

func (h *Handler) ensureUser(ctx context.Context, from *tgbotapi.User) error {
	_, _, err := h.trackerUC.RegisterUser(ctx, domain.TelegramProfile{
		TGUserID:    from.ID,
		DisplayName: displayName(from),
	})
	return err
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.ensureUser(ctx, msg.From); err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "register").Msg("bot: регистрация пользователя")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf(welcomeMessage, displayName(msg.From)))
}

func (h *Handler) handleNarrative(ctx context.Context, msg *tgbotapi.Message, text string) {
	if err := h.ensureUser(ctx, msg.From); err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "register").Msg("bot: регистрация пользователя")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	result, err := h.trackerUC.TrackText(ctx, msg.From.ID, text)
	if err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "track_text").Msg("bot: обработка текста")
		h.replyTrackFailure(msg.Chat.ID, result, err)
		return
	}
	h.reply(msg.Chat.ID, tracker.FormatActivities(result.Activities))
}

func (h *Handler) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.ensureUser(ctx, msg.From); err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "register").Msg("bot: регистрация пользователя")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	audio, err := h.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "voice_download").Msg("bot: загрузка голосового")
		h.reply(msg.Chat.ID, "Sorry, I couldn't download your voice message. Please try again.")
		return
	}
	result, err := h.trackerUC.TrackVoice(ctx, msg.From.ID, audio, "voice.ogg")
	if err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "track_voice").Msg("bot: обработка голосового")
		h.replyTrackFailure(msg.Chat.ID, result, err)
		return
	}
	h.reply(msg.Chat.ID, tracker.FormatActivities(result.Activities))
}

func (h *Handler) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.ensureUser(ctx, msg.From); err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "register").Msg("bot: регистрация пользователя")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	stats, recent, err := h.trackerUC.StatsReport(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "stats").Msg("bot: статистика")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	h.reply(msg.Chat.ID, tracker.FormatStats(stats, recent))
}

func (h *Handler) handleGoal(ctx context.Context, msg *tgbotapi.Message, payload string) {
	if payload == "" {
		h.reply(msg.Chat.ID, "Usage: /goal <name> [frequency] [minutes]\nFor example: /goal reading daily 30")
		return
	}
	if err := h.ensureUser(ctx, msg.From); err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "register").Msg("bot: регистрация пользователя")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	name, frequency, minutes, err := parseGoalArgs(payload)
	if err != nil {
		h.reply(msg.Chat.ID, "I couldn't parse that goal. Usage: /goal <name> [frequency] [minutes]")
		return
	}
	goal, err := h.habitsUC.UpsertGoal(ctx, msg.From.ID, name, frequency, minutes)
	if err != nil {
		h.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Str("stage", "goal").Msg("bot: цель")
		h.reply(msg.Chat.ID, errorText(err))
		return
	}
	target := ""
	if goal.TargetDurationMinutes > 0 {
		target = fmt.Sprintf(" for %d mins", goal.TargetDurationMinutes)
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("🎯 Goal saved: %s (%s%s)", goal.Name, goal.TargetFrequency, target))
}

// parseGoalArgs разбирает "<name> [frequency] [minutes]"; минуты — всегда
// последний числовой токен, частота — одно из известных значений,
// остальное считается именем.
func parseGoalArgs(payload string) (name, frequency string, minutes int, err error) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return "", "", 0, errors.New("empty goal")
	}
	rest := fields
	if len(rest) > 1 {
		if v, convErr := strconv.Atoi(rest[len(rest)-1]); convErr == nil {
			minutes = v
			rest = rest[:len(rest)-1]
		}
	}
	if len(rest) > 1 && isFrequency(rest[len(rest)-1]) {
		frequency = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	name = strings.Join(rest, " ")
	if name == "" {
		return "", "", 0, errors.New("empty goal name")
	}
	return name, frequency, minutes, nil
}

func isFrequency(token string) bool {
	switch strings.ToLower(token) {
	case "daily", "weekly", "monthly":
		return true
	}
	return false
}

func (h *Handler) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	start := time.Now()
	fileURL, err := h.bot.GetFileDirectURL(fileID)
	metrics.ObserveNetworkRequest("telegram", "get_file", "voice", start, err)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	start = time.Now()
	resp, err := h.http.Do(req)
	metrics.ObserveNetworkRequest("telegram", "file_download", "voice", start, err)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, h.voiceMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > h.voiceMaxBytes {
		return nil, fmt.Errorf("voice message is larger than %d bytes", h.voiceMaxBytes)
	}
	return data, nil
}

// replyTrackFailure отправляет пользователю причину сбоя; если часть
// записей успела сохраниться, сообщает и о них.
func (h *Handler) replyTrackFailure(chatID int64, result tracker.TrackResult, err error) {
	text := errorText(err)
	if len(result.Activities) > 0 {
		text += fmt.Sprintf("\n\n%d activities were saved before the failure:\n", len(result.Activities)) +
			tracker.FormatActivities(result.Activities)
	}
	h.reply(chatID, text)
}

// errorText переводит ошибку конвейера в видимое пользователю сообщение.
// Сырые ошибки провайдеров наружу не уходят.
func errorText(err error) string {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return "Sorry, I couldn't make sense of some of those activities (" + vErr.Reason + "). Please try rephrasing."
	case errors.Is(err, tracker.ErrEmptyNarrative):
		return "Please describe your day in a few words, for example: 'I woke up at 6, had breakfast at 7'."
	case errors.Is(err, domain.ErrTranscription):
		return "Sorry, I couldn't transcribe your voice message. Please try again or type it out."
	case errors.Is(err, domain.ErrExtraction):
		return "Sorry, I couldn't extract activities from your message right now. Please try again in a minute."
	case errors.Is(err, domain.ErrUserNotFound):
		return "I don't know you yet. Send /start first."
	case errors.Is(err, domain.ErrPersistence):
		return "Sorry, I couldn't save your activities right now. Please try again later."
	case errors.Is(err, habits.ErrNameEmpty):
		return "Please give the goal a name: /goal reading daily 30"
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func (h *Handler) reply(chatID int64, text string) {
	for _, part := range telegram.SplitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := h.bot.Send(msg); err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Int64("chat_id", chatID).Msg("bot: отправка сообщения")
			return
		}
	}
}

const welcomeMessage = `👋 Hi %s!

I'm your Daily Habit Tracker bot. I can help you track your daily activities and build better habits.

Here are my main commands:
/start - Show this welcome message
/help - Show available commands
/track - Start tracking your day
/stats - View your progress
/goal - Set a habit goal

You can also send me voice messages describing your day, and I'll help you track your activities!`

const helpMessage = `📋 Available Commands:

/start - Start the bot
/help - Show this help message
/track - Start tracking your day
/stats - View your progress
/goal - Set a habit goal

You can also:
🎤 Send voice messages about your day
📊 View your progress with /stats
⏰ Set reminders (coming soon)`

const trackMessage = `🎯 Let's track your day!

You can either:
1. Send me a voice message describing your activities
2. Type out what you've done today

For example: 'I woke up at 6, had breakfast at 7, and worked until noon'`
