package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"UTC"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
	} `envconfig:""`

	OpenAI struct {
		APIKey             string `envconfig:"OPENAI_API_KEY"`
		BaseURL            string `envconfig:"OPENAI_BASE_URL"`
		ExtractModel       string `envconfig:"OPENAI_EXTRACT_MODEL" default:"gpt-4o-mini"`
		TranscribeModel    string `envconfig:"OPENAI_TRANSCRIBE_MODEL" default:"whisper-1"`
		TimeoutSeconds     int    `envconfig:"OPENAI_TIMEOUT_SECONDS" default:"60"`
		UseSimpleExtractor bool   `envconfig:"USE_SIMPLE_EXTRACTOR" default:"false"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Limits struct {
		RecentActivities int `envconfig:"RECENT_ACTIVITIES_LIMIT" default:"5"`
		NarrativeRunes   int `envconfig:"NARRATIVE_MAX_RUNES" default:"4000"`
		VoiceBytes       int `envconfig:"VOICE_MAX_BYTES" default:"1048576"`
	} `envconfig:""`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
