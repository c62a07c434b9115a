package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog. В dev включается debug-уровень.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}
