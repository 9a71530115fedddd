package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates a structured zerolog.Logger for the given service name
// and level. Unknown levels fall back to info.
func NewLogger(service, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", service).Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}
