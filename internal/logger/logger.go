package logger

import (
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

// New creates the JSON service logger at the given level.
// An empty or unknown level falls back to info.
func New(service, level string) zerolog.Logger {
	logger := httplog.NewLogger(service, httplog.Options{
		JSON: true,
	})
	return logger.Level(ParseLevel(level))
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
