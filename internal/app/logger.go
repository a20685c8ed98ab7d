package app

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. Production emits JSON for log
// shipping; every other environment gets the text handler.
func NewLogger(w io.Writer, environment, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
