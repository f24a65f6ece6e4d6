package utils

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a level name to a slog.Level. Unknown names fall back
// to info.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a JSON logger writing to w, tagged with the procstore
// service name.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLogLevel(level),
		AddSource: true,
	})
	return slog.New(handler).With("service", "procstore")
}
