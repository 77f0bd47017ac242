// Package logger builds the application's *slog.Logger.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging: JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
// Command line (cli): text output at WARN level, so only problems reach stderr.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a logger for env writing to w. Every record carries the
// service name. A non-empty level overrides the environment's default level.
func New(w io.Writer, service, env, level string) *slog.Logger {
	var handler slog.Handler

	switch env {
	case "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)})
	case "staging":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)})
	case "cli":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelWarn)})
	default: // "dev" and anything unrecognised
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)})
	}

	return slog.New(handler).With(slog.String("service", service))
}

func levelOr(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
