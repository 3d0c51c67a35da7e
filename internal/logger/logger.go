// Package logger configures the process-wide slog logger: JSON in
// production, human-readable text everywhere else, selected by the
// deployment environment.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds and installs the default slog.Logger. env selects the
// handler ("production" gets JSON, anything else gets text); levelStr
// parses as a standard slog level name, defaulting to info on empty or
// unrecognized input.
func Setup(env, levelStr string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithError attaches err to the logger context under the "error" key.
func WithError(log *slog.Logger, err error) *slog.Logger {
	return log.With("error", err.Error())
}

// WithChatID attaches a chat ID to the logger context, the correlation key
// most bot log lines are keyed on.
func WithChatID(log *slog.Logger, chatID int64) *slog.Logger {
	return log.With("chat_id", chatID)
}
