package logger

import (
	"log/slog"
	"time"
)

// LogQuery logs database operations
func LogQuery(operation, query string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", operation),
		slog.Duration("took", duration),
		slog.String("query", query),
	}

	if err != nil {
		slog.Error("Query failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Query executed", attrs...)
	}
}

// LogGame logs spawn, claim and auction transitions
func LogGame(msg string, groupID int64, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "game"),
		slog.Int64("group_id", groupID),
	}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogSession logs browsing session lifecycle events
func LogSession(msg string, sessionID string, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "session"),
		slog.String("session_id", sessionID),
	}
	slog.Debug(msg, append(baseAttrs, attrs...)...)
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
