package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
)

const (
	commandTimeout = 10 * time.Second
	slowCommand    = 2 * time.Second
)

type invocation struct {
	kind      string
	name      string
	userID    string
	userName  string
	channelID string
}

// track runs fn, logging its start, outcome and duration. A handler that
// outlives commandTimeout is reported as failed while it keeps running.
func track(inv invocation, fn func() error) error {
	start := time.Now()

	slog.Info(inv.kind+" started",
		slog.String("type", "cmd"),
		slog.String("name", inv.name),
		slog.String("user_id", inv.userID),
		slog.String("user_name", inv.userName),
		slog.String("channel_id", inv.channelID),
	)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		duration := time.Since(start)
		attrs := []any{
			slog.String("type", "cmd"),
			slog.String("name", inv.name),
			slog.String("user_id", inv.userID),
			slog.String("user_name", inv.userName),
			slog.Duration("took", duration),
		}

		switch {
		case err != nil:
			slog.Error(inv.kind+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case duration > slowCommand:
			slog.Warn(inv.kind+" executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info(inv.kind+" completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(commandTimeout):
		slog.Error(inv.kind+" timed out",
			slog.String("type", "cmd"),
			slog.String("name", inv.name),
			slog.String("user_id", inv.userID),
			slog.String("user_name", inv.userName),
			slog.String("status", "timeout"),
			slog.Duration("timeout", commandTimeout),
		)
		return fmt.Errorf("%s %s timed out after %s", inv.kind, inv.name, commandTimeout)
	}
}

// WrapWithLogging wraps a slash command handler with logging.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return track(invocation{
			kind:      "Command",
			name:      name,
			userID:    e.User().ID.String(),
			userName:  e.User().Username,
			channelID: e.ChannelID().String(),
		}, func() error { return h(e) })
	}
}

// WrapComponentWithLogging wraps a component handler with logging.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return track(invocation{
			kind:      "Component interaction",
			name:      name,
			userID:    e.User().ID.String(),
			userName:  e.User().Username,
			channelID: e.ChannelID().String(),
		}, func() error { return h(e) })
	}
}
