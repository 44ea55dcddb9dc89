package handlers

import (
	"errors"
	"log/slog"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/views"
)

const GenericError = "Something went wrong, try again later."

// UserMessage returns the text shown to a user for err. Errors that are not
// caused by the user collapse to GenericError.
func UserMessage(err error) string {
	var empty *views.EmptyError
	switch {
	case errors.As(err, &empty):
		return empty.Message
	case errors.Is(err, domain.ErrAuctionActive):
		return "⚔️ Auction is active! Use `bid <amount>` to participate."
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return "😔 Too slow! Someone else grabbed this waifu first."
	case errors.Is(err, domain.ErrNoActiveSpawn):
		return "❌ No active spawn! Wait for a waifu to appear."
	case errors.Is(err, domain.ErrNameMismatch):
		return "❌ Wrong name! Try again with the exact correct name."
	case errors.Is(err, domain.ErrNotSessionOwner):
		return "❌ This is not your session!"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "❌ Insufficient cash!"
	case errors.Is(err, domain.ErrBidTooLow):
		return "❌ Your bid must be higher than the current highest bid."
	case errors.Is(err, domain.ErrSessionExpired):
		return "⌛ This session has expired."
	case errors.Is(err, domain.ErrUserBanned):
		return "🚫 You are banned from playing."
	case errors.Is(err, domain.ErrAlreadyOwned):
		return "❌ You already own this waifu!"
	}
	return GenericError
}

// IsExpected reports whether err is an outcome to show the user rather
// than a failure to log.
func IsExpected(err error) bool {
	var empty *views.EmptyError
	return domain.IsUserError(err) || errors.As(err, &empty)
}

// Report logs unexpected errors and returns the user-facing message.
func Report(name string, userID int64, err error) string {
	if !IsExpected(err) {
		logger.LogError("Request failed", err,
			slog.String("name", name),
			slog.Int64("user_id", userID))
	}
	return UserMessage(err)
}
