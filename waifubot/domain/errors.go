package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveSpawn     = errors.New("no active spawn")
	ErrNameMismatch      = errors.New("name does not match the active spawn")
	ErrNotSessionOwner   = errors.New("session belongs to another user")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBidTooLow         = errors.New("bid does not exceed the current highest bid")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// ErrAlreadyClaimed is returned to the losers of a claim race.
	ErrAlreadyClaimed = fmt.Errorf("%w: already claimed", ErrNoActiveSpawn)
	// ErrAuctionActive is returned for claims once bidding has started.
	ErrAuctionActive = fmt.Errorf("%w: auction in progress", ErrNoActiveSpawn)

	ErrSessionExpired    = errors.New("session expired")
	ErrCorruptSpawnState = errors.New("spawn state is corrupted")
	ErrCardNotFound      = errors.New("card not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserBanned        = errors.New("user is banned")
	ErrAlreadyOwned      = errors.New("card already owned")
)

// StoreError wraps an infrastructure failure so that it matches ErrStoreUnavailable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsUserError reports whether err is caused by user input and may be shown to the user.
func IsUserError(err error) bool {
	switch {
	case errors.Is(err, ErrNoActiveSpawn),
		errors.Is(err, ErrNameMismatch),
		errors.Is(err, ErrNotSessionOwner),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrBidTooLow),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrUserBanned),
		errors.Is(err, ErrAlreadyOwned):
		return true
	}
	return false
}
