package interfaces

import (
	"context"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

// CardStore reads the card catalog.
type CardStore interface {
	// DrawRandomCard returns nil when no card is eligible.
	DrawRandomCard(ctx context.Context, r rarity.Range, excludeLocked bool) (*domain.Card, error)
	DrawRandomCards(ctx context.Context, n int, excludeLocked bool) ([]domain.Card, error)
	GetCard(ctx context.Context, id int64) (domain.Card, error)
	SearchCards(ctx context.Context, query string, offset, limit int) ([]domain.Card, error)
	CountSearchCards(ctx context.Context, query string) (int, error)
	ListCardNames(ctx context.Context) ([]domain.Card, error)
}

// SpawnStore owns the per-group spawn tracker. Mutations that end a spawn are
// conditioned on the spawn they expect to end.
type SpawnStore interface {
	GetGroupSpawnState(ctx context.Context, groupID int64) (domain.SpawnState, error)
	// IncrementMessageCounter creates the tracker on first use and returns the
	// state after counting one message.
	IncrementMessageCounter(ctx context.Context, groupID int64) (domain.SpawnState, error)
	// StartSpawn snapshots card into an idle group whose counter reached
	// minCount and resets the counter. It returns false if the group was no
	// longer idle or its counter was reset since it was read.
	StartSpawn(ctx context.Context, groupID int64, card domain.Card, minCount int) (bool, error)
	// TrySettleClaim clears the spawn and records ownership in one step. It
	// returns false if the spawn was already cleared or is being auctioned.
	TrySettleClaim(ctx context.Context, groupID, userID, cardID int64) (bool, error)
	ResetSpawnState(ctx context.Context, groupID int64) error
}

type AuctionStore interface {
	GetAuctionState(ctx context.Context, groupID int64) (*domain.AuctionState, error)
	// UpsertAuctionBid opens the auction on the first bid and raises it on
	// later ones. It returns false when amount does not beat the current bid
	// and domain.ErrNoActiveSpawn when cardID is no longer the active spawn.
	UpsertAuctionBid(ctx context.Context, groupID, cardID, bidderID, amount int64) (bool, error)
	ClearAuctionState(ctx context.Context, groupID int64) error
	// SettleAuction ends the spawn of cardID: charges the winner if any,
	// grants the card, clears the auction and resets the tracker.
	SettleAuction(ctx context.Context, groupID, cardID int64) (domain.Settlement, error)
}

type UserStore interface {
	EnsureUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	// AdjustBalance fails with domain.ErrInsufficientFunds instead of going negative.
	AdjustBalance(ctx context.Context, userID, delta int64) (int64, error)
	SetHaremFilter(ctx context.Context, userID int64, tier *rarity.Tier) error
}

type OwnershipStore interface {
	// InsertOwnership is idempotent; it returns false if the pair already existed.
	InsertOwnership(ctx context.Context, userID, cardID int64) (bool, error)
	CountOwnership(ctx context.Context, userID, cardID int64) (int, error)
	ListOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier, offset, limit int) ([]domain.OwnedCard, error)
	CountOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier) (int, error)
	// PurchaseCard debits price and records ownership atomically, returning the new balance.
	PurchaseCard(ctx context.Context, userID, cardID, price int64) (int64, error)
}

// Store is the persistent store used by the bot.
type Store interface {
	CardStore
	SpawnStore
	AuctionStore
	UserStore
	OwnershipStore
}
