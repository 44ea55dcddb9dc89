package auction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
)

type Store interface {
	interfaces.CardStore
	interfaces.SpawnStore
	interfaces.AuctionStore
	interfaces.UserStore
}

// Manager runs the bidding over a group's unclaimed spawn. Bids do not
// reserve funds; only the final winner is charged, at settlement.
type Manager struct {
	store    Store
	notifier *Notifier
}

func NewManager(store Store, messenger interfaces.Messenger) *Manager {
	return &Manager{
		store:    store,
		notifier: NewNotifier(store, messenger),
	}
}

// PlaceBid records amount as the group's leading bid. The first bid opens
// the auction.
func (m *Manager) PlaceBid(ctx context.Context, groupID, userID, amount int64) (domain.AuctionState, error) {
	if amount <= 0 {
		return domain.AuctionState{}, domain.ErrBidTooLow
	}

	state, err := m.store.GetGroupSpawnState(ctx, groupID)
	if err != nil {
		return domain.AuctionState{}, fmt.Errorf("failed to read spawn state: %w", err)
	}
	spawned, ok := domain.ActiveSpawn(state)
	if !ok {
		return domain.AuctionState{}, domain.ErrNoActiveSpawn
	}
	if open, isOpen := state.(domain.AuctionOpen); isOpen && open.Auction.HasBid() && amount <= *open.Auction.HighestBid {
		return domain.AuctionState{}, domain.ErrBidTooLow
	}

	balance, err := m.store.GetBalance(ctx, userID)
	if err != nil {
		return domain.AuctionState{}, fmt.Errorf("failed to read balance: %w", err)
	}
	if balance < amount {
		return domain.AuctionState{}, domain.ErrInsufficientFunds
	}

	accepted, err := m.store.UpsertAuctionBid(ctx, groupID, spawned.CardID, userID, amount)
	if err != nil {
		return domain.AuctionState{}, err
	}
	if !accepted {
		return domain.AuctionState{}, domain.ErrBidTooLow
	}

	logger.LogGame("Bid placed", groupID,
		slog.Int64("card_id", spawned.CardID),
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount))

	return domain.AuctionState{
		GroupID:       groupID,
		CardID:        spawned.CardID,
		HighestBid:    &amount,
		HighestBidder: &userID,
	}, nil
}

// Settle ends the spawn of cardID and announces the result. Settling a spawn
// that was already claimed or settled is a silent no-op.
func (m *Manager) Settle(ctx context.Context, groupID, cardID int64) (domain.Settlement, error) {
	result, err := m.store.SettleAuction(ctx, groupID, cardID)
	if err != nil {
		return result, err
	}

	logger.LogGame("Auction settled", groupID,
		slog.String("status", result.Outcome.String()),
		slog.Int64("card_id", cardID),
		slog.Int64("winner", result.Winner),
		slog.Int64("amount", result.Amount))

	if err := m.notifier.Announce(ctx, result); err != nil {
		logger.LogError("Failed to announce auction result", err, slog.Int64("group_id", groupID))
	}
	return result, nil
}

// Cancel drops the group's auction without charging anyone. The spawn
// itself stays active.
func (m *Manager) Cancel(ctx context.Context, groupID int64) error {
	if err := m.store.ClearAuctionState(ctx, groupID); err != nil {
		return err
	}
	logger.LogGame("Auction cancelled", groupID)
	return nil
}
