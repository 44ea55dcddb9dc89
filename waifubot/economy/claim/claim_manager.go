package claim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
)

type Store interface {
	interfaces.CardStore
	interfaces.SpawnStore
}

// Manager arbitrates the race to grab a group's active spawn.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// MatchesName compares a guess against the snapshotted spawn name, ignoring
// case and surrounding whitespace.
func MatchesName(guess, name string) bool {
	guess = strings.TrimSpace(guess)
	return guess != "" && strings.EqualFold(guess, strings.TrimSpace(name))
}

// Claim gives the group's active spawn to userID if name matches it. Exactly
// one of several concurrent correct claims succeeds; the others get
// domain.ErrAlreadyClaimed.
func (m *Manager) Claim(ctx context.Context, groupID, userID int64, name string) (domain.Card, error) {
	state, err := m.store.GetGroupSpawnState(ctx, groupID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to read spawn state: %w", err)
	}

	var spawned domain.Spawned
	switch st := state.(type) {
	case domain.Spawned:
		spawned = st
	case domain.AuctionOpen:
		return domain.Card{}, domain.ErrAuctionActive
	default:
		return domain.Card{}, domain.ErrNoActiveSpawn
	}

	if !MatchesName(name, spawned.Name) {
		return domain.Card{}, domain.ErrNameMismatch
	}

	won, err := m.store.TrySettleClaim(ctx, groupID, userID, spawned.CardID)
	if err != nil {
		return domain.Card{}, err
	}
	if !won {
		return domain.Card{}, domain.ErrAlreadyClaimed
	}

	logger.LogGame("Spawn claimed", groupID,
		slog.Int64("card_id", spawned.CardID),
		slog.Int64("user_id", userID))

	card, err := m.store.GetCard(ctx, spawned.CardID)
	if err != nil {
		// Ownership is committed; answer with the snapshot.
		slog.Warn("Claimed card missing from catalog",
			slog.String("type", "game"),
			slog.Int64("card_id", spawned.CardID),
			slog.Any("error", err))
		return domain.Card{ID: spawned.CardID, Name: spawned.Name}, nil
	}
	return card, nil
}
