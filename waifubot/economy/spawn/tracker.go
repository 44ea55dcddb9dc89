package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

type Action int

const (
	ActionRecord Action = iota
	ActionSpawn
	ActionSettle
)

func (a Action) String() string {
	switch a {
	case ActionSpawn:
		return "spawn"
	case ActionSettle:
		return "settle"
	}
	return "record"
}

type Config struct {
	SpawnThreshold  int
	SettleThreshold int
	Rarities        rarity.Range
	ExcludeLocked   bool
}

func DefaultConfig() Config {
	return Config{
		SpawnThreshold:  100,
		SettleThreshold: 150,
		Rarities:        rarity.SpawnRange,
		ExcludeLocked:   true,
	}
}

// Transition decides what a counted message does to a group. Settling an
// active spawn takes priority over spawning a new one.
func Transition(state domain.SpawnState, cfg Config) Action {
	switch state.Phase() {
	case domain.PhaseSpawned, domain.PhaseAuctionOpen:
		if state.Counter() >= cfg.SettleThreshold {
			return ActionSettle
		}
	case domain.PhaseIdle:
		if state.Counter() >= cfg.SpawnThreshold {
			return ActionSpawn
		}
	}
	return ActionRecord
}

// Settler closes a spawn whose deadline passed.
type Settler interface {
	Settle(ctx context.Context, groupID, cardID int64) (domain.Settlement, error)
}

type Store interface {
	interfaces.CardStore
	interfaces.SpawnStore
}

// Message is the part of an inbound chat message the tracker looks at.
type Message struct {
	GroupID   int64
	IsPrivate bool
	FromBot   bool
}

type Tracker struct {
	store     Store
	settler   Settler
	messenger interfaces.Messenger
	cfg       Config
}

func NewTracker(store Store, settler Settler, messenger interfaces.Messenger, cfg Config) *Tracker {
	return &Tracker{
		store:     store,
		settler:   settler,
		messenger: messenger,
		cfg:       cfg,
	}
}

// OnMessage counts one group message and applies the resulting transition.
// Errors are returned for the caller to log; the next message re-evaluates.
func (t *Tracker) OnMessage(ctx context.Context, msg Message) (Action, error) {
	if msg.IsPrivate || msg.FromBot {
		return ActionRecord, nil
	}

	state, err := t.store.IncrementMessageCounter(ctx, msg.GroupID)
	if errors.Is(err, domain.ErrCorruptSpawnState) {
		return ActionRecord, t.repair(ctx, msg.GroupID, err)
	}
	if err != nil {
		return ActionRecord, fmt.Errorf("failed to count message: %w", err)
	}

	action := Transition(state, t.cfg)
	switch action {
	case ActionSettle:
		spawned, _ := domain.ActiveSpawn(state)
		if _, err := t.settler.Settle(ctx, msg.GroupID, spawned.CardID); err != nil {
			return action, fmt.Errorf("failed to settle spawn: %w", err)
		}
	case ActionSpawn:
		if err := t.spawn(ctx, msg.GroupID); err != nil {
			return action, err
		}
	}
	return action, nil
}

// repair drops a group's half-written spawn so counting can start over.
func (t *Tracker) repair(ctx context.Context, groupID int64, cause error) error {
	if err := t.store.ResetSpawnState(ctx, groupID); err != nil {
		return fmt.Errorf("failed to reset corrupted spawn state: %w", err)
	}
	slog.Warn("Reset corrupted spawn state",
		slog.String("type", "game"),
		slog.Int64("group_id", groupID),
		slog.Any("cause", cause))
	return nil
}

func (t *Tracker) spawn(ctx context.Context, groupID int64) error {
	card, err := t.store.DrawRandomCard(ctx, t.cfg.Rarities, t.cfg.ExcludeLocked)
	if err != nil {
		return fmt.Errorf("failed to draw spawn card: %w", err)
	}
	if card == nil {
		slog.Warn("No eligible card to spawn",
			slog.String("type", "game"),
			slog.Int64("group_id", groupID),
			slog.String("rarities", t.cfg.Rarities.String()))
		return nil
	}

	started, err := t.store.StartSpawn(ctx, groupID, *card, t.cfg.SpawnThreshold)
	if err != nil {
		return fmt.Errorf("failed to start spawn: %w", err)
	}
	if !started {
		return nil
	}

	logger.LogGame("Card spawned", groupID,
		slog.Int64("card_id", card.ID),
		slog.String("rarity", card.RarityName()))

	caption := fmt.Sprintf("A %s waifu appeared!\nUse `grab <name>` to claim it.", card.RarityName())
	_, err = t.messenger.SendMedia(ctx, domain.ChatID(groupID), card.MediaRef, caption, interfaces.SendOptions{
		Spoiler: true,
		Video:   card.IsVideo(),
	})
	if err != nil {
		// The spawn stands; players can still grab it from the name alone.
		logger.LogError("Failed to announce spawn", err, slog.Int64("group_id", groupID))
	}
	return nil
}
