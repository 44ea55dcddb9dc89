package domain

import "fmt"

type SpawnPhase int

const (
	PhaseIdle SpawnPhase = iota
	PhaseSpawned
	PhaseAuctionOpen
)

func (p SpawnPhase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseSpawned:
		return "SPAWNED"
	case PhaseAuctionOpen:
		return "AUCTION_OPEN"
	}
	return fmt.Sprintf("SpawnPhase(%d)", int(p))
}

// SpawnState is the state of one group's spawn machine. It is one of
// Idle, Spawned or AuctionOpen.
type SpawnState interface {
	Phase() SpawnPhase
	Counter() int
	isSpawnState()
}

type Idle struct {
	MessageCount int
}

func (Idle) Phase() SpawnPhase { return PhaseIdle }
func (s Idle) Counter() int    { return s.MessageCount }
func (Idle) isSpawnState()     {}

type Spawned struct {
	CardID       int64
	Name         string
	MessageCount int
}

func (Spawned) Phase() SpawnPhase { return PhaseSpawned }
func (s Spawned) Counter() int    { return s.MessageCount }
func (Spawned) isSpawnState()     {}

type AuctionOpen struct {
	Spawned
	Auction AuctionState
}

func (AuctionOpen) Phase() SpawnPhase { return PhaseAuctionOpen }

// SpawnRow is the persisted shape of a group's spawn tracker.
type SpawnRow struct {
	GroupID      int64
	MessageCount int
	ActiveCardID *int64
	ActiveName   *string
}

// NewSpawnState builds the typed state from a stored row and the group's
// auction, if any. Rows with only one of the spawn fields set are rejected.
func NewSpawnState(row SpawnRow, auction *AuctionState) (SpawnState, error) {
	hasCard := row.ActiveCardID != nil
	hasName := row.ActiveName != nil
	if hasCard != hasName {
		return nil, fmt.Errorf("group %d: %w", row.GroupID, ErrCorruptSpawnState)
	}

	if !hasCard {
		if auction != nil {
			return nil, fmt.Errorf("group %d: auction without spawn: %w", row.GroupID, ErrCorruptSpawnState)
		}
		return Idle{MessageCount: row.MessageCount}, nil
	}

	spawned := Spawned{
		CardID:       *row.ActiveCardID,
		Name:         *row.ActiveName,
		MessageCount: row.MessageCount,
	}
	if auction == nil {
		return spawned, nil
	}
	if auction.CardID != spawned.CardID {
		return nil, fmt.Errorf("group %d: auction card %d differs from spawn card %d: %w",
			row.GroupID, auction.CardID, spawned.CardID, ErrCorruptSpawnState)
	}
	return AuctionOpen{Spawned: spawned, Auction: *auction}, nil
}

// ActiveSpawn returns the spawned card of a state, if any.
func ActiveSpawn(s SpawnState) (Spawned, bool) {
	switch st := s.(type) {
	case Spawned:
		return st, true
	case AuctionOpen:
		return st.Spawned, true
	}
	return Spawned{}, false
}
