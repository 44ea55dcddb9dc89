package domain

import (
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

// Card is an immutable catalog entry.
type Card struct {
	ID            int64
	Name          string
	Source        string
	Rarity        rarity.Tier
	PriceOverride *int64
	MediaRef      string
	Locked        bool
}

// DisplayPrice is the card's price override if set, else its tier price.
func (c Card) DisplayPrice() int64 {
	if c.PriceOverride != nil {
		return *c.PriceOverride
	}
	return rarity.Price(c.Rarity)
}

func (c Card) RarityName() string {
	return rarity.Name(c.Rarity)
}

// IsVideo reports whether the card's media must be sent as a video.
func (c Card) IsVideo() bool {
	return c.Rarity == rarity.VideoTier
}

type Ownership struct {
	UserID     int64
	CardID     int64
	AcquiredAt time.Time
}

// OwnedCard is a card joined with the time its owner acquired it.
type OwnedCard struct {
	Card
	AcquiredAt time.Time
}

type User struct {
	ID          int64
	Username    string
	FirstName   string
	Balance     int64
	HaremFilter *rarity.Tier
	Banned      bool
}

// DisplayName prefers the username, then the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Unknown"
}

// AuctionState exists only while a group auction is open.
type AuctionState struct {
	GroupID       int64
	CardID        int64
	HighestBid    *int64
	HighestBidder *int64
}

// HasBid reports whether anyone placed a bid.
func (a AuctionState) HasBid() bool {
	return a.HighestBid != nil && a.HighestBidder != nil
}

type ChatID int64

type MessageRef struct {
	ChatID    ChatID
	MessageID int64
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

type InteractionID string

type SettlementOutcome int

const (
	// OutcomeNothing means the spawn was already settled or claimed elsewhere.
	OutcomeNothing SettlementOutcome = iota
	OutcomeNoBids
	OutcomeSold
	// OutcomeForfeited means the winner could no longer afford the winning bid.
	OutcomeForfeited
)

func (o SettlementOutcome) String() string {
	switch o {
	case OutcomeNothing:
		return "nothing"
	case OutcomeNoBids:
		return "no_bids"
	case OutcomeSold:
		return "sold"
	case OutcomeForfeited:
		return "forfeited"
	}
	return "unknown"
}

// Settlement is the result of closing a group's spawn at its deadline.
type Settlement struct {
	Outcome SettlementOutcome
	GroupID int64
	CardID  int64
	Winner  int64
	Amount  int64
}
