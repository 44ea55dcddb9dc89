package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SpawnTracker is the durable per-group spawn state. ActiveCardID and
// ActiveName are written together by every statement that touches them.
type SpawnTracker struct {
	bun.BaseModel `bun:"table:spawn_trackers,alias:st"`

	GroupID      int64     `bun:"group_id,pk"`
	MessageCount int       `bun:"message_count,notnull,default:0"`
	ActiveCardID *int64    `bun:"active_card_id"`
	ActiveName   *string   `bun:"active_name"`
	SpawnedAt    time.Time `bun:"spawned_at,nullzero"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// GroupAuction exists only while bidding is open for a group's spawn.
type GroupAuction struct {
	bun.BaseModel `bun:"table:group_auctions,alias:ga"`

	GroupID       int64     `bun:"group_id,pk"`
	CardID        int64     `bun:"card_id,notnull"`
	HighestBid    *int64    `bun:"highest_bid"`
	HighestBidder *int64    `bun:"highest_bidder"`
	OpenedAt      time.Time `bun:"opened_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
