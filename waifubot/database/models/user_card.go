package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserCard records one owned card. (user_id, card_id) is unique.
type UserCard struct {
	bun.BaseModel `bun:"table:user_cards,alias:uc"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull,unique:user_card"`
	CardID     int64     `bun:"card_id,notnull,unique:user_card"`
	AcquiredAt time.Time `bun:"acquired_at,notnull,default:current_timestamp"`

	Card *Card `bun:"rel:belongs-to,join:card_id=id"`
}
