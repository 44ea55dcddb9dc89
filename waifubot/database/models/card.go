package models

import (
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/uptrace/bun"
)

type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Source    string    `bun:"source,notnull"`
	Rarity    int       `bun:"rarity,notnull"`
	Price     *int64    `bun:"price"`
	MediaRef  string    `bun:"media_ref,notnull"`
	Locked    bool      `bun:"locked,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (c *Card) ToDomain() domain.Card {
	return domain.Card{
		ID:            c.ID,
		Name:          c.Name,
		Source:        c.Source,
		Rarity:        rarity.Tier(c.Rarity),
		PriceOverride: c.Price,
		MediaRef:      c.MediaRef,
		Locked:        c.Locked,
	}
}
