package models

import (
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk"`
	Username    string    `bun:"username,notnull,default:''"`
	FirstName   string    `bun:"first_name,notnull,default:''"`
	Balance     int64     `bun:"balance,notnull,default:0"`
	HaremFilter *int      `bun:"harem_filter"`
	Banned      bool      `bun:"banned,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (u *User) ToDomain() domain.User {
	user := domain.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		Balance:   u.Balance,
		Banned:    u.Banned,
	}
	if u.HaremFilter != nil {
		tier := rarity.Tier(*u.HaremFilter)
		user.HaremFilter = &tier
	}
	return user
}
