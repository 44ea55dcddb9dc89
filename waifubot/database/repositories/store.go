package repositories

import (
	"github.com/ellavondegurechaff/waifugrab/waifubot/database"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
)

// Store composes the repositories into the bot's persistent store.
type Store struct {
	*CardRepository
	*UserRepository
	*UserCardRepository
	*SpawnRepository
}

var _ interfaces.Store = (*Store)(nil)

func NewStore(db *database.DB, cardCacheSize int) (*Store, error) {
	cards, err := NewCardRepository(db.BunDB(), cardCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{
		CardRepository:     cards,
		UserRepository:     NewUserRepository(db.BunDB()),
		UserCardRepository: NewUserCardRepository(db.BunDB()),
		SpawnRepository:    NewSpawnRepository(db.GetPool()),
	}, nil
}
