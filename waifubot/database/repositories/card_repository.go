package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot/database/models"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
)

const defaultCardCacheSize = 2048

type CardRepository struct {
	db    *bun.DB
	cache *lru.Cache
}

func NewCardRepository(db *bun.DB, cacheSize int) (*CardRepository, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCardCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create card cache: %w", err)
	}
	return &CardRepository{db: db, cache: cache}, nil
}

func (r *CardRepository) DrawRandomCard(ctx context.Context, rng rarity.Range, excludeLocked bool) (*domain.Card, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var card models.Card
	q := r.db.NewSelect().
		Model(&card).
		Where("rarity BETWEEN ? AND ?", int(rng.Min), int(rng.Max))
	if excludeLocked {
		q = q.Where("locked = false")
	}
	err := q.OrderExpr("random()").Limit(1).Scan(ctx)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError("draw random card", err)
	}

	c := card.ToDomain()
	r.cache.Add(c.ID, c)
	return &c, nil
}

func (r *CardRepository) DrawRandomCards(ctx context.Context, n int, excludeLocked bool) ([]domain.Card, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cards []models.Card
	q := r.db.NewSelect().Model(&cards)
	if excludeLocked {
		q = q.Where("locked = false")
	}
	if err := q.OrderExpr("random()").Limit(n).Scan(ctx); err != nil {
		return nil, domain.StoreError("draw random cards", err)
	}
	return r.toDomain(cards), nil
}

// GetCard serves from the cache when possible. Catalog edits are out of band
// so cached entries are only replaced, never invalidated.
func (r *CardRepository) GetCard(ctx context.Context, id int64) (domain.Card, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.(domain.Card), nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var card models.Card
	err := r.db.NewSelect().Model(&card).Where("id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return domain.Card{}, fmt.Errorf("card %d: %w", id, domain.ErrCardNotFound)
	}
	if err != nil {
		return domain.Card{}, domain.StoreError("get card", err)
	}

	c := card.ToDomain()
	r.cache.Add(c.ID, c)
	return c, nil
}

func (r *CardRepository) SearchCards(ctx context.Context, query string, offset, limit int) ([]domain.Card, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cards []models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("lower(name) LIKE ? ESCAPE '\\'", likePattern(query)).
		Order("rarity ASC", "name ASC", "id ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, domain.StoreError("search cards", err)
	}
	return r.toDomain(cards), nil
}

func (r *CardRepository) CountSearchCards(ctx context.Context, query string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Card)(nil)).
		Where("lower(name) LIKE ? ESCAPE '\\'", likePattern(query)).
		Count(ctx)
	if err != nil {
		return 0, domain.StoreError("count search cards", err)
	}
	return count, nil
}

func (r *CardRepository) ListCardNames(ctx context.Context) ([]domain.Card, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cards []models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Column("id", "name", "source", "rarity").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, domain.StoreError("list card names", err)
	}

	out := make([]domain.Card, len(cards))
	for i := range cards {
		out[i] = cards[i].ToDomain()
	}
	return out, nil
}

func (r *CardRepository) toDomain(cards []models.Card) []domain.Card {
	out := make([]domain.Card, len(cards))
	for i := range cards {
		out[i] = cards[i].ToDomain()
		r.cache.Add(out[i].ID, out[i])
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}
