package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/database/models"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/uptrace/bun"
)

type UserCardRepository struct {
	db *bun.DB
}

func NewUserCardRepository(db *bun.DB) *UserCardRepository {
	return &UserCardRepository{db: db}
}

func (r *UserCardRepository) InsertOwnership(ctx context.Context, userID, cardID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inserted, err := insertUserCard(ctx, r.db, userID, cardID)
	if err != nil {
		return false, domain.StoreError("insert ownership", err)
	}
	return inserted, nil
}

func (r *UserCardRepository) CountOwnership(ctx context.Context, userID, cardID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.UserCard)(nil)).
		Where("user_id = ?", userID).
		Where("card_id = ?", cardID).
		Count(ctx)
	if err != nil {
		return 0, domain.StoreError("count ownership", err)
	}
	return count, nil
}

func (r *UserCardRepository) ownedQuery(model any, userID int64, filter *rarity.Tier) *bun.SelectQuery {
	q := r.db.NewSelect().
		Model(model).
		Relation("Card").
		Where("uc.user_id = ?", userID)
	if filter != nil {
		q = q.Where("card.rarity = ?", int(*filter))
	}
	return q
}

func (r *UserCardRepository) ListOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier, offset, limit int) ([]domain.OwnedCard, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rows []models.UserCard
	err := r.ownedQuery(&rows, userID, filter).
		Order("uc.acquired_at DESC", "uc.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, domain.StoreError("list owned cards", err)
	}

	out := make([]domain.OwnedCard, 0, len(rows))
	for _, row := range rows {
		if row.Card == nil {
			continue
		}
		out = append(out, domain.OwnedCard{Card: row.Card.ToDomain(), AcquiredAt: row.AcquiredAt})
	}
	return out, nil
}

func (r *UserCardRepository) CountOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	count, err := r.ownedQuery((*models.UserCard)(nil), userID, filter).Count(ctx)
	if err != nil {
		return 0, domain.StoreError("count owned cards", err)
	}
	return count, nil
}

// PurchaseCard grants the card and debits price in one transaction.
func (r *UserCardRepository) PurchaseCard(ctx context.Context, userID, cardID, price int64) (int64, error) {
	var balance int64
	err := runInBunTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		inserted, err := insertUserCard(ctx, tx, userID, cardID)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrAlreadyOwned
		}

		err = tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance - ?", price).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Where("balance >= ?", price).
			Returning("balance").
			Scan(ctx, &balance)
		if isNoRows(err) {
			return domain.ErrInsufficientFunds
		}
		if err != nil {
			return fmt.Errorf("failed to debit buyer: %w", err)
		}
		return nil
	})
	if domain.IsUserError(err) {
		return 0, err
	}
	if err != nil {
		return 0, domain.StoreError("purchase card", err)
	}
	return balance, nil
}

func insertUserCard(ctx context.Context, db bun.IDB, userID, cardID int64) (bool, error) {
	res, err := db.NewInsert().
		Model(&models.UserCard{UserID: userID, CardID: cardID, AcquiredAt: time.Now()}).
		On("CONFLICT (user_id, card_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert user card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}
