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

type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser creates the user on first contact and refreshes the display
// names on later ones. Balance and flags are never touched.
func (r *UserRepository) EnsureUser(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	m := &models.User{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("first_name = EXCLUDED.first_name").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.User{}, domain.StoreError("ensure user", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m models.User
	err := r.db.NewSelect().Model(&m).Where("id = ?", userID).Scan(ctx)
	if isNoRows(err) {
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		return domain.User{}, domain.StoreError("get user", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var balance int64
	err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Column("balance").
		Where("id = ?", userID).
		Scan(ctx, &balance)
	if isNoRows(err) {
		// Unknown users have nothing to spend.
		return 0, nil
	}
	if err != nil {
		return 0, domain.StoreError("get balance", err)
	}
	return balance, nil
}

func (r *UserRepository) AdjustBalance(ctx context.Context, userID, delta int64) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var balance int64
	err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Where("balance + ? >= 0", delta).
		Returning("balance").
		Scan(ctx, &balance)
	if isNoRows(err) {
		exists, existsErr := r.db.NewSelect().Model((*models.User)(nil)).Where("id = ?", userID).Exists(ctx)
		if existsErr != nil {
			return 0, domain.StoreError("adjust balance", existsErr)
		}
		if !exists {
			return 0, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
		}
		return 0, domain.ErrInsufficientFunds
	}
	if err != nil {
		return 0, domain.StoreError("adjust balance", err)
	}
	return balance, nil
}

func (r *UserRepository) SetHaremFilter(ctx context.Context, userID int64, tier *rarity.Tier) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var filter *int
	if tier != nil {
		v := int(*tier)
		filter = &v
	}

	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("harem_filter = ?", filter).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return domain.StoreError("set harem filter", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	return nil
}
