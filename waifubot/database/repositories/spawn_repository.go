package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	selectSpawnState = `
SELECT t.message_count, t.active_card_id, t.active_name, a.card_id, a.highest_bid, a.highest_bidder
FROM spawn_trackers t
LEFT JOIN group_auctions a ON a.group_id = t.group_id
WHERE t.group_id = $1`

	incrementCounter = `
WITH t AS (
	INSERT INTO spawn_trackers (group_id, message_count, updated_at)
	VALUES ($1, 1, now())
	ON CONFLICT (group_id) DO UPDATE
	SET message_count = spawn_trackers.message_count + 1, updated_at = now()
	RETURNING group_id, message_count, active_card_id, active_name
)
SELECT t.message_count, t.active_card_id, t.active_name, a.card_id, a.highest_bid, a.highest_bidder
FROM t
LEFT JOIN group_auctions a ON a.group_id = t.group_id`

	startSpawn = `
UPDATE spawn_trackers
SET active_card_id = $2, active_name = $3, message_count = 0, spawned_at = now(), updated_at = now()
WHERE group_id = $1 AND active_card_id IS NULL AND message_count >= $4`

	lockSpawn = `SELECT active_card_id FROM spawn_trackers WHERE group_id = $1 FOR UPDATE`

	auctionExists = `SELECT EXISTS (SELECT 1 FROM group_auctions WHERE group_id = $1)`

	clearSpawn = `
UPDATE spawn_trackers
SET active_card_id = NULL, active_name = NULL, message_count = 0, spawned_at = NULL, updated_at = now()
WHERE group_id = $1`

	insertOwnership = `
INSERT INTO user_cards (user_id, card_id, acquired_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id, card_id) DO NOTHING`

	selectAuction = `
SELECT card_id, highest_bid, highest_bidder FROM group_auctions WHERE group_id = $1`

	upsertBid = `
INSERT INTO group_auctions (group_id, card_id, highest_bid, highest_bidder, opened_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (group_id) DO UPDATE
SET highest_bid = EXCLUDED.highest_bid, highest_bidder = EXCLUDED.highest_bidder, updated_at = now()
WHERE group_auctions.highest_bid IS NULL OR group_auctions.highest_bid < EXCLUDED.highest_bid`

	deleteAuction = `DELETE FROM group_auctions WHERE group_id = $1`

	takeAuction = `DELETE FROM group_auctions WHERE group_id = $1 RETURNING highest_bid, highest_bidder`

	debitWinner = `UPDATE users SET balance = balance - $2, updated_at = now() WHERE id = $1 AND balance >= $2`
)

type SpawnRepository struct {
	db Querier
}

func NewSpawnRepository(db Querier) *SpawnRepository {
	return &SpawnRepository{db: db}
}

func scanSpawnState(groupID int64, row pgx.Row) (domain.SpawnState, error) {
	spawn := domain.SpawnRow{GroupID: groupID}
	var (
		auctionCard   *int64
		highestBid    *int64
		highestBidder *int64
	)
	if err := row.Scan(&spawn.MessageCount, &spawn.ActiveCardID, &spawn.ActiveName,
		&auctionCard, &highestBid, &highestBidder); err != nil {
		return nil, err
	}

	var auction *domain.AuctionState
	if auctionCard != nil {
		auction = &domain.AuctionState{
			GroupID:       groupID,
			CardID:        *auctionCard,
			HighestBid:    highestBid,
			HighestBidder: highestBidder,
		}
	}
	return domain.NewSpawnState(spawn, auction)
}

func (r *SpawnRepository) GetGroupSpawnState(ctx context.Context, groupID int64) (domain.SpawnState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	state, err := scanSpawnState(groupID, r.db.QueryRow(ctx, selectSpawnState, groupID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Idle{}, nil
	case errors.Is(err, domain.ErrCorruptSpawnState):
		return nil, err
	case err != nil:
		return nil, domain.StoreError("get spawn state", err)
	}
	return state, nil
}

func (r *SpawnRepository) IncrementMessageCounter(ctx context.Context, groupID int64) (domain.SpawnState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	state, err := scanSpawnState(groupID, r.db.QueryRow(ctx, incrementCounter, groupID))
	if err != nil {
		if errors.Is(err, domain.ErrCorruptSpawnState) {
			return nil, err
		}
		return nil, domain.StoreError("increment message counter", err)
	}
	return state, nil
}

func (r *SpawnRepository) StartSpawn(ctx context.Context, groupID int64, card domain.Card, minCount int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, startSpawn, groupID, card.ID, card.Name, minCount)
	if err != nil {
		return false, domain.StoreError("start spawn", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SpawnRepository) TrySettleClaim(ctx context.Context, groupID, userID, cardID int64) (bool, error) {
	claimed := false
	err := r.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		active, err := lockActiveCard(ctx, tx, groupID)
		if err != nil || active == nil || *active != cardID {
			return err
		}

		var bidding bool
		if err := tx.QueryRow(ctx, auctionExists, groupID).Scan(&bidding); err != nil {
			return fmt.Errorf("failed to check auction: %w", err)
		}
		if bidding {
			return nil
		}

		if _, err := tx.Exec(ctx, clearSpawn, groupID); err != nil {
			return fmt.Errorf("failed to clear spawn: %w", err)
		}
		if _, err := tx.Exec(ctx, insertOwnership, userID, cardID); err != nil {
			return fmt.Errorf("failed to insert ownership: %w", err)
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, domain.StoreError("settle claim", err)
	}
	return claimed, nil
}

func (r *SpawnRepository) ResetSpawnState(ctx context.Context, groupID int64) error {
	err := r.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteAuction, groupID); err != nil {
			return fmt.Errorf("failed to delete auction: %w", err)
		}
		if _, err := tx.Exec(ctx, clearSpawn, groupID); err != nil {
			return fmt.Errorf("failed to clear spawn: %w", err)
		}
		return nil
	})
	return domain.StoreError("reset spawn state", err)
}

func (r *SpawnRepository) GetAuctionState(ctx context.Context, groupID int64) (*domain.AuctionState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	state := domain.AuctionState{GroupID: groupID}
	err := r.db.QueryRow(ctx, selectAuction, groupID).Scan(&state.CardID, &state.HighestBid, &state.HighestBidder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError("get auction state", err)
	}
	return &state, nil
}

func (r *SpawnRepository) UpsertAuctionBid(ctx context.Context, groupID, cardID, bidderID, amount int64) (bool, error) {
	var accepted bool
	err := r.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		active, err := lockActiveCard(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if active == nil || *active != cardID {
			return domain.ErrNoActiveSpawn
		}

		tag, err := tx.Exec(ctx, upsertBid, groupID, cardID, amount, bidderID)
		if err != nil {
			return fmt.Errorf("failed to upsert bid: %w", err)
		}
		accepted = tag.RowsAffected() == 1
		return nil
	})
	if errors.Is(err, domain.ErrNoActiveSpawn) {
		return false, err
	}
	if err != nil {
		return false, domain.StoreError("upsert auction bid", err)
	}
	return accepted, nil
}

func (r *SpawnRepository) ClearAuctionState(ctx context.Context, groupID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, deleteAuction, groupID)
	return domain.StoreError("clear auction state", err)
}

func (r *SpawnRepository) SettleAuction(ctx context.Context, groupID, cardID int64) (domain.Settlement, error) {
	result := domain.Settlement{Outcome: domain.OutcomeNothing, GroupID: groupID, CardID: cardID}

	err := r.runInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		active, err := lockActiveCard(ctx, tx, groupID)
		if err != nil || active == nil || *active != cardID {
			return err
		}

		var bid, bidder *int64
		err = tx.QueryRow(ctx, takeAuction, groupID).Scan(&bid, &bidder)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to take auction: %w", err)
		}

		result.Outcome = domain.OutcomeNoBids
		if bid != nil && bidder != nil {
			result.Winner, result.Amount = *bidder, *bid

			tag, err := tx.Exec(ctx, debitWinner, *bidder, *bid)
			if err != nil {
				return fmt.Errorf("failed to debit winner: %w", err)
			}
			if tag.RowsAffected() == 0 {
				result.Outcome = domain.OutcomeForfeited
			} else {
				if _, err := tx.Exec(ctx, insertOwnership, *bidder, cardID); err != nil {
					return fmt.Errorf("failed to insert ownership: %w", err)
				}
				result.Outcome = domain.OutcomeSold
			}
		}

		if _, err := tx.Exec(ctx, clearSpawn, groupID); err != nil {
			return fmt.Errorf("failed to clear spawn: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Settlement{Outcome: domain.OutcomeNothing, GroupID: groupID, CardID: cardID},
			domain.StoreError("settle auction", err)
	}
	return result, nil
}

// lockActiveCard takes the group's row lock and returns its active card, or
// nil when the group is idle or has never been seen.
func lockActiveCard(ctx context.Context, tx pgx.Tx, groupID int64) (*int64, error) {
	var active *int64
	err := tx.QueryRow(ctx, lockSpawn, groupID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock spawn tracker: %w", err)
	}
	return active, nil
}

func (r *SpawnRepository) runInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
