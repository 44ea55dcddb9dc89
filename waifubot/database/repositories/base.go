package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

const defaultQueryTimeout = 5 * time.Second

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

func runInBunTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return db.RunInTx(ctx, nil, fn)
}
