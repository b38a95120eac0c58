package db

import (
	"context"
	"errors"

	"cashbox/internal/logger"
	"cashbox/internal/metrics"

	"github.com/jmoiron/sqlx"
)

// ErrTxConflict is returned after a money transaction kept hitting
// serialization failures; callers surface it as a transient error.
var ErrTxConflict = errors.New("transaction conflict, retry later")

const maxTxAttempts = 3

// RunTx executes fn inside a transaction, retrying serialization failures
// and deadlocks a bounded number of times before giving up.
func RunTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = runOnce(ctx, db, fn)
		if err == nil || !IsSerializationFailure(err) {
			return err
		}
		metrics.ConcurrencyRetriesTotal.Inc()
		logger.Warn("retrying conflicting transaction", "attempt", attempt)
	}
	return errors.Join(ErrTxConflict, err)
}

func runOnce(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
