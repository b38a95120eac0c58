package withdrawal

import (
	"context"
	"database/sql"
	"errors"

	"cashbox/internal/db"
	"cashbox/internal/wallet"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound          = errors.New("withdrawal not found")
	ErrInvalidTransition = errors.New("invalid withdrawal transition")
)

type repository struct {
	db      *sqlx.DB
	wallets wallet.TxMutator
}

func NewRepository(database *sqlx.DB, wallets wallet.TxMutator) Repository {
	return &repository{db: database, wallets: wallets}
}

const withdrawalColumns = `id, user_id, transaction_code, bank_account_id, amount_cents, fee_cents, status, note, created_at, updated_at, processed_at`

func (r *repository) Create(ctx context.Context, userID, bankAccountID int, amountCents, feeCents int64, code, note string) (*Withdrawal, error) {
	var w Withdrawal
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Сначала блокируем средства: если их не хватает, запись о выводе
		// не появится вовсе.
		if err := r.wallets.LockTx(ctx, tx, userID, amountCents, code); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO withdrawals (user_id, transaction_code, bank_account_id, amount_cents, fee_cents, status, note)
			VALUES ($1, $2, $3, $4, $5, 'pending', NULLIF($6, ''))
			RETURNING `+withdrawalColumns,
			userID, code, bankAccountID, amountCents, feeCents, note,
		).StructScan(&w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Withdrawal, error) {
	var w Withdrawal
	err := r.db.GetContext(ctx, &w,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]Withdrawal, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM withdrawals WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, err
	}

	withdrawals := []Withdrawal{}
	err = r.db.SelectContext(ctx, &withdrawals, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

func (r *repository) Cancel(ctx context.Context, userID, id int) (*Withdrawal, error) {
	var w Withdrawal
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE withdrawals
			SET status = 'cancelled', updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND status = 'pending'
			RETURNING `+withdrawalColumns, id, userID,
		).StructScan(&w)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return transitionErrorOwned(ctx, tx, id, userID)
			}
			return err
		}

		return r.wallets.UnlockTx(ctx, tx, userID, w.AmountCents, w.TransactionCode)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) MarkProcessing(ctx context.Context, id int, note string) (*Withdrawal, error) {
	var w Withdrawal
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE withdrawals
			SET status = 'processing', note = NULLIF($2, ''), updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING `+withdrawalColumns, id, note,
		).StructScan(&w)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return transitionError(ctx, tx, id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id int, note string) (*Withdrawal, error) {
	var w Withdrawal
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE withdrawals
			SET status = 'completed', note = NULLIF($2, ''), processed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'processing'
			RETURNING `+withdrawalColumns, id, note,
		).StructScan(&w)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return transitionError(ctx, tx, id)
			}
			return err
		}

		return r.wallets.DebitLockedTx(ctx, tx, w.UserID, w.AmountCents, w.TransactionCode)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) MarkFailed(ctx context.Context, id int, note string) (*Withdrawal, error) {
	var w Withdrawal
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE withdrawals
			SET status = 'failed', note = NULLIF($2, ''), processed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'processing'
			RETURNING `+withdrawalColumns, id, note,
		).StructScan(&w)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return transitionError(ctx, tx, id)
			}
			return err
		}

		return r.wallets.UnlockTx(ctx, tx, w.UserID, w.AmountCents, w.TransactionCode)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) List(ctx context.Context, status string, limit, offset int) ([]Withdrawal, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM withdrawals
		WHERE ($1 = '' OR status = $1)
	`, status)
	if err != nil {
		return nil, 0, err
	}

	withdrawals := []Withdrawal{}
	err = r.db.SelectContext(ctx, &withdrawals, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

func transitionError(ctx context.Context, tx *sqlx.Tx, id int) error {
	var status string
	err := tx.GetContext(ctx, &status, `SELECT status FROM withdrawals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

func transitionErrorOwned(ctx context.Context, tx *sqlx.Tx, id, userID int) error {
	var status string
	err := tx.GetContext(ctx, &status,
		`SELECT status FROM withdrawals WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}
