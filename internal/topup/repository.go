package topup

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cashbox/internal/db"
	"cashbox/internal/wallet"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound          = errors.New("topup not found")
	ErrInvalidTransition = errors.New("invalid topup transition")
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageInactive   = errors.New("package is not available")
)

type repository struct {
	db      *sqlx.DB
	wallets wallet.TxMutator
}

func NewRepository(database *sqlx.DB, wallets wallet.TxMutator) Repository {
	return &repository{db: database, wallets: wallets}
}

const topupColumns = `id, user_id, order_code, package_id, price_cents, bonus_cents, payment_method, payment_status, created_at, updated_at, completed_at`

func (r *repository) ListPackages(ctx context.Context) ([]Package, error) {
	packages := []Package{}
	err := r.db.SelectContext(ctx, &packages, `
		SELECT id, name, price_cents, bonus_cents, active, created_at
		FROM topup_packages
		WHERE active = TRUE
		ORDER BY price_cents ASC
	`)
	if err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *repository) GetPackage(ctx context.Context, id int) (*Package, error) {
	var pkg Package
	err := r.db.GetContext(ctx, &pkg, `
		SELECT id, name, price_cents, bonus_cents, active, created_at
		FROM topup_packages
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) Create(ctx context.Context, userID int, pkg *Package, paymentMethod, orderCode string) (*Topup, error) {
	var t Topup
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO topups (user_id, order_code, package_id, price_cents, bonus_cents, payment_method, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING `+topupColumns,
		userID, orderCode, pkg.ID, pkg.PriceCents, pkg.BonusCents, paymentMethod,
	).StructScan(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Topup, error) {
	var t Topup
	err := r.db.GetContext(ctx, &t,
		`SELECT `+topupColumns+` FROM topups WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id int) (*Topup, error) {
	var t Topup
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Терминальный статус ставится ровно один раз, поэтому повторный
		// вызов никогда не кредитует кошелёк дважды.
		err := tx.QueryRowxContext(ctx, `
			UPDATE topups
			SET payment_status = 'completed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND payment_status = 'pending'
			RETURNING `+topupColumns, id,
		).StructScan(&t)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return transitionError(ctx, tx, id)
			}
			return err
		}

		return r.wallets.CreditTx(ctx, tx, t.UserID, t.CreditCents(), wallet.EntryTopupCredit, t.OrderCode)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) MarkFailed(ctx context.Context, id int) (*Topup, error) {
	var t Topup
	err := db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE topups
			SET payment_status = 'failed', updated_at = NOW()
			WHERE id = $1 AND payment_status = 'pending'
			RETURNING `+topupColumns, id,
		).StructScan(&t)
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
	return &t, nil
}

func (r *repository) Cancel(ctx context.Context, userID, id int) error {
	return db.RunTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE topups
			SET payment_status = 'cancelled', updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND payment_status = 'pending'
		`, id, userID)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return transitionErrorOwned(ctx, tx, id, userID)
		}
		return nil
	})
}

func (r *repository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE topups
		SET payment_status = 'cancelled', updated_at = NOW()
		WHERE payment_status = 'pending' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *repository) List(ctx context.Context, status string, limit, offset int) ([]Topup, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM topups
		WHERE ($1 = '' OR payment_status = $1)
	`, status)
	if err != nil {
		return nil, 0, err
	}

	topups := []Topup{}
	err = r.db.SelectContext(ctx, &topups, `
		SELECT `+topupColumns+`
		FROM topups
		WHERE ($1 = '' OR payment_status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return topups, total, nil
}

func transitionError(ctx context.Context, tx *sqlx.Tx, id int) error {
	var status string
	err := tx.GetContext(ctx, &status, `SELECT payment_status FROM topups WHERE id = $1`, id)
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
		`SELECT payment_status FROM topups WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}
