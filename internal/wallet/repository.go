package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrLockedUnderflow   = errors.New("locked balance underflow")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const walletColumns = `id, user_id, balance_cents, locked_cents, currency, created_at, updated_at`

func (r *repository) GetOrCreate(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+walletColumns,
		userID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (r *repository) Balances(ctx context.Context, userID int) (*Balances, error) {
	w, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return w.Balances(), nil
}

// lockForUpdate fetches the wallet row under FOR UPDATE, creating it when
// the user has never touched their wallet before.
func lockForUpdate(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(w)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING `+walletColumns,
		userID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// apply performs one balance mutation plus its ledger entry. All four
// public mutators reduce to a (balanceDelta, lockedDelta) pair.
func (r *repository) apply(ctx context.Context, tx *sqlx.Tx, userID int, balanceDelta, lockedDelta int64, entryType, code string, amountCents int64) error {
	w, err := lockForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}

	newBalance := w.BalanceCents + balanceDelta
	newLocked := w.LockedCents + lockedDelta

	if newLocked < 0 {
		return ErrLockedUnderflow
	}
	if newBalance < 0 || newLocked > newBalance {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, locked_cents = $2, updated_at = NOW()
		 WHERE id = $3`,
		newBalance, newLocked, w.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_entries (wallet_id, entry_type, code, amount_cents, balance_after, locked_after)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, entryType, code, amountCents, newBalance, newLocked,
	)
	return err
}

func (r *repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, entryType, code string) error {
	return r.apply(ctx, tx, userID, amountCents, 0, entryType, code, amountCents)
}

func (r *repository) LockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return r.apply(ctx, tx, userID, 0, amountCents, EntryWithdrawalLock, code, amountCents)
}

func (r *repository) UnlockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return r.apply(ctx, tx, userID, 0, -amountCents, EntryWithdrawalUnlock, code, amountCents)
}

func (r *repository) DebitLockedTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return r.apply(ctx, tx, userID, -amountCents, -amountCents, EntryWithdrawalDebit, code, amountCents)
}

const historyBase = `
	SELECT id, 'topup' AS tx_type, order_code AS code, price_cents AS amount_cents, bonus_cents, payment_status AS status, created_at
	FROM topups
	WHERE user_id = :user_id
	UNION ALL
	SELECT id, 'withdrawal' AS tx_type, transaction_code AS code, amount_cents, 0 AS bonus_cents, status, created_at
	FROM withdrawals
	WHERE user_id = :user_id
`

func (r *repository) ListTransactions(ctx context.Context, userID int, f HistoryFilter) ([]Transaction, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}

	arg := map[string]interface{}{
		"user_id": userID,
		"tx_type": f.Type,
		"status":  f.Status,
		"limit":   f.PageSize,
		"offset":  (f.Page - 1) * f.PageSize,
	}

	filter := `
		WHERE (:tx_type = '' OR t.tx_type = :tx_type)
		  AND (:status = '' OR t.status = :status)
	`

	countQuery, countArgs, err := sqlx.Named(
		`SELECT COUNT(*) FROM (`+historyBase+`) t `+filter, arg)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...)
	if err != nil {
		return nil, 0, err
	}

	listQuery, listArgs, err := sqlx.Named(
		`SELECT t.* FROM (`+historyBase+`) t `+filter+`
		 ORDER BY t.created_at DESC
		 LIMIT :limit OFFSET :offset`, arg)
	if err != nil {
		return nil, 0, err
	}

	txs := []Transaction{}
	err = r.db.SelectContext(ctx, &txs, r.db.Rebind(listQuery), listArgs...)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *repository) ListEntries(ctx context.Context, userID int, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []LedgerEntry{}, nil
		}
		return nil, err
	}

	var entries []LedgerEntry
	err = r.db.SelectContext(ctx, &entries, `
		SELECT id, wallet_id, entry_type, code, amount_cents, balance_after, locked_after, created_at
		FROM wallet_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
