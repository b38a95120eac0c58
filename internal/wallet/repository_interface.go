package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TxMutator is the set of balance mutations other packages run inside their
// own database transactions. Every call locks the wallet row, so concurrent
// mutations against one account serialize.
type TxMutator interface {
	// CreditTx adds amountCents to the current (and thus available) balance.
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, entryType, code string) error
	// LockTx reserves amountCents of the available balance for a pending
	// withdrawal. Fails with ErrInsufficientFunds when available < amount.
	LockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error
	// UnlockTx releases a previous reservation back to available.
	UnlockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error
	// DebitLockedTx removes amountCents from both the reservation and the
	// current balance; the funds leave the wallet for good.
	DebitLockedTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error
}

type Repository interface {
	TxMutator

	GetOrCreate(ctx context.Context, userID int) (*Wallet, error)
	Balances(ctx context.Context, userID int) (*Balances, error)
	ListTransactions(ctx context.Context, userID int, f HistoryFilter) ([]Transaction, int, error)
	ListEntries(ctx context.Context, userID int, limit, offset int) ([]LedgerEntry, error)
}
