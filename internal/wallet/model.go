package wallet

import "time"

// Wallet — кошелёк пользователя. Stored state is the current balance plus
// the slice of it reserved for pending withdrawals; the available balance is
// always derived, so the current = available + locked identity cannot drift.
type Wallet struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	LockedCents  int64     `db:"locked_cents" json:"locked_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (w *Wallet) AvailableCents() int64 {
	return w.BalanceCents - w.LockedCents
}

// Balances is the read model returned to callers.
type Balances struct {
	CurrentCents   int64 `json:"current_cents"`
	AvailableCents int64 `json:"available_cents"`
	LockedCents    int64 `json:"locked_cents"`
}

func (w *Wallet) Balances() *Balances {
	return &Balances{
		CurrentCents:   w.BalanceCents,
		AvailableCents: w.AvailableCents(),
		LockedCents:    w.LockedCents,
	}
}

// LedgerEntry is one append-only row in wallet_entries, written inside the
// same transaction as every balance mutation.
type LedgerEntry struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	EntryType    string    `db:"entry_type" json:"entry_type"`
	Code         string    `db:"code" json:"code"`
	AmountCents  int64     `db:"amount_cents" json:"amount_cents"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	LockedAfter  int64     `db:"locked_after" json:"locked_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	EntryTopupCredit      = "topup_credit"
	EntryWithdrawalLock   = "withdrawal_lock"
	EntryWithdrawalUnlock = "withdrawal_unlock"
	EntryWithdrawalDebit  = "withdrawal_debit"
)

// Transaction is a row of the unified history view over top-ups and
// withdrawals, pending records included.
type Transaction struct {
	ID          int       `db:"id" json:"id"`
	TxType      string    `db:"tx_type" json:"type"`
	Code        string    `db:"code" json:"code"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	BonusCents  int64     `db:"bonus_cents" json:"bonus_cents"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	TxTypeTopup      = "topup"
	TxTypeWithdrawal = "withdrawal"
)

// HistoryFilter narrows the transaction history query.
type HistoryFilter struct {
	Type     string
	Status   string
	Page     int
	PageSize int
}
