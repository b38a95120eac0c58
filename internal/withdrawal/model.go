package withdrawal

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the full lifecycle. Pending requests either enter
// processing or get cancelled; once an operator picks one up the user can
// no longer cancel, and the payout either completes or fails.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the withdrawal holds no locked funds anymore.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

type Withdrawal struct {
	ID              int        `db:"id" json:"id"`
	UserID          int        `db:"user_id" json:"user_id"`
	TransactionCode string     `db:"transaction_code" json:"transaction_code"`
	BankAccountID   int        `db:"bank_account_id" json:"bank_account_id"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents        int64      `db:"fee_cents" json:"fee_cents"`
	Status          Status     `db:"status" json:"status"`
	Note            *string    `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// NetCents is the amount actually paid out to the bank account. The fee is
// informational; the wallet is debited for the full requested amount.
func (w *Withdrawal) NetCents() int64 {
	return w.AmountCents - w.FeeCents
}

type CreateRequest struct {
	BankAccountID int    `json:"bank_account_id" binding:"required"`
	AmountCents   int64  `json:"amount_cents" binding:"required,gt=0"`
	Note          string `json:"note" binding:"max=500"`
}

type UpdateStatusRequest struct {
	Note string `json:"note" binding:"max=500"`
}
