package topup

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo enforces the top-up lifecycle: a pending intent moves to
// exactly one terminal state and stays there.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && to.Terminal()
}

// Package is a purchasable top-up bundle from the pricing catalog.
type Package struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	BonusCents int64     `db:"bonus_cents" json:"bonus_cents"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Topup struct {
	ID            int        `db:"id" json:"id"`
	UserID        int        `db:"user_id" json:"user_id"`
	OrderCode     string     `db:"order_code" json:"order_code"`
	PackageID     int        `db:"package_id" json:"package_id"`
	PriceCents    int64      `db:"price_cents" json:"price_cents"`
	BonusCents    int64      `db:"bonus_cents" json:"bonus_cents"`
	PaymentMethod string     `db:"payment_method" json:"payment_method"`
	PaymentStatus Status     `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// CreditCents is what a completed top-up adds to the wallet.
func (t *Topup) CreditCents() int64 {
	return t.PriceCents + t.BonusCents
}

type CreateRequest struct {
	PackageID     int    `json:"package_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=bank_transfer virtual_account qris"`
}

type CreateResponse struct {
	Topup        Topup  `json:"topup"`
	Instructions string `json:"instructions"`
}
