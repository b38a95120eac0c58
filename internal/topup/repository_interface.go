package topup

import (
	"context"
	"time"
)

type Repository interface {
	ListPackages(ctx context.Context) ([]Package, error)
	GetPackage(ctx context.Context, id int) (*Package, error)

	Create(ctx context.Context, userID int, pkg *Package, paymentMethod, orderCode string) (*Topup, error)
	GetByID(ctx context.Context, id int) (*Topup, error)

	// MarkCompleted transitions pending -> completed and credits the wallet
	// with price + bonus in the same database transaction.
	MarkCompleted(ctx context.Context, id int) (*Topup, error)
	MarkFailed(ctx context.Context, id int) (*Topup, error)
	// Cancel is the user-initiated exit; it is scoped to the owner.
	Cancel(ctx context.Context, userID, id int) error

	// ExpirePending cancels pending top-ups created before the cutoff and
	// returns how many were swept.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)

	List(ctx context.Context, status string, limit, offset int) ([]Topup, int, error)
}
