package withdrawal

import "context"

type Repository interface {
	// Create records a pending withdrawal and locks the requested amount in
	// the wallet within one database transaction. An empty note is stored
	// as NULL.
	Create(ctx context.Context, userID, bankAccountID int, amountCents, feeCents int64, code, note string) (*Withdrawal, error)
	GetByID(ctx context.Context, id int) (*Withdrawal, error)
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]Withdrawal, int, error)

	// Cancel is user-initiated and only valid while pending. Unlocks the
	// reserved funds.
	Cancel(ctx context.Context, userID, id int) (*Withdrawal, error)
	// MarkProcessing moves pending -> processing; funds stay locked.
	MarkProcessing(ctx context.Context, id int, note string) (*Withdrawal, error)
	// MarkCompleted moves processing -> completed and debits the locked
	// funds for good.
	MarkCompleted(ctx context.Context, id int, note string) (*Withdrawal, error)
	// MarkFailed moves processing -> failed and returns the locked funds to
	// the available balance.
	MarkFailed(ctx context.Context, id int, note string) (*Withdrawal, error)

	List(ctx context.Context, status string, limit, offset int) ([]Withdrawal, int, error)
}
