package bankaccount

import "context"

type Repository interface {
	Create(ctx context.Context, userID int, req CreateRequest) (*BankAccount, error)
	GetByID(ctx context.Context, id int) (*BankAccount, error)
	ListByUser(ctx context.Context, userID int) ([]BankAccount, error)
	SetDefault(ctx context.Context, userID, id int) error
	Delete(ctx context.Context, userID, id int) error
	OwnedBy(ctx context.Context, id, userID int) (bool, error)
}
