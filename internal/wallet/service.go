package wallet

import (
	"context"
)

type Service interface {
	// Balances returns the current/available/locked view, provisioning a
	// zero wallet on first access.
	Balances(ctx context.Context, userID int) (*Balances, error)
	History(ctx context.Context, userID int, f HistoryFilter) ([]Transaction, int, error)
	Entries(ctx context.Context, userID int, limit, offset int) ([]LedgerEntry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Balances(ctx context.Context, userID int) (*Balances, error) {
	return s.repo.Balances(ctx, userID)
}

func (s *service) History(ctx context.Context, userID int, f HistoryFilter) ([]Transaction, int, error) {
	if f.Type != "" && f.Type != TxTypeTopup && f.Type != TxTypeWithdrawal {
		return []Transaction{}, 0, nil
	}
	return s.repo.ListTransactions(ctx, userID, f)
}

func (s *service) Entries(ctx context.Context, userID int, limit, offset int) ([]LedgerEntry, error) {
	return s.repo.ListEntries(ctx, userID, limit, offset)
}
