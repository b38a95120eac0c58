package wallet

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletRepo struct{ mock.Mock }

func (m *MockWalletRepo) GetOrCreate(ctx context.Context, userID int) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Wallet), args.Error(1)
}

func (m *MockWalletRepo) Balances(ctx context.Context, userID int) (*Balances, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Balances), args.Error(1)
}

func (m *MockWalletRepo) ListTransactions(ctx context.Context, userID int, f HistoryFilter) ([]Transaction, int, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Transaction), args.Int(1), args.Error(2)
}

func (m *MockWalletRepo) ListEntries(ctx context.Context, userID int, limit, offset int) ([]LedgerEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LedgerEntry), args.Error(1)
}

func (m *MockWalletRepo) CreditTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, entryType, code string) error {
	return m.Called(ctx, tx, userID, amountCents, entryType, code).Error(0)
}

func (m *MockWalletRepo) LockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return m.Called(ctx, tx, userID, amountCents, code).Error(0)
}

func (m *MockWalletRepo) UnlockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return m.Called(ctx, tx, userID, amountCents, code).Error(0)
}

func (m *MockWalletRepo) DebitLockedTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	return m.Called(ctx, tx, userID, amountCents, code).Error(0)
}

func TestServiceBalances(t *testing.T) {
	repo := new(MockWalletRepo)
	svc := NewService(repo)
	ctx := context.Background()

	repo.On("Balances", ctx, 7).
		Return(&Balances{CurrentCents: 155000, AvailableCents: 95000, LockedCents: 60000}, nil)

	b, err := svc.Balances(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, b.CurrentCents, b.AvailableCents+b.LockedCents)
}

func TestServiceHistory_FiltersUnknownType(t *testing.T) {
	repo := new(MockWalletRepo)
	svc := NewService(repo)

	txs, total, err := svc.History(context.Background(), 7, HistoryFilter{Type: "bogus"})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, total)
	repo.AssertNotCalled(t, "ListTransactions")
}

func TestServiceHistory_PassesFilter(t *testing.T) {
	repo := new(MockWalletRepo)
	svc := NewService(repo)
	ctx := context.Background()

	f := HistoryFilter{Type: TxTypeTopup, Status: "pending", Page: 2, PageSize: 10}
	repo.On("ListTransactions", ctx, 7, f).Return([]Transaction{{ID: 1}}, 11, nil)

	txs, total, err := svc.History(ctx, 7, f)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 11, total)
	repo.AssertExpectations(t)
}
