package withdrawal

import (
	"context"
	"errors"
	"strings"

	"cashbox/internal/bankaccount"
	"cashbox/internal/logger"
	"cashbox/internal/metrics"
	"cashbox/internal/user"

	"github.com/google/uuid"
)

var (
	ErrBelowMinimum       = errors.New("amount is below the withdrawal minimum")
	ErrInvalidBankAccount = errors.New("bank account does not belong to user")
)

// Notifier delivers user-facing messages about withdrawal status changes.
type Notifier interface {
	SendWithdrawalStatus(ctx context.Context, email, name, code string, status string, amountCents int64) error
}

type Service interface {
	// Request validates the amount and bank account, then creates a pending
	// withdrawal with the funds locked.
	Request(ctx context.Context, userID int, req CreateRequest) (*Withdrawal, error)
	Cancel(ctx context.Context, userID, id int) (*Withdrawal, error)
	ListOwn(ctx context.Context, userID, page, pageSize int) ([]Withdrawal, int, error)

	Approve(ctx context.Context, id int, note string) (*Withdrawal, error)
	Complete(ctx context.Context, id int, note string) (*Withdrawal, error)
	Fail(ctx context.Context, id int, note string) (*Withdrawal, error)
	List(ctx context.Context, status string, page, pageSize int) ([]Withdrawal, int, error)
}

type service struct {
	repo             Repository
	accounts         bankaccount.Repository
	users            user.Repository
	notifier         Notifier
	minWithdrawal    int64
	feeCentsPerDraft int64
}

func NewService(repo Repository, accounts bankaccount.Repository, users user.Repository, notifier Notifier, minWithdrawalCents, feeCents int64) Service {
	return &service{
		repo:             repo,
		accounts:         accounts,
		users:            users,
		notifier:         notifier,
		minWithdrawal:    minWithdrawalCents,
		feeCentsPerDraft: feeCents,
	}
}

func (s *service) Request(ctx context.Context, userID int, req CreateRequest) (*Withdrawal, error) {
	if req.AmountCents < s.minWithdrawal {
		return nil, ErrBelowMinimum
	}

	owned, err := s.accounts.OwnedBy(ctx, req.BankAccountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrInvalidBankAccount
	}

	w, err := s.repo.Create(ctx, userID, req.BankAccountID, req.AmountCents, s.feeCentsPerDraft, newTransactionCode(), req.Note)
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsRequestedTotal.Inc()
	logger.Info("withdrawal requested",
		"withdrawal_id", w.ID,
		"user_id", userID,
		"transaction_code", w.TransactionCode,
		"amount_cents", w.AmountCents,
	)

	return w, nil
}

func (s *service) Cancel(ctx context.Context, userID, id int) (*Withdrawal, error) {
	w, err := s.repo.Cancel(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalTransition(string(StatusCancelled))
	logger.Info("withdrawal cancelled", "withdrawal_id", w.ID, "user_id", userID)
	return w, nil
}

func (s *service) ListOwn(ctx context.Context, userID, page, pageSize int) ([]Withdrawal, int, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *service) Approve(ctx context.Context, id int, note string) (*Withdrawal, error) {
	w, err := s.repo.MarkProcessing(ctx, id, note)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalTransition(string(StatusProcessing))
	logger.Info("withdrawal approved", "withdrawal_id", w.ID, "user_id", w.UserID)
	s.notify(ctx, w)
	return w, nil
}

func (s *service) Complete(ctx context.Context, id int, note string) (*Withdrawal, error) {
	w, err := s.repo.MarkCompleted(ctx, id, note)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalTransition(string(StatusCompleted))
	metrics.WalletDebitedCentsTotal.Add(float64(w.AmountCents))
	logger.Info("withdrawal completed",
		"withdrawal_id", w.ID,
		"user_id", w.UserID,
		"net_cents", w.NetCents(),
	)
	s.notify(ctx, w)
	return w, nil
}

func (s *service) Fail(ctx context.Context, id int, note string) (*Withdrawal, error) {
	w, err := s.repo.MarkFailed(ctx, id, note)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalTransition(string(StatusFailed))
	logger.Info("withdrawal failed", "withdrawal_id", w.ID, "user_id", w.UserID)
	s.notify(ctx, w)
	return w, nil
}

func (s *service) List(ctx context.Context, status string, page, pageSize int) ([]Withdrawal, int, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, status, pageSize, (page-1)*pageSize)
}

func (s *service) notify(ctx context.Context, w *Withdrawal) {
	u, err := s.users.FindByID(ctx, w.UserID)
	if err != nil {
		logger.WithError(err).Warn("failed to load user for withdrawal notification", "withdrawal_id", w.ID)
		return
	}
	if err := s.notifier.SendWithdrawalStatus(ctx, u.Email, u.Name, w.TransactionCode, string(w.Status), w.AmountCents); err != nil {
		logger.WithError(err).Warn("failed to queue withdrawal notification", "withdrawal_id", w.ID)
	}
}

func newTransactionCode() string {
	return "WD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
