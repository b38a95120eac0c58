package topup

import (
	"context"
	"strings"

	"cashbox/internal/logger"
	"cashbox/internal/metrics"
	"cashbox/internal/user"

	"github.com/google/uuid"
)

// Notifier delivers user-facing messages about top-up outcomes.
type Notifier interface {
	SendTopupCompleted(ctx context.Context, email, name, orderCode string, amountCents int64) error
}

type Service interface {
	Packages(ctx context.Context) ([]Package, error)
	// CreateIntent reserves an order code and records a pending top-up.
	// The wallet is untouched until the payment is confirmed.
	CreateIntent(ctx context.Context, userID int, req CreateRequest) (*Topup, error)
	Cancel(ctx context.Context, userID, topupID int) error
	// Complete is invoked by the payment confirmation (gateway callback or
	// operator). Credits price + bonus exactly once.
	Complete(ctx context.Context, topupID int) (*Topup, error)
	Fail(ctx context.Context, topupID int) (*Topup, error)
	List(ctx context.Context, status string, page, pageSize int) ([]Topup, int, error)
}

type service struct {
	repo     Repository
	users    user.Repository
	notifier Notifier
}

func NewService(repo Repository, users user.Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		users:    users,
		notifier: notifier,
	}
}

func (s *service) Packages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx)
}

func (s *service) CreateIntent(ctx context.Context, userID int, req CreateRequest) (*Topup, error) {
	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, ErrPackageInactive
	}

	t, err := s.repo.Create(ctx, userID, pkg, req.PaymentMethod, newOrderCode())
	if err != nil {
		return nil, err
	}

	metrics.TopupsCreatedTotal.Inc()
	logger.Info("topup intent created",
		"topup_id", t.ID,
		"user_id", userID,
		"order_code", t.OrderCode,
		"price_cents", t.PriceCents,
	)

	return t, nil
}

func (s *service) Cancel(ctx context.Context, userID, topupID int) error {
	if err := s.repo.Cancel(ctx, userID, topupID); err != nil {
		return err
	}

	metrics.RecordTopupTransition(string(StatusCancelled))
	logger.Info("topup cancelled", "topup_id", topupID, "user_id", userID)
	return nil
}

func (s *service) Complete(ctx context.Context, topupID int) (*Topup, error) {
	t, err := s.repo.MarkCompleted(ctx, topupID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTopupTransition(string(StatusCompleted))
	metrics.WalletCreditedCentsTotal.Add(float64(t.CreditCents()))
	logger.Info("topup completed",
		"topup_id", t.ID,
		"user_id", t.UserID,
		"credited_cents", t.CreditCents(),
	)

	if u, err := s.users.FindByID(ctx, t.UserID); err == nil {
		if err := s.notifier.SendTopupCompleted(ctx, u.Email, u.Name, t.OrderCode, t.CreditCents()); err != nil {
			logger.WithError(err).Warn("failed to queue topup notification", "topup_id", t.ID)
		}
	}

	return t, nil
}

func (s *service) Fail(ctx context.Context, topupID int) (*Topup, error) {
	t, err := s.repo.MarkFailed(ctx, topupID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTopupTransition(string(StatusFailed))
	logger.Info("topup failed", "topup_id", t.ID, "user_id", t.UserID)
	return t, nil
}

func (s *service) List(ctx context.Context, status string, page, pageSize int) ([]Topup, int, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, status, pageSize, (page-1)*pageSize)
}

// newOrderCode builds the human-shown code correlating the bank transfer
// with its ledger record, e.g. TP-9F3A61C2.
func newOrderCode() string {
	return "TP-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
