package topup

import (
	"context"
	"strings"
	"testing"
	"time"

	"cashbox/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTopupRepo struct {
	mock.Mock
}

func (m *MockTopupRepo) ListPackages(ctx context.Context) ([]Package, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Package), args.Error(1)
}

func (m *MockTopupRepo) GetPackage(ctx context.Context, id int) (*Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Package), args.Error(1)
}

func (m *MockTopupRepo) Create(ctx context.Context, userID int, pkg *Package, paymentMethod, orderCode string) (*Topup, error) {
	args := m.Called(ctx, userID, pkg, paymentMethod, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Topup), args.Error(1)
}

func (m *MockTopupRepo) GetByID(ctx context.Context, id int) (*Topup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Topup), args.Error(1)
}

func (m *MockTopupRepo) MarkCompleted(ctx context.Context, id int) (*Topup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Topup), args.Error(1)
}

func (m *MockTopupRepo) MarkFailed(ctx context.Context, id int) (*Topup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Topup), args.Error(1)
}

func (m *MockTopupRepo) Cancel(ctx context.Context, userID, id int) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTopupRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTopupRepo) List(ctx context.Context, status string, limit, offset int) ([]Topup, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Topup), args.Int(1), args.Error(2)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendTopupCompleted(ctx context.Context, email, name, orderCode string, amountCents int64) error {
	args := m.Called(ctx, email, name, orderCode, amountCents)
	return args.Error(0)
}

func newTestService(repo Repository, users user.Repository, notifier Notifier) Service {
	return NewService(repo, users, notifier)
}

func TestCreateIntentSuccess(t *testing.T) {
	repo := new(MockTopupRepo)
	users := new(MockUserRepo)
	notifier := new(MockNotifier)

	pkg := &Package{ID: 2, Name: "Standard", PriceCents: 100000, BonusCents: 5000, Active: true}
	repo.On("GetPackage", mock.Anything, 2).Return(pkg, nil)
	repo.On("Create", mock.Anything, 7, pkg, "bank_transfer", mock.MatchedBy(func(code string) bool {
		return strings.HasPrefix(code, "TP-") && len(code) == 11
	})).Return(&Topup{ID: 1, UserID: 7, OrderCode: "TP-AB12CD34", PriceCents: 100000, BonusCents: 5000, PaymentStatus: StatusPending}, nil)

	svc := newTestService(repo, users, notifier)
	result, err := svc.CreateIntent(context.Background(), 7, CreateRequest{PackageID: 2, PaymentMethod: "bank_transfer"})

	assert.NoError(t, err)
	assert.Equal(t, StatusPending, result.PaymentStatus)
	assert.Equal(t, int64(105000), result.CreditCents())
	repo.AssertExpectations(t)
}

func TestCreateIntentInactivePackage(t *testing.T) {
	repo := new(MockTopupRepo)
	repo.On("GetPackage", mock.Anything, 3).Return(&Package{ID: 3, Active: false}, nil)

	svc := newTestService(repo, new(MockUserRepo), new(MockNotifier))
	result, err := svc.CreateIntent(context.Background(), 7, CreateRequest{PackageID: 3, PaymentMethod: "qris"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPackageInactive)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateIntentPackageNotFound(t *testing.T) {
	repo := new(MockTopupRepo)
	repo.On("GetPackage", mock.Anything, 99).Return(nil, ErrPackageNotFound)

	svc := newTestService(repo, new(MockUserRepo), new(MockNotifier))
	_, err := svc.CreateIntent(context.Background(), 7, CreateRequest{PackageID: 99, PaymentMethod: "qris"})

	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestCompleteCreditsAndNotifies(t *testing.T) {
	repo := new(MockTopupRepo)
	users := new(MockUserRepo)
	notifier := new(MockNotifier)

	completed := &Topup{ID: 5, UserID: 7, OrderCode: "TP-AB12CD34", PriceCents: 100000, BonusCents: 5000, PaymentStatus: StatusCompleted}
	repo.On("MarkCompleted", mock.Anything, 5).Return(completed, nil)
	users.On("FindByID", mock.Anything, 7).Return(&user.User{ID: 7, Name: "Ivan", Email: "ivan@example.com"}, nil)
	notifier.On("SendTopupCompleted", mock.Anything, "ivan@example.com", "Ivan", "TP-AB12CD34", int64(105000)).Return(nil)

	svc := newTestService(repo, users, notifier)
	result, err := svc.Complete(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.PaymentStatus)
	notifier.AssertExpectations(t)
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	// Повторное подтверждение не должно ни кредитовать, ни уведомлять.
	repo := new(MockTopupRepo)
	users := new(MockUserRepo)
	notifier := new(MockNotifier)

	repo.On("MarkCompleted", mock.Anything, 5).Return(nil, ErrInvalidTransition)

	svc := newTestService(repo, users, notifier)
	_, err := svc.Complete(context.Background(), 5)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	users.AssertNotCalled(t, "FindByID")
	notifier.AssertNotCalled(t, "SendTopupCompleted")
}

func TestCompleteNotificationFailureIsNonFatal(t *testing.T) {
	repo := new(MockTopupRepo)
	users := new(MockUserRepo)
	notifier := new(MockNotifier)

	completed := &Topup{ID: 5, UserID: 7, OrderCode: "TP-AB12CD34", PriceCents: 50000, PaymentStatus: StatusCompleted}
	repo.On("MarkCompleted", mock.Anything, 5).Return(completed, nil)
	users.On("FindByID", mock.Anything, 7).Return(&user.User{ID: 7, Email: "ivan@example.com"}, nil)
	notifier.On("SendTopupCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	svc := newTestService(repo, users, notifier)
	result, err := svc.Complete(context.Background(), 5)

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestCancelNotPending(t *testing.T) {
	repo := new(MockTopupRepo)
	repo.On("Cancel", mock.Anything, 7, 5).Return(ErrInvalidTransition)

	svc := newTestService(repo, new(MockUserRepo), new(MockNotifier))
	err := svc.Cancel(context.Background(), 7, 5)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFailSuccess(t *testing.T) {
	repo := new(MockTopupRepo)
	failed := &Topup{ID: 5, UserID: 7, PaymentStatus: StatusFailed}
	repo.On("MarkFailed", mock.Anything, 5).Return(failed, nil)

	svc := newTestService(repo, new(MockUserRepo), new(MockNotifier))
	result, err := svc.Fail(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, result.PaymentStatus)
}

func TestListNormalizesPage(t *testing.T) {
	repo := new(MockTopupRepo)
	repo.On("List", mock.Anything, "", 20, 0).Return([]Topup{}, 0, nil)

	svc := newTestService(repo, new(MockUserRepo), new(MockNotifier))
	_, _, err := svc.List(context.Background(), "", 0, 20)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
