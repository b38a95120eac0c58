package withdrawal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cashbox/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) Request(ctx context.Context, userID int, req CreateRequest) (*Withdrawal, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) Cancel(ctx context.Context, userID, id int) (*Withdrawal, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ListOwn(ctx context.Context, userID, page, pageSize int) ([]Withdrawal, int, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Withdrawal), args.Int(1), args.Error(2)
}

func (m *MockWithdrawalService) Approve(ctx context.Context, id int, note string) (*Withdrawal, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) Complete(ctx context.Context, id int, note string) (*Withdrawal, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) Fail(ctx context.Context, id int, note string) (*Withdrawal, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) List(ctx context.Context, status string, page, pageSize int) ([]Withdrawal, int, error) {
	args := m.Called(ctx, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Withdrawal), args.Int(1), args.Error(2)
}

func setupWithdrawalRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewHandlerWithService(svc)

	authed := router.Group("/", func(c *gin.Context) {
		c.Set("user_id", 7)
		c.Next()
	})
	authed.POST("/withdrawals", h.Create)
	authed.POST("/withdrawals/:id/cancel", h.Cancel)
	authed.POST("/admin/withdrawals/:id/approve", h.Approve)

	return router
}

func TestCreateWithdrawalHandler(t *testing.T) {
	svc := new(MockWithdrawalService)
	note := "rent payment"
	svc.On("Request", mock.Anything, 7, CreateRequest{BankAccountID: 3, AmountCents: 60000, Note: note}).
		Return(&Withdrawal{ID: 1, UserID: 7, TransactionCode: "WD-AB12CD34", AmountCents: 60000, FeeCents: 2000, Status: StatusPending, Note: &note}, nil)

	router := setupWithdrawalRouter(svc)

	body := bytes.NewBufferString(`{"bank_account_id": 3, "amount_cents": 60000, "note": "rent payment"}`)
	req := httptest.NewRequest("POST", "/withdrawals", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var result Withdrawal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "WD-AB12CD34", result.TransactionCode)
	assert.Equal(t, StatusPending, result.Status)
	require.NotNil(t, result.Note)
	assert.Equal(t, note, *result.Note)
}

func TestCreateWithdrawalHandler_BelowMinimum(t *testing.T) {
	svc := new(MockWithdrawalService)
	svc.On("Request", mock.Anything, 7, mock.Anything).Return(nil, ErrBelowMinimum)

	router := setupWithdrawalRouter(svc)

	body := bytes.NewBufferString(`{"bank_account_id": 3, "amount_cents": 40000}`)
	req := httptest.NewRequest("POST", "/withdrawals", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateWithdrawalHandler_InsufficientFunds(t *testing.T) {
	svc := new(MockWithdrawalService)
	svc.On("Request", mock.Anything, 7, mock.Anything).Return(nil, wallet.ErrInsufficientFunds)

	router := setupWithdrawalRouter(svc)

	body := bytes.NewBufferString(`{"bank_account_id": 3, "amount_cents": 200000}`)
	req := httptest.NewRequest("POST", "/withdrawals", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient available balance", resp["error"])
}

func TestCancelWithdrawalHandler_Conflict(t *testing.T) {
	svc := new(MockWithdrawalService)
	svc.On("Cancel", mock.Anything, 7, 5).Return(nil, ErrInvalidTransition)

	router := setupWithdrawalRouter(svc)

	req := httptest.NewRequest("POST", "/withdrawals/5/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestApproveWithdrawalHandler_WithNote(t *testing.T) {
	svc := new(MockWithdrawalService)
	svc.On("Approve", mock.Anything, 5, "picked up").
		Return(&Withdrawal{ID: 5, UserID: 7, Status: StatusProcessing}, nil)

	router := setupWithdrawalRouter(svc)

	body := bytes.NewBufferString(`{"note": "picked up"}`)
	req := httptest.NewRequest("POST", "/admin/withdrawals/5/approve", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
