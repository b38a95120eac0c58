package withdrawal

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cashbox/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// stubMutator records wallet mutations so the expectations below only
// describe the withdrawals table.
type stubMutator struct {
	locked   int64
	unlocked int64
	debited  int64
	lockErr  error
}

func (s *stubMutator) CreditTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, entryType, code string) error {
	return nil
}

func (s *stubMutator) LockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	if s.lockErr != nil {
		return s.lockErr
	}
	s.locked += amountCents
	return nil
}

func (s *stubMutator) UnlockTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	s.unlocked += amountCents
	return nil
}

func (s *stubMutator) DebitLockedTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, code string) error {
	s.debited += amountCents
	return nil
}

func setupWithdrawalMock(t *testing.T) (Repository, *stubMutator, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	mutator := &stubMutator{}
	repo := NewRepository(sqlxDB, mutator)

	closer := func() { sqlxDB.Close() }
	return repo, mutator, mock, closer
}

func withdrawalRow(id int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "transaction_code", "bank_account_id", "amount_cents",
		"fee_cents", "status", "note", "created_at", "updated_at", "processed_at",
	}).AddRow(id, 7, "WD-AB12CD34", 3, 60000, 2000, status, nil, now, now, nil)
}

func TestCreate_LocksFundsFirst(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO withdrawals")).
		WithArgs(7, "WD-AB12CD34", 3, int64(60000), int64(2000), "").
		WillReturnRows(withdrawalRow(1, "pending"))
	mock.ExpectCommit()

	w, err := repo.Create(context.Background(), 7, 3, 60000, 2000, "WD-AB12CD34", "")
	require.NoError(t, err)
	require.Equal(t, StatusPending, w.Status)
	require.Equal(t, int64(60000), mutator.locked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_StoresRequesterNote(t *testing.T) {
	repo, _, mock, close := setupWithdrawalMock(t)
	defer close()

	now := time.Now()
	note := "rent payment"
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "transaction_code", "bank_account_id", "amount_cents",
		"fee_cents", "status", "note", "created_at", "updated_at", "processed_at",
	}).AddRow(1, 7, "WD-AB12CD34", 3, 60000, 2000, "pending", note, now, now, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO withdrawals")).
		WithArgs(7, "WD-AB12CD34", 3, int64(60000), int64(2000), note).
		WillReturnRows(rows)
	mock.ExpectCommit()

	w, err := repo.Create(context.Background(), 7, 3, 60000, 2000, "WD-AB12CD34", note)
	require.NoError(t, err)
	require.NotNil(t, w.Note)
	require.Equal(t, note, *w.Note)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InsufficientFundsRollsBack(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mutator.lockErr = wallet.ErrInsufficientFunds

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 7, 3, 200000, 2000, "WD-AB12CD34", "")
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_UnlocksFunds(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'cancelled'")).
		WithArgs(5, 7).
		WillReturnRows(withdrawalRow(5, "cancelled"))
	mock.ExpectCommit()

	w, err := repo.Cancel(context.Background(), 7, 5)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, w.Status)
	require.Equal(t, int64(60000), mutator.unlocked)
}

func TestCancel_NotPending(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'cancelled'")).
		WithArgs(5, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
		WithArgs(5, 7).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("processing"))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 7, 5)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Zero(t, mutator.unlocked)
}

func TestMarkProcessing_KeepsFundsLocked(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'processing'")).
		WithArgs(5, "picked up").
		WillReturnRows(withdrawalRow(5, "processing"))
	mock.ExpectCommit()

	w, err := repo.MarkProcessing(context.Background(), 5, "picked up")
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, w.Status)
	require.Zero(t, mutator.unlocked)
	require.Zero(t, mutator.debited)
}

func TestMarkCompleted_DebitsLockedFunds(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'completed'")).
		WithArgs(5, "").
		WillReturnRows(withdrawalRow(5, "completed"))
	mock.ExpectCommit()

	w, err := repo.MarkCompleted(context.Background(), 5, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, w.Status)
	require.Equal(t, int64(60000), mutator.debited)
}

func TestMarkCompleted_FromPendingRejected(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'completed'")).
		WithArgs(5, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM withdrawals WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectRollback()

	_, err := repo.MarkCompleted(context.Background(), 5, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Zero(t, mutator.debited)
}

func TestMarkFailed_UnlocksFunds(t *testing.T) {
	repo, mutator, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'failed'")).
		WithArgs(5, "bank rejected").
		WillReturnRows(withdrawalRow(5, "failed"))
	mock.ExpectCommit()

	w, err := repo.MarkFailed(context.Background(), 5, "bank rejected")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, w.Status)
	require.Equal(t, int64(60000), mutator.unlocked)
	require.Zero(t, mutator.debited)
}

func TestMarkProcessing_NotFound(t *testing.T) {
	repo, _, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("status = 'processing'")).
		WithArgs(99, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM withdrawals WHERE id = $1")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := repo.MarkProcessing(context.Background(), 99, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListByUser(t *testing.T) {
	repo, _, mock, close := setupWithdrawalMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM withdrawals WHERE user_id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM withdrawals")).
		WithArgs(7, 20, 0).
		WillReturnRows(withdrawalRow(5, "pending"))

	withdrawals, total, err := repo.ListByUser(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, withdrawals, 1)
}
