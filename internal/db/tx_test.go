package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestRunTx_CommitsOnSuccess(t *testing.T) {
	sqlxDB, mock := setupTxMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := RunTx(context.Background(), sqlxDB, func(tx *sqlx.Tx) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTx_RollsBackOnError(t *testing.T) {
	sqlxDB, mock := setupTxMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := RunTx(context.Background(), sqlxDB, func(tx *sqlx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunTx_RetriesSerializationFailure(t *testing.T) {
	sqlxDB, mock := setupTxMock(t)

	serErr := &pq.Error{Code: "40001"}

	// Три попытки, все проваливаются
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err := RunTx(context.Background(), sqlxDB, func(tx *sqlx.Tx) error {
		calls++
		return serErr
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrTxConflict)
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40001"}))
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40P01"}))
	assert.False(t, IsSerializationFailure(&pq.Error{Code: "23505"}))
	assert.False(t, IsSerializationFailure(errors.New("random")))
	assert.False(t, IsSerializationFailure(nil))
}
