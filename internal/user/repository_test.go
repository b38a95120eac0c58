package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestCreateAndFindUser(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	cols := []string{"id", "name", "email", "password_hash", "role", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Alice", "a@example.com", "hash", "user").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Alice", "a@example.com", "hash", "user", now))

	u, err := repo.Create(ctx, "Alice", "a@example.com", "hash", "user")
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Alice", "a@example.com", "hash", "user", now))

	fu, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", fu.Name)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrUserNotFound)
}
