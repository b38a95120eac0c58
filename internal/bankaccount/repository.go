package bankaccount

import (
	"context"
	"database/sql"
	"errors"

	"cashbox/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound          = errors.New("bank account not found")
	ErrHasOpenWithdrawal = errors.New("bank account has open withdrawals")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const columns = `id, user_id, bank_name, account_number, account_name, is_default, created_at`

func (r *repository) Create(ctx context.Context, userID int, req CreateRequest) (*BankAccount, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if req.IsDefault {
		_, err = tx.ExecContext(ctx,
			`UPDATE bank_accounts SET is_default = FALSE WHERE user_id = $1`, userID)
		if err != nil {
			return nil, err
		}
	}

	var account BankAccount
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO bank_accounts (user_id, bank_name, account_number, account_name, is_default)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+columns,
		userID, req.BankName, req.AccountNumber, req.AccountName, req.IsDefault,
	).StructScan(&account)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*BankAccount, error) {
	var account BankAccount
	err := r.db.GetContext(ctx, &account,
		`SELECT `+columns+` FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]BankAccount, error) {
	accounts := []BankAccount{}
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT `+columns+`
		 FROM bank_accounts
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) SetDefault(ctx context.Context, userID, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE bank_accounts SET is_default = FALSE WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bank_accounts SET is_default = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *repository) Delete(ctx context.Context, userID, id int) error {
	open, err := db.Exists(ctx, r.db,
		`SELECT EXISTS(
			SELECT 1 FROM withdrawals
			WHERE bank_account_id = $1 AND status IN ('pending', 'processing')
		)`, id)
	if err != nil {
		return err
	}
	if open {
		return ErrHasOpenWithdrawal
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bank_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) OwnedBy(ctx context.Context, id, userID int) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM bank_accounts WHERE id = $1 AND user_id = $2)`,
		id, userID)
}
