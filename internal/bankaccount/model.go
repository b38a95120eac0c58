package bankaccount

import "time"

type BankAccount struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	AccountName   string    `db:"account_name" json:"account_name"`
	IsDefault     bool      `db:"is_default" json:"is_default"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	BankName      string `json:"bank_name" binding:"required,min=2,max=100"`
	AccountNumber string `json:"account_number" binding:"required,min=4,max=34"`
	AccountName   string `json:"account_name" binding:"required,min=2,max=100"`
	IsDefault     bool   `json:"is_default"`
}
