package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBankAccountRequest registers a manually tracked account
type CreateBankAccountRequest struct {
	BankName      string          `json:"bank_name" validate:"required,max=255"`
	AccountNumber string          `json:"account_number" validate:"required,max=34"`
	AccountType   string          `json:"account_type,omitempty" validate:"omitempty,oneof=depository credit loan investment other"`
	Balance       decimal.Decimal `json:"balance"`
}

// BankAccountResponse never exposes more than the last four digits of the number
type BankAccountResponse struct {
	ID            string    `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Balance       string    `json:"balance"`
	Linked        bool      `json:"linked"`
	CreatedAt     time.Time `json:"created_at"`
}
