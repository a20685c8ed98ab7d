package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest records a manual ledger entry. Importance is derived
// from the categorization policy when omitted.
type CreateTransactionRequest struct {
	BankAccountID *string         `json:"bank_account_id,omitempty" validate:"omitempty,uuid"`
	Date          time.Time       `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"required,max=500"`
	Merchant      string          `json:"merchant,omitempty" validate:"max=255"`
	Category      string          `json:"category" validate:"required,category"`
	Importance    string          `json:"importance,omitempty" validate:"omitempty,importance"`
	Notes         string          `json:"notes,omitempty" validate:"max=1000"`
}

// TransactionFilters contains filtering options for transaction queries
type TransactionFilters struct {
	Since      string `query:"since"`
	Category   string `query:"category"`
	Importance string `query:"importance"`
	Limit      int    `query:"limit"`
}

// TransactionResponse is the API view of a stored transaction
type TransactionResponse struct {
	ID            string    `json:"id"`
	BankAccountID string    `json:"bank_account_id,omitempty"`
	Date          time.Time `json:"date"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	Merchant      string    `json:"merchant,omitempty"`
	Category      string    `json:"category"`
	Importance    string    `json:"importance"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListTransactionsResponse represents the response for listing transactions
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
}
