package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRequest is used for both create and full update
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"positive_amount"`
	Category    string          `json:"category" validate:"required,category"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Date        *time.Time      `json:"date,omitempty"`
}

type ExpenseResponse struct {
	ID          string    `json:"id"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}
