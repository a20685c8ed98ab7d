package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidExpenseAmount = errors.New("amount must be positive")

// Expense is a manually recorded spend entry.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category    Category        `gorm:"type:varchar(20);not null" json:"category"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	return e.Validate()
}

func (e *Expense) BeforeUpdate(tx *gorm.DB) error {
	return e.Validate()
}

func (e *Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidExpenseAmount
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidTransactionDate
	}
	return nil
}

func (e *Expense) TableName() string {
	return "expenses"
}
