package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidTransactionDate = errors.New("transaction date is required")
	ErrMissingDescription     = errors.New("transaction description is required")
)

// Transaction is a single ledger entry owned by a user. Imported rows carry the
// provider transaction id so re-imports are idempotent.
type Transaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	BankAccountID         *uuid.UUID      `gorm:"type:uuid;index" json:"bank_account_id,omitempty"`
	Date                  time.Time       `gorm:"not null;index" json:"date"`
	Amount                decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description           string          `gorm:"type:text;not null" json:"description"`
	Merchant              string          `gorm:"type:varchar(255)" json:"merchant,omitempty"`
	Category              Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	Importance            Importance      `gorm:"type:varchar(20);not null;index" json:"importance"`
	Notes                 string          `gorm:"type:text" json:"notes,omitempty"`
	ProviderTransactionID string          `gorm:"type:varchar(100);index" json:"provider_transaction_id,omitempty"`
	CreatedAt             time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updated_at"`

	BankAccount *BankAccount `gorm:"foreignKey:BankAccountID;constraint:OnDelete:SET NULL" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

// Validate checks the invariants every stored transaction must satisfy
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidTransactionDate
	}
	if t.Description == "" {
		return ErrMissingDescription
	}
	if !t.Category.Valid() {
		return ErrUnknownCategory
	}
	if !t.Importance.Valid() {
		return ErrUnknownImportance
	}
	return nil
}

// AmountFloat returns the amount as a float64 for analytics math
func (t *Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

func (t *Transaction) TableName() string {
	return "transactions"
}
