package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BankAccountTypeDepository = "depository"
	BankAccountTypeCredit     = "credit"
	BankAccountTypeLoan       = "loan"
	BankAccountTypeInvestment = "investment"
	BankAccountTypeOther      = "other"
)

var ErrInvalidBankAccountType = errors.New("invalid bank account type")

// BankAccount is an account held at an external institution, either linked
// through the bank data provider or entered by hand.
type BankAccount struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	LinkedItemID      *uuid.UUID      `gorm:"type:uuid;index" json:"linked_item_id,omitempty"`
	ProviderAccountID string          `gorm:"type:varchar(100);index" json:"provider_account_id,omitempty"`
	BankName          string          `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber     string          `gorm:"type:varchar(34)" json:"account_number"`
	AccountType       string          `gorm:"type:varchar(20);not null;default:'depository'" json:"account_type"`
	Balance           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (a *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AccountType == "" {
		a.AccountType = BankAccountTypeDepository
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	if !IsValidBankAccountType(a.AccountType) {
		return ErrInvalidBankAccountType
	}
	return nil
}

// IsValidBankAccountType reports whether t is one of the provider account types
func IsValidBankAccountType(t string) bool {
	switch t {
	case BankAccountTypeDepository, BankAccountTypeCredit, BankAccountTypeLoan,
		BankAccountTypeInvestment, BankAccountTypeOther:
		return true
	}
	return false
}

// MaskedNumber returns the account number with all but the last four digits hidden
func (a *BankAccount) MaskedNumber() string {
	if len(a.AccountNumber) <= 4 {
		return a.AccountNumber
	}
	masked := make([]byte, len(a.AccountNumber))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(masked)-4:], a.AccountNumber[len(a.AccountNumber)-4:])
	return string(masked)
}

func (a *BankAccount) TableName() string {
	return "bank_accounts"
}
