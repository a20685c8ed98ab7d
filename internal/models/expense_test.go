package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExpense_Validate(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		wantErr error
	}{
		{
			name: "valid expense",
			expense: Expense{
				Amount:   decimal.NewFromFloat(12.30),
				Category: CategoryTransport,
				Date:     time.Now(),
			},
		},
		{
			name: "zero amount",
			expense: Expense{
				Amount:   decimal.Zero,
				Category: CategoryTransport,
				Date:     time.Now(),
			},
			wantErr: ErrInvalidExpenseAmount,
		},
		{
			name: "negative amount",
			expense: Expense{
				Amount:   decimal.NewFromInt(-5),
				Category: CategoryTransport,
				Date:     time.Now(),
			},
			wantErr: ErrInvalidExpenseAmount,
		},
		{
			name: "unknown category",
			expense: Expense{
				Amount:   decimal.NewFromInt(5),
				Category: Category("dining"),
				Date:     time.Now(),
			},
			wantErr: ErrUnknownCategory,
		},
		{
			name: "missing date",
			expense: Expense{
				Amount:   decimal.NewFromInt(5),
				Category: CategoryMisc,
			},
			wantErr: ErrInvalidTransactionDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBankAccount_MaskedNumber(t *testing.T) {
	assert.Equal(t, "******1234", (&BankAccount{AccountNumber: "9876541234"}).MaskedNumber())
	assert.Equal(t, "0000", (&BankAccount{AccountNumber: "0000"}).MaskedNumber())
}

func TestBankAccount_BeforeCreate(t *testing.T) {
	account := BankAccount{BankName: "Plaid Checking"}
	assert.NoError(t, account.BeforeCreate(nil))
	assert.Equal(t, BankAccountTypeDepository, account.AccountType)

	invalid := BankAccount{BankName: "Mystery", AccountType: "brokerage"}
	assert.ErrorIs(t, invalid.BeforeCreate(nil), ErrInvalidBankAccountType)
}
