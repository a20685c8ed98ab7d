package services

import (
	"context"
	"errors"
	"testing"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankAccountService_CreateAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository_mocks.NewMockBankAccountRepositoryInterface(ctrl)
	auditRepo := repository_mocks.NewMockAuditLogRepositoryInterface(ctrl)
	metrics := newRecordingMetrics()
	service := NewBankAccountService(repo, NewAuditService(auditRepo), metrics, discardLogger())

	userID := uuid.New()
	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *models.BankAccount) error {
			assert.Equal(t, userID, a.UserID)
			assert.Equal(t, models.BankAccountTypeDepository, a.AccountType)
			assert.Equal(t, "Credit Union", a.BankName)
			a.ID = uuid.New()
			return nil
		})
	auditRepo.EXPECT().
		Create(gomock.Any()).
		DoAndReturn(func(l *models.AuditLog) error {
			assert.Equal(t, models.AuditActionBankAccountCreated, l.Action)
			return nil
		})

	account, err := service.CreateAccount(context.Background(), userID, &dto.CreateBankAccountRequest{
		BankName:      " Credit Union ",
		AccountNumber: "123456789",
		Balance:       decimal.RequireFromString("1500.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "*****6789", account.MaskedNumber())
}

func TestBankAccountService_CreateAccount_InvalidType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewBankAccountService(
		repository_mocks.NewMockBankAccountRepositoryInterface(ctrl),
		NewAuditService(repository_mocks.NewMockAuditLogRepositoryInterface(ctrl)),
		newRecordingMetrics(),
		discardLogger(),
	)

	_, err := service.CreateAccount(context.Background(), uuid.New(), &dto.CreateBankAccountRequest{
		BankName:      "Bank",
		AccountNumber: "1",
		AccountType:   "crypto",
	})
	assert.ErrorIs(t, err, models.ErrInvalidBankAccountType)
}

func TestBankAccountService_ListAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository_mocks.NewMockBankAccountRepositoryInterface(ctrl)
	service := NewBankAccountService(repo, NewAuditService(repository_mocks.NewMockAuditLogRepositoryInterface(ctrl)), newRecordingMetrics(), discardLogger())

	userID := uuid.New()
	repo.EXPECT().ListByUser(gomock.Any(), userID).Return(nil, errors.New("db down"))

	_, err := service.ListAccounts(context.Background(), userID)
	assert.ErrorContains(t, err, "failed to list bank accounts")
}
