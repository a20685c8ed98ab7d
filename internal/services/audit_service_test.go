package services

import (
	"errors"
	"testing"

	"spendwise/internal/models"
	"spendwise/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditFixture(t *testing.T) (AuditServiceInterface, *repository_mocks.MockAuditLogRepositoryInterface) {
	ctrl := gomock.NewController(t)
	repo := repository_mocks.NewMockAuditLogRepositoryInterface(ctrl)
	return NewAuditService(repo), repo
}

func TestValidateActivityType(t *testing.T) {
	for action := range auditActions {
		assert.NoError(t, ValidateActivityType(action), action)
	}
	for _, action := range []string{"", "LOGIN", "invalid_action", "expense_archived"} {
		assert.Error(t, ValidateActivityType(action), action)
	}
}

func TestAuditService_CreateAuditLog(t *testing.T) {
	userID := uuid.New()

	t.Run("persists known actions", func(t *testing.T) {
		svc, repo := newAuditFixture(t)
		entry := &models.AuditLog{UserID: &userID, Action: models.AuditActionLogin, Resource: "user"}
		repo.EXPECT().Create(entry).Return(nil)

		assert.NoError(t, svc.CreateAuditLog(entry))
	})

	t.Run("nil entry", func(t *testing.T) {
		svc, _ := newAuditFixture(t)
		assert.ErrorIs(t, svc.CreateAuditLog(nil), ErrInvalidAuditLog)
	})

	t.Run("unknown action never reaches storage", func(t *testing.T) {
		svc, _ := newAuditFixture(t)
		err := svc.CreateAuditLog(&models.AuditLog{UserID: &userID, Action: "wire_transfer"})
		assert.ErrorContains(t, err, "wire_transfer")
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		svc, repo := newAuditFixture(t)
		cause := errors.New("disk full")
		repo.EXPECT().Create(gomock.Any()).Return(cause)

		err := svc.CreateAuditLog(&models.AuditLog{Action: models.AuditActionLogout})
		assert.ErrorIs(t, err, cause)
		assert.ErrorContains(t, err, "failed to create audit log")
	})
}

func TestAuditService_GetUserActivity(t *testing.T) {
	svc, repo := newAuditFixture(t)
	userID := uuid.New()
	page := []*models.AuditLog{
		{ID: uuid.New(), UserID: &userID, Action: models.AuditActionExpenseCreated},
		{ID: uuid.New(), UserID: &userID, Action: models.AuditActionLogin},
	}
	repo.EXPECT().GetByUserID(userID, 20, 10).Return(page, int64(22), nil)

	got, total, err := svc.GetUserActivity(userID, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(22), total)
	assert.Equal(t, page, got)

	_, _, err = svc.GetUserActivity(uuid.Nil, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestAuditService_LedgerEvents(t *testing.T) {
	userID, resourceID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		log        func(AuditServiceInterface) error
		action     string
		resource   string
		resourceID string
	}{
		{
			name:       "bank linked",
			log:        func(a AuditServiceInterface) error { return a.LogBankLinked(userID, "item-123") },
			action:     models.AuditActionBankLinked,
			resource:   "linked_item",
			resourceID: "item-123",
		},
		{
			name:       "bank account created",
			log:        func(a AuditServiceInterface) error { return a.LogBankAccountCreated(userID, resourceID) },
			action:     models.AuditActionBankAccountCreated,
			resource:   "bank_account",
			resourceID: resourceID.String(),
		},
		{
			name:       "transaction created",
			log:        func(a AuditServiceInterface) error { return a.LogTransactionCreated(userID, resourceID) },
			action:     models.AuditActionTransactionCreated,
			resource:   "transaction",
			resourceID: resourceID.String(),
		},
		{
			name:       "transaction deleted",
			log:        func(a AuditServiceInterface) error { return a.LogTransactionDeleted(userID, resourceID) },
			action:     models.AuditActionTransactionDeleted,
			resource:   "transaction",
			resourceID: resourceID.String(),
		},
		{
			name: "expense updated",
			log: func(a AuditServiceInterface) error {
				return a.LogExpenseChange(models.AuditActionExpenseUpdated, userID, resourceID)
			},
			action:     models.AuditActionExpenseUpdated,
			resource:   "expense",
			resourceID: resourceID.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newAuditFixture(t)

			var written *models.AuditLog
			repo.EXPECT().Create(gomock.Any()).DoAndReturn(func(entry *models.AuditLog) error {
				written = entry
				return nil
			})

			require.NoError(t, tt.log(svc))
			require.NotNil(t, written)
			assert.Equal(t, userID, *written.UserID)
			assert.Equal(t, tt.action, written.Action)
			assert.Equal(t, tt.resource, written.Resource)
			assert.Equal(t, tt.resourceID, written.ResourceID)
		})
	}
}

func TestAuditService_LogTransactionsImported(t *testing.T) {
	svc, repo := newAuditFixture(t)
	repo.EXPECT().Create(gomock.Any()).DoAndReturn(func(entry *models.AuditLog) error {
		assert.Equal(t, models.AuditActionTransactionsImported, entry.Action)
		assert.Equal(t, 12, entry.GetMetadata("imported", 0))
		assert.Equal(t, 3, entry.GetMetadata("skipped", 0))
		return nil
	})

	assert.NoError(t, svc.LogTransactionsImported(uuid.New(), 12, 3))
}

func TestAuditService_LogExpenseChangeRejectsOtherActions(t *testing.T) {
	svc, _ := newAuditFixture(t)
	err := svc.LogExpenseChange(models.AuditActionTransactionCreated, uuid.New(), uuid.New())
	assert.ErrorContains(t, err, "invalid expense activity type")
}
