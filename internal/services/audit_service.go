package services

import (
	"errors"
	"fmt"

	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidAuditLog = errors.New("invalid audit log")
)

var auditActions = map[string]struct{}{
	models.AuditActionLogin:                {},
	models.AuditActionLogout:               {},
	models.AuditActionRegister:             {},
	models.AuditActionFailedLogin:          {},
	models.AuditActionAccountLocked:        {},
	models.AuditActionTokenRefresh:         {},
	models.AuditActionBankLinked:           {},
	models.AuditActionBankAccountCreated:   {},
	models.AuditActionTransactionsImported: {},
	models.AuditActionTransactionCreated:   {},
	models.AuditActionTransactionDeleted:   {},
	models.AuditActionExpenseCreated:       {},
	models.AuditActionExpenseUpdated:       {},
	models.AuditActionExpenseDeleted:       {},
}

// ValidateActivityType rejects actions outside the audit vocabulary
func ValidateActivityType(action string) error {
	if _, ok := auditActions[action]; !ok {
		return fmt.Errorf("invalid activity type: %s", action)
	}
	return nil
}

// AuditService persists ledger mutations to the audit_logs table.
// Request-scoped events go through AuditLogger instead.
type AuditService struct {
	repo repositories.AuditLogRepositoryInterface
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface) AuditServiceInterface {
	return &AuditService{repo: repo}
}

func (s *AuditService) CreateAuditLog(entry *models.AuditLog) error {
	if entry == nil {
		return ErrInvalidAuditLog
	}
	if err := ValidateActivityType(entry.Action); err != nil {
		return err
	}
	if err := s.repo.Create(entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// GetUserActivity returns a page of a user's audit trail, newest first
func (s *AuditService) GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrInvalidUserID
	}
	return s.repo.GetByUserID(userID, offset, limit)
}

// on builds an entry attributed to userID and touching one resource
func on(userID uuid.UUID, action, resource, resourceID string) *models.AuditLog {
	return &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
	}
}

func (s *AuditService) LogBankLinked(userID uuid.UUID, itemID string) error {
	return s.CreateAuditLog(on(userID, models.AuditActionBankLinked, "linked_item", itemID))
}

func (s *AuditService) LogBankAccountCreated(userID, accountID uuid.UUID) error {
	return s.CreateAuditLog(on(userID, models.AuditActionBankAccountCreated, "bank_account", accountID.String()))
}

// LogTransactionsImported records the outcome of one provider import run
func (s *AuditService) LogTransactionsImported(userID uuid.UUID, imported, skipped int) error {
	entry := on(userID, models.AuditActionTransactionsImported, "transaction", "")
	entry.SetMetadata("imported", imported)
	entry.SetMetadata("skipped", skipped)
	return s.CreateAuditLog(entry)
}

func (s *AuditService) LogTransactionCreated(userID, transactionID uuid.UUID) error {
	return s.CreateAuditLog(on(userID, models.AuditActionTransactionCreated, "transaction", transactionID.String()))
}

func (s *AuditService) LogTransactionDeleted(userID, transactionID uuid.UUID) error {
	return s.CreateAuditLog(on(userID, models.AuditActionTransactionDeleted, "transaction", transactionID.String()))
}

// LogExpenseChange records a create, update or delete of a manual expense
func (s *AuditService) LogExpenseChange(action string, userID, expenseID uuid.UUID) error {
	switch action {
	case models.AuditActionExpenseCreated, models.AuditActionExpenseUpdated, models.AuditActionExpenseDeleted:
		return s.CreateAuditLog(on(userID, action, "expense", expenseID.String()))
	}
	return fmt.Errorf("invalid expense activity type: %s", action)
}
