package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

type bankAccountService struct {
	bankAccountRepo repositories.BankAccountRepositoryInterface
	auditService    AuditServiceInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

func NewBankAccountService(
	bankAccountRepo repositories.BankAccountRepositoryInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) BankAccountServiceInterface {
	return &bankAccountService{
		bankAccountRepo: bankAccountRepo,
		auditService:    auditService,
		metrics:         metrics,
		logger:          logger,
	}
}

// CreateAccount registers a manually tracked account. Linked accounts are
// created by the import flow instead.
func (s *bankAccountService) CreateAccount(ctx context.Context, userID uuid.UUID, req *dto.CreateBankAccountRequest) (*models.BankAccount, error) {
	accountType := strings.ToLower(strings.TrimSpace(req.AccountType))
	if accountType == "" {
		accountType = models.BankAccountTypeDepository
	}
	if !models.IsValidBankAccountType(accountType) {
		return nil, models.ErrInvalidBankAccountType
	}

	account := &models.BankAccount{
		UserID:        userID,
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountType:   accountType,
		Balance:       req.Balance,
	}
	if err := s.bankAccountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create bank account: %w", err)
	}

	s.metrics.IncrementCounter("ledger.write", map[string]string{"entity": "bank_account", "operation": "create"})
	if err := s.auditService.LogBankAccountCreated(userID, account.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to audit bank account creation", "error", err, "account_id", account.ID)
	}

	return account, nil
}

func (s *bankAccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error) {
	accounts, err := s.bankAccountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	return accounts, nil
}
