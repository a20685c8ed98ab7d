package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

var ErrInvalidBankAccountID = errors.New("invalid bank account id")

type transactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	bankAccountRepo repositories.BankAccountRepositoryInterface
	policy          CategorizationPolicyInterface
	auditService    AuditServiceInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

func NewTransactionService(
	transactionRepo repositories.TransactionRepositoryInterface,
	bankAccountRepo repositories.BankAccountRepositoryInterface,
	policy CategorizationPolicyInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &transactionService{
		transactionRepo: transactionRepo,
		bankAccountRepo: bankAccountRepo,
		policy:          policy,
		auditService:    auditService,
		metrics:         metrics,
		logger:          logger,
	}
}

// CreateTransaction stores a manual ledger entry. When the request leaves
// importance empty it is derived from the category and amount.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	var importance models.Importance
	if req.Importance != "" {
		importance, err = models.ParseImportance(req.Importance)
		if err != nil {
			return nil, err
		}
	} else {
		importance = s.policy.Importance(category, req.Amount.InexactFloat64())
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Date:        req.Date,
		Amount:      req.Amount,
		Description: req.Description,
		Merchant:    req.Merchant,
		Category:    category,
		Importance:  importance,
		Notes:       req.Notes,
	}

	if req.BankAccountID != nil && *req.BankAccountID != "" {
		accountID, err := s.ownedBankAccount(ctx, userID, *req.BankAccountID)
		if err != nil {
			return nil, err
		}
		transaction.BankAccountID = &accountID
	}

	if err := s.transactionRepo.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.metrics.IncrementCounter("ledger.write", map[string]string{"entity": "transaction", "operation": "create"})
	if err := s.auditService.LogTransactionCreated(userID, transaction.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to audit transaction creation", "error", err, "transaction_id", transaction.ID)
	}

	return transaction, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, userID uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
	transactions, err := s.transactionRepo.ListForUser(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction owned by userID. Admins may delete
// any transaction. Rows owned by someone else are reported as not found.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID uuid.UUID, isAdmin bool) error {
	transaction, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if transaction.UserID != userID && !isAdmin {
		return repositories.ErrTransactionNotFound
	}

	if err := s.transactionRepo.Delete(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.metrics.IncrementCounter("ledger.write", map[string]string{"entity": "transaction", "operation": "delete"})
	if err := s.auditService.LogTransactionDeleted(transaction.UserID, transactionID); err != nil {
		s.logger.WarnContext(ctx, "failed to audit transaction deletion", "error", err, "transaction_id", transactionID)
	}

	return nil
}

func (s *transactionService) ownedBankAccount(ctx context.Context, userID uuid.UUID, raw string) (uuid.UUID, error) {
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidBankAccountID
	}

	account, err := s.bankAccountRepo.GetByID(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	if account.UserID != userID {
		return uuid.Nil, repositories.ErrBankAccountNotFound
	}
	return account.ID, nil
}
