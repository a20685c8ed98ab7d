package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNoLinkedItems      = errors.New("no linked bank items")
	ErrInvalidPublicToken = errors.New("public token is required")
)

// ImportResult summarizes one import run across all of a user's linked items
type ImportResult struct {
	Accounts int `json:"accounts"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type BankSyncConfig struct {
	LookbackDays int
	Now          func() time.Time
}

type bankSyncService struct {
	plaid           PlaidClientInterface
	linkedItemRepo  repositories.LinkedItemRepositoryInterface
	bankAccountRepo repositories.BankAccountRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	policy          CategorizationPolicyInterface
	auditService    AuditServiceInterface
	auditLogger     AuditLoggerInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
	config          BankSyncConfig
}

// NewBankSyncService wires the import pipeline. plaid may be nil when the
// provider is not configured; every operation then fails with ErrPlaidNotConfigured.
func NewBankSyncService(
	plaid PlaidClientInterface,
	linkedItemRepo repositories.LinkedItemRepositoryInterface,
	bankAccountRepo repositories.BankAccountRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	policy CategorizationPolicyInterface,
	auditService AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
	cfg BankSyncConfig,
) BankSyncServiceInterface {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	return &bankSyncService{
		plaid:           plaid,
		linkedItemRepo:  linkedItemRepo,
		bankAccountRepo: bankAccountRepo,
		transactionRepo: transactionRepo,
		policy:          policy,
		auditService:    auditService,
		auditLogger:     auditLogger,
		metrics:         metrics,
		logger:          logger,
		config:          cfg,
	}
}

// LinkItem exchanges a public token from the link flow and stores the
// resulting item for later imports.
func (s *bankSyncService) LinkItem(ctx context.Context, userID uuid.UUID, publicToken, institutionName string) (*models.LinkedItem, error) {
	if s.plaid == nil {
		return nil, ErrPlaidNotConfigured
	}
	if publicToken == "" {
		return nil, ErrInvalidPublicToken
	}

	exchange, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	item := &models.LinkedItem{
		UserID:          userID,
		ProviderItemID:  exchange.ItemID,
		AccessToken:     exchange.AccessToken,
		InstitutionName: institutionName,
	}
	if err := s.linkedItemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store linked item: %w", err)
	}

	if err := s.auditService.LogBankLinked(userID, item.ProviderItemID); err != nil {
		// Non-critical: the item is stored either way
		s.logger.WarnContext(ctx, "failed to audit bank link", "error", err, "user_id", userID)
	}

	return item, nil
}

// ImportTransactions pulls the lookback window for every linked item of the
// user, upserts the provider accounts and stores new transactions. Rows whose
// provider id is already stored are counted as skipped.
func (s *bankSyncService) ImportTransactions(ctx context.Context, userID uuid.UUID) (*ImportResult, error) {
	if s.plaid == nil {
		return nil, ErrPlaidNotConfigured
	}

	started := time.Now()

	items, err := s.linkedItemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoLinkedItems
	}

	s.auditLogger.LogImportStarted(ctx, userID, len(items))

	now := s.config.Now()
	start := now.AddDate(0, 0, -s.config.LookbackDays)

	result := &ImportResult{}
	for i := range items {
		item := &items[i]
		if err := s.importItem(ctx, userID, item, start, now, result); err != nil {
			s.auditLogger.LogImportFailed(ctx, userID, item.ProviderItemID, err.Error())
			s.metrics.IncrementCounter("import.failed", map[string]string{"status": "failed"})
			return nil, err
		}
	}

	if err := s.auditService.LogTransactionsImported(userID, result.Imported, result.Skipped); err != nil {
		s.logger.WarnContext(ctx, "failed to audit transaction import", "error", err, "user_id", userID)
	}

	elapsed := time.Since(started)
	s.metrics.IncrementCounter("import.completed", map[string]string{"status": "success"})
	s.metrics.RecordProcessingTime("import", elapsed)
	s.metrics.RecordGauge("import.transactions", float64(result.Imported), map[string]string{"outcome": "imported"})
	s.metrics.RecordGauge("import.transactions", float64(result.Skipped), map[string]string{"outcome": "skipped"})
	s.auditLogger.LogImportCompleted(ctx, userID, result.Accounts, result.Imported, result.Skipped, elapsed.Milliseconds())

	return result, nil
}

func (s *bankSyncService) importItem(ctx context.Context, userID uuid.UUID, item *models.LinkedItem, start, end time.Time, result *ImportResult) error {
	resp, err := s.plaid.GetTransactions(ctx, item.AccessToken, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions for item %s: %w", item.ProviderItemID, err)
	}

	accountIDs := make(map[string]uuid.UUID, len(resp.Accounts))
	for _, pa := range resp.Accounts {
		balance := decimal.Zero
		if pa.Balances.Current != nil {
			balance = decimal.NewFromFloat(*pa.Balances.Current)
		}

		account := &models.BankAccount{
			UserID:            userID,
			LinkedItemID:      &item.ID,
			ProviderAccountID: pa.AccountID,
			BankName:          accountDisplayName(item, pa.Name),
			AccountNumber:     pa.Mask,
			AccountType:       normalizeAccountType(pa.Type),
			Balance:           balance,
		}
		if err := s.bankAccountRepo.UpsertByProviderID(ctx, account); err != nil {
			return fmt.Errorf("failed to store account %s: %w", pa.AccountID, err)
		}
		accountIDs[pa.AccountID] = account.ID
		result.Accounts++
	}

	batch := make([]models.Transaction, 0, len(resp.Transactions))
	for _, pt := range resp.Transactions {
		if pt.Pending {
			result.Skipped++
			continue
		}

		date, err := time.Parse(plaidDateLayout, pt.Date)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping provider transaction with bad date",
				"transaction_id", pt.TransactionID, "date", pt.Date)
			result.Skipped++
			continue
		}

		category := s.policy.Categorize(pt.Category)
		label := category.String()
		if len(pt.Category) > 0 {
			label = pt.Category[0]
		}

		description := pt.Name
		if description == "" {
			description = pt.MerchantName
		}
		if description == "" {
			description = "Imported transaction"
		}

		t := models.Transaction{
			UserID:                userID,
			Date:                  date,
			Amount:                decimal.NewFromFloat(pt.Amount),
			Description:           description,
			Merchant:              pt.MerchantName,
			Category:              category,
			Importance:            s.policy.Importance(category, pt.Amount),
			Notes:                 "Imported from " + label,
			ProviderTransactionID: pt.TransactionID,
		}
		if id, ok := accountIDs[pt.AccountID]; ok {
			t.BankAccountID = &id
		}
		batch = append(batch, t)
	}

	created, skipped, err := s.transactionRepo.CreateBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to store transactions for item %s: %w", item.ProviderItemID, err)
	}
	result.Imported += created
	result.Skipped += skipped

	if err := s.linkedItemRepo.MarkSynced(ctx, item.ID, end); err != nil {
		return fmt.Errorf("failed to mark item %s synced: %w", item.ProviderItemID, err)
	}

	return nil
}

func accountDisplayName(item *models.LinkedItem, name string) string {
	if name != "" {
		return name
	}
	if item.InstitutionName != "" {
		return item.InstitutionName
	}
	return "Linked account"
}

func normalizeAccountType(t string) string {
	if models.IsValidBankAccountType(t) {
		return t
	}
	return models.BankAccountTypeOther
}
