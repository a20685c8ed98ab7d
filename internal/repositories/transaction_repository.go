package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

const createBatchSize = 100

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{db: db}
}

// Create inserts a single transaction
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch inserts transactions in one database transaction. Rows whose
// provider transaction id is already stored for the same user are skipped.
func (r *transactionRepository) CreateBatch(ctx context.Context, transactions []models.Transaction) (int, int, error) {
	if len(transactions) == 0 {
		return 0, 0, nil
	}

	var created, skipped int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen, err := existingProviderIDs(tx, transactions)
		if err != nil {
			return err
		}

		pending := make([]models.Transaction, 0, len(transactions))
		for _, t := range transactions {
			if t.ProviderTransactionID != "" {
				key := t.UserID.String() + "/" + t.ProviderTransactionID
				if seen[key] {
					skipped++
					continue
				}
				seen[key] = true
			}
			pending = append(pending, t)
		}

		if len(pending) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(pending, createBatchSize).Error; err != nil {
			return fmt.Errorf("failed to create transactions: %w", err)
		}
		created = len(pending)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return created, skipped, nil
}

func existingProviderIDs(tx *gorm.DB, transactions []models.Transaction) (map[string]bool, error) {
	byUser := make(map[uuid.UUID][]string)
	for _, t := range transactions {
		if t.ProviderTransactionID != "" {
			byUser[t.UserID] = append(byUser[t.UserID], t.ProviderTransactionID)
		}
	}

	seen := make(map[string]bool)
	for userID, ids := range byUser {
		var existing []string
		err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND provider_transaction_id IN ?", userID, ids).
			Pluck("provider_transaction_id", &existing).Error
		if err != nil {
			return nil, fmt.Errorf("failed to look up imported transactions: %w", err)
		}
		for _, id := range existing {
			seen[userID.String()+"/"+id] = true
		}
	}
	return seen, nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// ListForUser returns the user's transactions matching query, oldest first
func (r *transactionRepository) ListForUser(ctx context.Context, userID uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if query.Since != nil {
		db = db.Where("date >= ?", *query.Since)
	}
	if len(query.Importances) > 0 {
		db = db.Where("importance IN ?", query.Importances)
	}
	if query.Category != nil {
		db = db.Where("category = ?", *query.Category)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var transactions []models.Transaction
	if err := db.Order("date ASC, created_at ASC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Delete removes a transaction
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// MonthlyTotals sums transaction amounts per calendar month number. A nil
// userID aggregates across all users.
func (r *transactionRepository) MonthlyTotals(ctx context.Context, userID *uuid.UUID) ([]models.MonthlyTotal, error) {
	db := r.db.WithContext(ctx).Model(&models.Transaction{}).Select("date", "amount")
	if userID != nil {
		db = db.Where("user_id = ?", *userID)
	}

	var rows []datedAmount
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load transaction totals: %w", err)
	}
	return foldMonthlyTotals(rows), nil
}

type datedAmount struct {
	Date   time.Time
	Amount decimal.Decimal
}

// foldMonthlyTotals groups rows by month number, returning months in ascending order
func foldMonthlyTotals(rows []datedAmount) []models.MonthlyTotal {
	var sums [13]decimal.Decimal
	var present [13]bool
	for _, row := range rows {
		m := int(row.Date.Month())
		sums[m] = sums[m].Add(row.Amount)
		present[m] = true
	}

	totals := make([]models.MonthlyTotal, 0, 12)
	for m := 1; m <= 12; m++ {
		if present[m] {
			totals = append(totals, models.MonthlyTotal{Month: m, Total: sums[m].InexactFloat64()})
		}
	}
	return totals
}
