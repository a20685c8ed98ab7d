package repositories

import (
	"context"
	"errors"
	"fmt"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBankAccountNotFound = errors.New("bank account not found")
)

type bankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *gorm.DB) BankAccountRepositoryInterface {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	if account == nil {
		return errors.New("bank account cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

// UpsertByProviderID refreshes name, type and balance of an already linked
// account, or creates it. On return account.ID holds the stored row's id.
func (r *bankAccountRepository) UpsertByProviderID(ctx context.Context, account *models.BankAccount) error {
	if account == nil || account.ProviderAccountID == "" {
		return errors.New("bank account requires a provider account id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BankAccount
		err := tx.Where("user_id = ? AND provider_account_id = ?", account.UserID, account.ProviderAccountID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(account).Error; err != nil {
				return fmt.Errorf("failed to create bank account: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up bank account: %w", err)
		}

		updates := map[string]interface{}{
			"bank_name":      account.BankName,
			"account_number": account.AccountNumber,
			"account_type":   account.AccountType,
			"balance":        account.Balance,
			"linked_item_id": account.LinkedItemID,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update bank account: %w", err)
		}

		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
		return nil
	})
}

func (r *bankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}

func (r *bankAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	return accounts, nil
}
