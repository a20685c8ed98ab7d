package repositories

import (
	"context"
	"time"

	"spendwise/internal/models"

	"github.com/google/uuid"
)

// TransactionRepositoryInterface is the transaction store. Reads return a
// point-in-time snapshot ordered by date, then insertion time.
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	CreateBatch(ctx context.Context, transactions []models.Transaction) (created int, skipped int, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MonthlyTotals(ctx context.Context, userID *uuid.UUID) ([]models.MonthlyTotal, error)
}

// BankAccountRepositoryInterface defines the contract for bank account persistence
type BankAccountRepositoryInterface interface {
	Create(ctx context.Context, account *models.BankAccount) error
	UpsertByProviderID(ctx context.Context, account *models.BankAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error)
}

// ExpenseRepositoryInterface defines the contract for manually recorded expenses
type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	MonthlyTotals(ctx context.Context, userID *uuid.UUID) ([]models.MonthlyTotal, error)
}

// LinkedItemRepositoryInterface defines the contract for bank provider connections
type LinkedItemRepositoryInterface interface {
	Create(ctx context.Context, item *models.LinkedItem) error
	GetByProviderItemID(ctx context.Context, providerItemID string) (*models.LinkedItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.LinkedItem, error)
	MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Update(user *models.User) error
	UpdateFailedLoginAttempts(user *models.User) error
	RecordLogin(userID uuid.UUID, at time.Time) error
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(duration time.Duration) (int64, error)
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	GetByTokenHash(tokenHash string) (*models.RefreshToken, error)
	Revoke(tokenID uuid.UUID) error
	RevokeAllForUser(userID uuid.UUID) error
	DeleteExpired() (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for blacklisted token repository operations
type BlacklistedTokenRepositoryInterface interface {
	Create(token *models.BlacklistedToken) error
	IsBlacklisted(jti string) (bool, error)
	DeleteExpired() (int64, error)
}
