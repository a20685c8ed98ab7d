package services

import (
	"context"
	"time"

	"spendwise/internal/dto"
	"spendwise/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnalysisServiceInterface computes the derived spending views of one user's
// ledger. Every call reads a fresh snapshot; nothing is cached.
type AnalysisServiceInterface interface {
	SpendingPatterns(ctx context.Context, userID uuid.UUID) (models.CategoryAggregate, error)
	WastefulTransactions(ctx context.Context, userID uuid.UUID) ([]models.WastefulRecord, error)
	SavingsOpportunities(ctx context.Context, userID uuid.UUID) ([]models.SavingsOpportunity, error)
	MonthlySummary(ctx context.Context, userID uuid.UUID) (*models.MonthlySummary, error)
}

// AmountClustererInterface partitions amounts into k groups and returns the
// group index of every input, in input order. Callers must not pass an empty slice.
type AmountClustererInterface interface {
	Cluster(amounts []float64, k int, seed int64) ([]int, error)
}

// CategorizationPolicyInterface maps raw provider labels onto the closed enums
type CategorizationPolicyInterface interface {
	Categorize(labels []string) models.Category
	Importance(category models.Category, amount float64) models.Importance
}

// PlaidClientInterface is the read-only subset of the Plaid API used for imports
type PlaidClientInterface interface {
	ExchangePublicToken(ctx context.Context, publicToken string) (*dto.PlaidExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) ([]dto.PlaidAccount, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*dto.PlaidTransactionsResponse, error)
}

type BankSyncServiceInterface interface {
	LinkItem(ctx context.Context, userID uuid.UUID, publicToken, institutionName string) (*models.LinkedItem, error)
	ImportTransactions(ctx context.Context, userID uuid.UUID) (*ImportResult, error)
}

// ForecastServiceInterface owns the monthly expense regression model
type ForecastServiceInterface interface {
	Train(ctx context.Context) (*ForecastModel, error)
	Save(path string) error
	Load(path string) error
	Predict(month int) (float64, error)
	Loaded() bool
}

type BankAccountServiceInterface interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, req *dto.CreateBankAccountRequest) (*models.BankAccount, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error)
}

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID uuid.UUID, isAdmin bool) error
}

type ExpenseServiceInterface interface {
	CreateExpense(ctx context.Context, userID uuid.UUID, req *dto.ExpenseRequest) (*models.Expense, error)
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]models.Expense, error)
	GetExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, req *dto.ExpenseRequest) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error
}

// AuditServiceInterface defines the contract for audit logging operations
type AuditServiceInterface interface {
	CreateAuditLog(log *models.AuditLog) error
	GetUserActivity(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	LogBankLinked(userID uuid.UUID, itemID string) error
	LogBankAccountCreated(userID, accountID uuid.UUID) error
	LogTransactionsImported(userID uuid.UUID, imported, skipped int) error
	LogTransactionCreated(userID, transactionID uuid.UUID) error
	LogTransactionDeleted(userID, transactionID uuid.UUID) error
	LogExpenseChange(action string, userID, expenseID uuid.UUID) error
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

// TransactionGeneratorInterface generates realistic transaction data for demos and tests
type TransactionGeneratorInterface interface {
	GenerateHistoricalTransactions(userID uuid.UUID, startDate, endDate time.Time, count int) []models.Transaction
	GenerateRecurringBills(userID uuid.UUID, startDate, endDate time.Time) []models.Transaction
	GenerateAmount(category models.Category) decimal.Decimal
	GenerateTimestamp(startDate, endDate time.Time) time.Time
}

type AuthServiceInterface interface {
	Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error)
	Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(accessToken, ipAddress, userAgent string) error
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
	PasswordStrength(password string) int
}

type AuditLoggerInterface interface {
	LogAnalysisComputed(ctx context.Context, view string, userID uuid.UUID, rows int, durationMs int64)
	LogAnalysisFailed(ctx context.Context, view string, userID uuid.UUID, errorMsg string)
	LogImportStarted(ctx context.Context, userID uuid.UUID, items int)
	LogImportCompleted(ctx context.Context, userID uuid.UUID, accounts, imported, skipped int, durationMs int64)
	LogImportFailed(ctx context.Context, userID uuid.UUID, itemID string, errorMsg string)
	LogProviderRequestFailed(ctx context.Context, provider, path string, statusCode int, errorMsg string)
	LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string)
	LogForecastTrained(ctx context.Context, samples int, slope, intercept float64, baseline bool)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() CircuitBreakerState
	Reset()
	GetFailureCount() int
}
