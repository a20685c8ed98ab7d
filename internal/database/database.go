package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the GORM handle shared by every repository.
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// ledgerModels lists every table in dependency order
var ledgerModels = []interface{}{
	&models.User{},
	&models.RefreshToken{},
	&models.BlacklistedToken{},
	&models.AuditLog{},
	&models.LinkedItem{},
	&models.BankAccount{},
	&models.Transaction{},
	&models.Expense{},
}

// indexes the migrations also create; AutoMigrate cannot express the
// expression and partial ones
var indexes = map[string]string{
	"idx_users_email_lower":             "ON users(LOWER(email))",
	"idx_refresh_tokens_token_hash":     "ON refresh_tokens(token_hash)",
	"idx_blacklisted_tokens_expires_at": "ON blacklisted_tokens(expires_at)",
	"idx_audit_logs_user_created":       "ON audit_logs(user_id, created_at)",
	"idx_transactions_user_date":        "ON transactions(user_id, date)",
	"idx_transactions_user_importance":  "ON transactions(user_id, importance)",
	"idx_expenses_user_date":            "ON expenses(user_id, date)",
	"idx_bank_accounts_user_provider":   "ON bank_accounts(user_id, provider_account_id)",
}

// New opens a pooled postgres connection and verifies it with a ping.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: conn, config: cfg}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenSQL opens a plain database/sql handle through lib/pq for tooling that
// does not need GORM.
func OpenSQL(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table from the GORM models
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(ledgerModels...)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the underlying connection pool
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ensureIndexes is best effort: a failed index slows queries but does not
// change results
func (db *DB) ensureIndexes(ctx context.Context) {
	for name, target := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s %s", name, target)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			slog.Warn("failed to create index", "index", name, "error", err)
		}
	}

	// sqlite and postgres both accept partial unique indexes
	const providerIDs = "CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_user_provider_id " +
		"ON transactions(user_id, provider_transaction_id) WHERE provider_transaction_id <> ''"
	if err := db.WithContext(ctx).Exec(providerIDs).Error; err != nil {
		slog.Warn("failed to create index", "index", "idx_transactions_user_provider_id", "error", err)
	}
}

// Initialize connects, applies SQL migrations when enabled and falls back to
// AutoMigrate when the migration runner fails.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	db, err := New(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := RunMigrationsIfEnabled(ctx, sqlDB, cfg, slog.Default()); err != nil {
		slog.Warn("migration runner failed, falling back to AutoMigrate", "error", err)
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	db.ensureIndexes(ctx)

	slog.Info("database initialized", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}
