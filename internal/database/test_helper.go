package database

import (
	"testing"

	"spendwise/internal/config"
	"spendwise/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB returns an in-memory sqlite database migrated from the models.
// The pool holds a single connection so every query sees the same database.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: conn, config: &config.DatabaseConfig{MaxConnections: 1, MaxIdleConns: 1}}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	db.ensureIndexes(t.Context())
	return db
}

// CreateTestUser inserts a customer named username
func CreateTestUser(t *testing.T, db *DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed_password",
		Role:         models.RoleCustomer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user %q: %v", username, err)
	}
	return user
}

// CleanupTestDB deletes every row, children before parents, and closes the pool
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	for i := len(ledgerModels) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(ledgerModels[i]).Error; err != nil {
			t.Logf("cleanup %T: %v", ledgerModels[i], err)
		}
	}
	if err := db.Close(); err != nil {
		t.Logf("close test database: %v", err)
	}
}
