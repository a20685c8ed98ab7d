package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var ErrMigrationsNotFound = errors.New("migrations directory not found")

// retryPolicy bounds how long WaitForDatabase keeps pinging
type retryPolicy struct {
	attempts int
	interval time.Duration
}

var defaultRetry = retryPolicy{attempts: 30, interval: 2 * time.Second}

// MigrationRunner applies db/migrations through golang-migrate and, when
// SEED_DATABASE is set, the *.sql files under db/seeds.
type MigrationRunner struct {
	db     *sql.DB
	cfg    config.DatabaseConfig
	retry  retryPolicy
	logger *slog.Logger
}

func NewMigrationRunner(db *sql.DB, cfg *config.DatabaseConfig, logger *slog.Logger) *MigrationRunner {
	return &MigrationRunner{
		db:     db,
		cfg:    *cfg,
		retry:  defaultRetry,
		logger: logger.With("component", "migrator"),
	}
}

// WaitForDatabase pings until the database answers. It gives up after the
// retry budget or when ctx is done.
func (mr *MigrationRunner) WaitForDatabase(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= mr.retry.attempts; attempt++ {
		if lastErr = mr.db.PingContext(ctx); lastErr == nil {
			return nil
		}
		mr.logger.Warn("database not ready", "attempt", attempt, "of", mr.retry.attempts, "error", lastErr)

		if attempt == mr.retry.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mr.retry.interval):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", mr.retry.attempts, lastErr)
}

func (mr *MigrationRunner) migrator() (*migrate.Migrate, error) {
	dir, err := filepath.Abs(mr.cfg.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMigrationsNotFound, mr.cfg.MigrationsPath)
	}

	// The driver is not closed: closing it would close mr.db as well.
	driver, err := postgres.WithInstance(mr.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Up applies pending migrations. A dirty schema is forced back to its
// recorded version first. A missing directory is logged and ignored.
func (mr *MigrationRunner) Up() error {
	m, err := mr.migrator()
	if errors.Is(err, ErrMigrationsNotFound) {
		mr.logger.Warn("skipping migrations", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		mr.logger.Warn("schema is dirty, forcing version", "version", from)
		if err := m.Force(int(from)); err != nil {
			return fmt.Errorf("failed to force version %d: %w", from, err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.logger.Info("schema up to date", "version", from)
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	to, _, _ := m.Version()
	mr.logger.Info("applied migrations", "from", from, "to", to)
	return nil
}

// Down reverts the most recent migration
func (mr *MigrationRunner) Down() error {
	m, err := mr.migrator()
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

func (mr *MigrationRunner) Version() (uint, bool, error) {
	m, err := mr.migrator()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// LoadSeeds executes the seed files in name order. A file that fails to
// execute is logged and skipped; one that cannot be read aborts.
func (mr *MigrationRunner) LoadSeeds(ctx context.Context) error {
	if !mr.cfg.SeedDatabase {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(mr.cfg.SeedsPath, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to list seed files: %w", err)
	}
	if len(files) == 0 {
		mr.logger.Warn("no seed files found", "path", mr.cfg.SeedsPath)
		return nil
	}

	for _, file := range files {
		stmt, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read seed file %s: %w", file, err)
		}
		name := filepath.Base(file)
		if _, err := mr.db.ExecContext(ctx, string(stmt)); err != nil {
			mr.logger.Warn("seed file failed", "file", name, "error", err)
			continue
		}
		mr.logger.Info("seed file applied", "file", name)
	}
	return nil
}

// RunMigrationsIfEnabled waits for the database, migrates and seeds when
// AUTO_MIGRATE is set. Seed failures are only logged.
func RunMigrationsIfEnabled(ctx context.Context, db *sql.DB, cfg *config.DatabaseConfig, logger *slog.Logger) error {
	if !cfg.AutoMigrate {
		return nil
	}

	runner := NewMigrationRunner(db, cfg, logger)
	if err := runner.WaitForDatabase(ctx); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}
	if err := runner.Up(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}
	if err := runner.LoadSeeds(ctx); err != nil {
		logger.Warn("seed data loading failed", "error", err)
	}
	return nil
}
