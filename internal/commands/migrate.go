package commands

import (
	"errors"
	"fmt"

	"spendwise/internal/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations and, when SEED_DATABASE is set, seed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(runner *database.MigrationRunner) error {
				if err := runner.WaitForDatabase(cmd.Context()); err != nil {
					return err
				}
				if err := runner.Up(); err != nil {
					return err
				}
				return runner.LoadSeeds(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(runner *database.MigrationRunner) error {
				return runner.Down()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(runner *database.MigrationRunner) error {
				version, dirty, err := runner.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func withMigrationRunner(fn func(runner *database.MigrationRunner) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.OpenSQL(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := fn(database.NewMigrationRunner(db, &cfg.Database, logger)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
