package commands

import (
	"context"
	"fmt"
	"time"

	"spendwise/internal/app"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	var username string
	var months int
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a user's ledger with generated demo transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("starting application: %w", err)
			}
			defer a.Close()

			created, err := seedLedger(cmd.Context(), a, username, months, count, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d transactions for %s\n", created, username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username to seed (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().IntVar(&months, "months", 6, "months of history ending today")
	cmd.Flags().IntVar(&count, "count", 200, "number of discretionary transactions")

	return cmd
}

// seedLedger writes recurring bills plus count generated transactions over
// the months before now. The generator is seeded from the analysis seed.
func seedLedger(ctx context.Context, a *app.App, username string, months, count int, now time.Time) (int, error) {
	if months < 1 {
		return 0, fmt.Errorf("months must be positive, got %d", months)
	}
	if count < 0 {
		return 0, fmt.Errorf("count must not be negative, got %d", count)
	}

	user, err := a.Users.GetByUsername(username)
	if err != nil {
		return 0, fmt.Errorf("looking up %q: %w", username, err)
	}

	end := now.UTC()
	start := end.AddDate(0, -months, 0)

	generator := a.NewTransactionGenerator()
	transactions := generator.GenerateRecurringBills(user.ID, start, end)
	transactions = append(transactions, generator.GenerateHistoricalTransactions(user.ID, start, end, count)...)

	created, _, err := a.Transactions.CreateBatch(ctx, transactions)
	if err != nil {
		return 0, fmt.Errorf("storing transactions: %w", err)
	}

	a.Logger.Info("seeded ledger", "user", username, "transactions", created, "months", months)
	return created, nil
}
