package commands

import (
	"fmt"

	"spendwise/internal/app"

	"github.com/spf13/cobra"
)

func newPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions and audit logs past retention",
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

			result, err := a.Prune()
			fmt.Fprintf(cmd.OutOrStdout(), "refresh tokens: %d\nrevoked tokens: %d\naudit logs: %d\n",
				result.RefreshTokens, result.RevokedTokens, result.AuditLogs)
			return err
		},
	}
}
