package commands

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X spendwise/internal/commands.Version=..."
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "spendwise",
		Short:   "Personal finance tracker and transaction analysis API",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newForecastCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newPruneCommand())

	return rootCmd
}
