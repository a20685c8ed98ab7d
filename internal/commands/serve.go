package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spendwise/internal/app"
	"spendwise/internal/config"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	return a.Run(ctx)
}

// loadConfig reads the environment and installs the process logger as the
// slog default.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := app.NewLogger(os.Stderr, cfg.Server.Environment, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	return cfg, logger, nil
}
