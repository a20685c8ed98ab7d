package commands

import (
	"fmt"
	"log/slog"

	"spendwise/internal/app"
	"spendwise/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newForecastCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Train or query the monthly expense forecast",
	}

	cmd.AddCommand(newForecastTrainCommand())
	cmd.AddCommand(newForecastPredictCommand())

	return cmd
}

func newForecastTrainCommand() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the forecast over every stored ledger and write the model file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Forecast.ModelPath
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("starting application: %w", err)
			}
			defer a.Close()

			model, err := a.Forecast.Train(cmd.Context())
			if err != nil {
				return fmt.Errorf("training forecast: %w", err)
			}
			if err := a.Forecast.Save(modelPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "trained on %d months (baseline: %t): slope=%.4f intercept=%.4f\n",
				model.Samples, model.Baseline, model.Slope, model.Intercept)
			fmt.Fprintf(cmd.OutOrStdout(), "model written to %s\n", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "model file (defaults to FORECAST_MODEL_PATH)")

	return cmd
}

func newForecastPredictCommand() *cobra.Command {
	var modelPath string
	var month int

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the expense total for a month using a saved model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Forecast.ModelPath
			}

			predicted, err := predictFromFile(modelPath, month, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", predicted)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "model file (defaults to FORECAST_MODEL_PATH)")
	cmd.Flags().IntVar(&month, "month", 0, "month number, 1-12 (required)")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

// predictFromFile answers from the model file alone; no database is opened
func predictFromFile(modelPath string, month int, logger *slog.Logger) (float64, error) {
	forecast := services.NewForecastService(nil, nil,
		services.NewPrometheusMetricsWithRegistry(prometheus.NewRegistry()),
		services.NewAuditLogger(logger))

	if err := forecast.Load(modelPath); err != nil {
		return 0, err
	}
	return forecast.Predict(month)
}
