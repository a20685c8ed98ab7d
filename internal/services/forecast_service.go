package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/repositories"
)

var (
	ErrModelNotLoaded = errors.New("forecast model not loaded")
	ErrInvalidMonth   = errors.New("month must be between 1 and 12")
	ErrInvalidModel   = errors.New("invalid forecast model file")
)

// baselineSample is used when the ledger spans fewer than two distinct months
var baselineSample = []models.MonthlyTotal{
	{Month: 1, Total: 1000},
	{Month: 2, Total: 1200},
	{Month: 3, Total: 1100},
	{Month: 4, Total: 1300},
	{Month: 5, Total: 1400},
}

// ForecastModel is a fitted line total = Slope*month + Intercept
type ForecastModel struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Samples   int       `json:"samples"`
	Baseline  bool      `json:"baseline"`
	TrainedAt time.Time `json:"trained_at"`
}

func (m *ForecastModel) Predict(month int) float64 {
	return m.Slope*float64(month) + m.Intercept
}

type forecastService struct {
	mu              sync.RWMutex
	model           *ForecastModel
	transactionRepo repositories.TransactionRepositoryInterface
	expenseRepo     repositories.ExpenseRepositoryInterface
	metrics         MetricsRecorderInterface
	auditLogger     AuditLoggerInterface
	now             func() time.Time
}

func NewForecastService(
	transactionRepo repositories.TransactionRepositoryInterface,
	expenseRepo repositories.ExpenseRepositoryInterface,
	metrics MetricsRecorderInterface,
	auditLogger AuditLoggerInterface,
) ForecastServiceInterface {
	return &forecastService{
		transactionRepo: transactionRepo,
		expenseRepo:     expenseRepo,
		metrics:         metrics,
		auditLogger:     auditLogger,
		now:             time.Now,
	}
}

// Train fits the model over every user's monthly totals and makes it the
// active model.
func (s *forecastService) Train(ctx context.Context) (*ForecastModel, error) {
	txTotals, err := s.transactionRepo.MonthlyTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction totals: %w", err)
	}
	expenseTotals, err := s.expenseRepo.MonthlyTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense totals: %w", err)
	}

	samples := mergeMonthlyTotals(txTotals, expenseTotals)
	baseline := len(samples) < 2
	if baseline {
		samples = baselineSample
	}

	slope, intercept := fitLine(samples)
	model := &ForecastModel{
		Slope:     slope,
		Intercept: intercept,
		Samples:   len(samples),
		Baseline:  baseline,
		TrainedAt: s.now().UTC(),
	}

	s.setModel(model)
	s.auditLogger.LogForecastTrained(ctx, model.Samples, slope, intercept, baseline)

	return model, nil
}

// Save writes the active model as JSON, creating parent directories
func (s *forecastService) Save(path string) error {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()

	if model == nil {
		return ErrModelNotLoaded
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode forecast model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write forecast model: %w", err)
	}
	return nil
}

func (s *forecastService) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read forecast model: %w", err)
	}

	var model ForecastModel
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if model.Samples < 2 {
		return fmt.Errorf("%w: fitted on %d samples", ErrInvalidModel, model.Samples)
	}

	s.setModel(&model)
	return nil
}

func (s *forecastService) Predict(month int) (float64, error) {
	if month < 1 || month > 12 {
		s.metrics.IncrementCounter("forecast.prediction", map[string]string{"status": "invalid"})
		return 0, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}

	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()

	if model == nil {
		s.metrics.IncrementCounter("forecast.prediction", map[string]string{"status": "unavailable"})
		return 0, ErrModelNotLoaded
	}

	s.metrics.IncrementCounter("forecast.prediction", map[string]string{"status": "success"})
	return model.Predict(month), nil
}

func (s *forecastService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

func (s *forecastService) setModel(model *ForecastModel) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	s.metrics.RecordGauge("forecast.slope", model.Slope, nil)
}

// mergeMonthlyTotals sums several per-month series into one, ordered by month
func mergeMonthlyTotals(series ...[]models.MonthlyTotal) []models.MonthlyTotal {
	byMonth := make(map[int]float64)
	for _, totals := range series {
		for _, t := range totals {
			byMonth[t.Month] += t.Total
		}
	}

	merged := make([]models.MonthlyTotal, 0, len(byMonth))
	for month, total := range byMonth {
		merged = append(merged, models.MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Month < merged[j].Month })
	return merged
}

// fitLine is ordinary least squares over (month, total). Callers pass at
// least two distinct months.
func fitLine(samples []models.MonthlyTotal) (slope, intercept float64) {
	n := float64(len(samples))
	var sumX, sumY float64
	for _, s := range samples {
		sumX += float64(s.Month)
		sumY += s.Total
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, s := range samples {
		dx := float64(s.Month) - meanX
		sxx += dx * dx
		sxy += dx * (s.Total - meanY)
	}

	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}
