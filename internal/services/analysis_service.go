package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

const (
	ViewSpendingPatterns     = "spending_patterns"
	ViewWastefulTransactions = "wasteful_transactions"
	ViewSavingsOpportunities = "savings_opportunities"
	ViewMonthlySummary       = "monthly_summary"
)

// AnalysisConfig tunes the analysis engine. Now supplies the reference time
// for lookback windows and month boundaries.
type AnalysisConfig struct {
	Seed           int64
	LookbackDays   int
	MaxClusters    int
	MinClusterSize int
	SavingsRate    float64
	Now            func() time.Time
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Seed:           42,
		LookbackDays:   90,
		MaxClusters:    5,
		MinClusterSize: 3,
		SavingsRate:    0.30,
		Now:            time.Now,
	}
}

// NewAnalysisConfig builds the engine settings from application configuration
func NewAnalysisConfig(cfg *config.AnalysisConfig) AnalysisConfig {
	return AnalysisConfig{
		Seed:           cfg.Seed,
		LookbackDays:   cfg.LookbackDays,
		MaxClusters:    cfg.MaxClusters,
		MinClusterSize: cfg.MinClusterSize,
		SavingsRate:    cfg.SavingsRate,
		Now:            time.Now,
	}
}

// AnalysisService derives spending views from the transaction store. It holds
// no per-user state, so concurrent calls are independent.
type AnalysisService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	clusterer       AmountClustererInterface
	metrics         MetricsRecorderInterface
	auditLogger     AuditLoggerInterface
	config          AnalysisConfig
}

func NewAnalysisService(
	transactionRepo repositories.TransactionRepositoryInterface,
	clusterer AmountClustererInterface,
	metrics MetricsRecorderInterface,
	auditLogger AuditLoggerInterface,
	cfg AnalysisConfig,
) AnalysisServiceInterface {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AnalysisService{
		transactionRepo: transactionRepo,
		clusterer:       clusterer,
		metrics:         metrics,
		auditLogger:     auditLogger,
		config:          cfg,
	}
}

// SpendingPatterns totals every transaction the user owns by category.
// Categories without transactions are absent from the result.
func (s *AnalysisService) SpendingPatterns(ctx context.Context, userID uuid.UUID) (aggregate models.CategoryAggregate, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, ViewSpendingPatterns, userID, start, len(aggregate), err) }()

	transactions, err := s.load(ctx, userID, models.TransactionQuery{})
	if err != nil {
		return nil, err
	}

	aggregate = make(models.CategoryAggregate)
	for i := range transactions {
		t := &transactions[i]
		if err := validateEnums(t); err != nil {
			return nil, err
		}
		total := aggregate[t.Category]
		total.Total += t.AmountFloat()
		total.Count++
		aggregate[t.Category] = total
	}

	return aggregate, nil
}

// WastefulTransactions lists every wasteful transaction, largest amount first.
func (s *AnalysisService) WastefulTransactions(ctx context.Context, userID uuid.UUID) (records []models.WastefulRecord, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, ViewWastefulTransactions, userID, start, len(records), err) }()

	transactions, err := s.load(ctx, userID, models.TransactionQuery{
		Importances: []models.Importance{models.ImportanceWasteful},
	})
	if err != nil {
		return nil, err
	}

	records = make([]models.WastefulRecord, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		if err := validateEnums(t); err != nil {
			return nil, err
		}
		if t.Importance != models.ImportanceWasteful {
			continue
		}
		records = append(records, models.WastefulRecord{
			Date:        t.Date,
			Amount:      t.AmountFloat(),
			Description: t.Description,
			Merchant:    t.Merchant,
			Category:    t.Category,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Amount > records[j].Amount
	})

	return records, nil
}

// SavingsOpportunities clusters recent optional and wasteful spend by amount
// and reports every cluster large enough to act on, ordered by average amount.
func (s *AnalysisService) SavingsOpportunities(ctx context.Context, userID uuid.UUID) (opportunities []models.SavingsOpportunity, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, ViewSavingsOpportunities, userID, start, len(opportunities), err) }()

	since := s.config.Now().AddDate(0, 0, -s.config.LookbackDays)
	transactions, err := s.load(ctx, userID, models.TransactionQuery{
		Since:       &since,
		Importances: []models.Importance{models.ImportanceOptional, models.ImportanceWasteful},
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Transaction, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		if err := validateEnums(t); err != nil {
			return nil, err
		}
		if t.Date.Before(since) {
			continue
		}
		if t.Importance == models.ImportanceOptional || t.Importance == models.ImportanceWasteful {
			candidates = append(candidates, t)
		}
	}

	opportunities = []models.SavingsOpportunity{}
	if len(candidates) == 0 {
		return opportunities, nil
	}

	amounts := make([]float64, len(candidates))
	for i, t := range candidates {
		amounts[i] = t.AmountFloat()
	}

	k := min(s.config.MaxClusters, len(amounts))
	labels, err := s.clusterer.Cluster(amounts, k, s.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster transactions: %w", err)
	}
	if len(labels) != len(candidates) {
		return nil, fmt.Errorf("failed to cluster transactions: got %d labels for %d amounts", len(labels), len(candidates))
	}

	clusters := make([][]*models.Transaction, k)
	for i, label := range labels {
		if label < 0 || label >= k {
			return nil, fmt.Errorf("failed to cluster transactions: label %d out of range", label)
		}
		clusters[label] = append(clusters[label], candidates[i])
	}

	for _, members := range clusters {
		if len(members) < s.config.MinClusterSize {
			continue
		}
		opportunities = append(opportunities, s.summarizeCluster(members))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].AverageAmount < opportunities[j].AverageAmount
	})

	return opportunities, nil
}

// MonthlySummary reports totals and ratios for transactions dated on or after
// the first day of the current month.
func (s *AnalysisService) MonthlySummary(ctx context.Context, userID uuid.UUID) (summary *models.MonthlySummary, err error) {
	start := time.Now()
	rows := 0
	defer func() { s.observe(ctx, ViewMonthlySummary, userID, start, rows, err) }()

	now := s.config.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	transactions, err := s.load(ctx, userID, models.TransactionQuery{Since: &monthStart})
	if err != nil {
		return nil, err
	}

	summary = &models.MonthlySummary{}
	for i := range transactions {
		t := &transactions[i]
		if err := validateEnums(t); err != nil {
			return nil, err
		}
		if t.Date.Before(monthStart) {
			continue
		}
		rows++

		amount := t.AmountFloat()
		summary.TotalSpent += amount
		switch t.Category {
		case models.CategoryEssential:
			summary.EssentialExpenses += amount
		case models.CategorySavings:
			summary.Savings += amount
		}
		if t.Importance == models.ImportanceWasteful {
			summary.WastefulSpending += amount
		}
	}

	if summary.TotalSpent != 0 {
		summary.SavingsRate = summary.Savings / summary.TotalSpent
		summary.EssentialRate = summary.EssentialExpenses / summary.TotalSpent
	}

	return summary, nil
}

func (s *AnalysisService) summarizeCluster(members []*models.Transaction) models.SavingsOpportunity {
	var total float64
	for _, t := range members {
		total += t.AmountFloat()
	}
	count := len(members)
	average := total / float64(count)
	category := modeCategory(members)

	return models.SavingsOpportunity{
		Category:         category,
		TotalAmount:      total,
		AverageAmount:    average,
		TransactionCount: count,
		PotentialSavings: total * s.config.SavingsRate,
		Recommendation:   Recommend(category, average, count),
	}
}

func (s *AnalysisService) load(ctx context.Context, userID uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
	transactions, err := s.transactionRepo.ListForUser(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return transactions, nil
}

func (s *AnalysisService) observe(ctx context.Context, view string, userID uuid.UUID, start time.Time, rows int, err error) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
		s.auditLogger.LogAnalysisFailed(ctx, view, userID, err.Error())
	} else {
		s.auditLogger.LogAnalysisComputed(ctx, view, userID, rows, elapsed.Milliseconds())
	}

	s.metrics.IncrementCounter("analysis.request", map[string]string{"view": view, "status": status})
	s.metrics.RecordProcessingTime("analysis."+view, elapsed)
}

// modeCategory returns the most frequent category, preferring the one seen
// first when counts tie.
func modeCategory(members []*models.Transaction) models.Category {
	counts := make(map[models.Category]int)
	order := make([]models.Category, 0, len(members))
	for _, t := range members {
		if counts[t.Category] == 0 {
			order = append(order, t.Category)
		}
		counts[t.Category]++
	}

	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func validateEnums(t *models.Transaction) error {
	if !t.Category.Valid() {
		return fmt.Errorf("transaction %s: %w: %q", t.ID, models.ErrUnknownCategory, string(t.Category))
	}
	if !t.Importance.Valid() {
		return fmt.Errorf("transaction %s: %w: %q", t.ID, models.ErrUnknownImportance, string(t.Importance))
	}
	return nil
}
