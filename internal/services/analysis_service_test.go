package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/repositories/repository_mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// countingClusterer wraps the real clusterer and counts invocations
type countingClusterer struct {
	inner AmountClustererInterface
	calls int
}

func (c *countingClusterer) Cluster(amounts []float64, k int, seed int64) ([]int, error) {
	c.calls++
	return c.inner.Cluster(amounts, k, seed)
}

type AnalysisServiceSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	transactionRepo *repository_mocks.MockTransactionRepositoryInterface
	clusterer       *countingClusterer
	metrics         *recordingMetrics
	service         AnalysisServiceInterface
	userID          uuid.UUID
	now             time.Time
}

func TestAnalysisServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalysisServiceSuite))
}

func (s *AnalysisServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.transactionRepo = repository_mocks.NewMockTransactionRepositoryInterface(s.ctrl)
	s.clusterer = &countingClusterer{inner: NewKMeansClusterer()}
	s.metrics = newRecordingMetrics()
	s.userID = uuid.New()
	s.now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	cfg := DefaultAnalysisConfig()
	cfg.Now = func() time.Time { return s.now }
	s.service = NewAnalysisService(s.transactionRepo, s.clusterer, s.metrics, NewAuditLogger(discardLogger()), cfg)
}

func (s *AnalysisServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AnalysisServiceSuite) tx(category models.Category, importance models.Importance, amount float64, date time.Time) models.Transaction {
	return models.Transaction{
		ID:          uuid.New(),
		UserID:      s.userID,
		Date:        date,
		Amount:      decimal.NewFromFloat(amount),
		Description: "test transaction",
		Category:    category,
		Importance:  importance,
	}
}

func (s *AnalysisServiceSuite) TestSpendingPatterns_GroupsByCategory() {
	day := s.now.AddDate(0, 0, -1)
	s.transactionRepo.EXPECT().
		ListForUser(gomock.Any(), s.userID, models.TransactionQuery{}).
		Return([]models.Transaction{
			s.tx(models.CategoryEssential, models.ImportanceNecessary, 100, day),
			s.tx(models.CategoryEssential, models.ImportanceNecessary, 50, day),
			s.tx(models.CategoryShopping, models.ImportanceOptional, 25.5, day),
		}, nil)

	aggregate, err := s.service.SpendingPatterns(context.Background(), s.userID)
	s.Require().NoError(err)

	s.Len(aggregate, 2)
	s.Equal(models.CategoryTotal{Total: 150, Count: 2}, aggregate[models.CategoryEssential])
	s.Equal(models.CategoryTotal{Total: 25.5, Count: 1}, aggregate[models.CategoryShopping])
	_, present := aggregate[models.CategoryMisc]
	s.False(present)
	s.Equal(1, s.metrics.counter("analysis.request:success"))
}

func (s *AnalysisServiceSuite) TestSpendingPatterns_TotalsMatchLedger() {
	faker := gofakeit.New(7)
	transactions := make([]models.Transaction, 0, 200)
	var expected float64
	for i := 0; i < 200; i++ {
		categories := models.AllCategories()
		amount := float64(faker.IntRange(1, 50000)) / 100
		expected += amount
		transactions = append(transactions, s.tx(
			categories[faker.IntRange(0, len(categories)-1)],
			models.ImportanceOptional,
			amount,
			s.now,
		))
	}
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(transactions, nil)

	aggregate, err := s.service.SpendingPatterns(context.Background(), s.userID)
	s.Require().NoError(err)

	var total float64
	var count int
	for _, ct := range aggregate {
		total += ct.Total
		count += ct.Count
	}
	s.InDelta(expected, total, 1e-6)
	s.Equal(len(transactions), count)
}

func (s *AnalysisServiceSuite) TestSpendingPatterns_EmptyLedger() {
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(nil, nil)

	aggregate, err := s.service.SpendingPatterns(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Empty(aggregate)
}

func (s *AnalysisServiceSuite) TestSpendingPatterns_UnknownCategoryFails() {
	bad := s.tx(models.Category("vice"), models.ImportanceOptional, 10, s.now)
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return([]models.Transaction{bad}, nil)

	_, err := s.service.SpendingPatterns(context.Background(), s.userID)
	s.ErrorIs(err, models.ErrUnknownCategory)
	s.Equal(1, s.metrics.counter("analysis.request:error"))
}

func (s *AnalysisServiceSuite) TestStoreErrorsPropagate() {
	storeErr := errors.New("connection reset")
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(nil, storeErr).Times(4)

	ctx := context.Background()
	_, err := s.service.SpendingPatterns(ctx, s.userID)
	s.ErrorIs(err, storeErr)
	_, err = s.service.WastefulTransactions(ctx, s.userID)
	s.ErrorIs(err, storeErr)
	_, err = s.service.SavingsOpportunities(ctx, s.userID)
	s.ErrorIs(err, storeErr)
	_, err = s.service.MonthlySummary(ctx, s.userID)
	s.ErrorIs(err, storeErr)

	s.Equal(4, s.metrics.counter("analysis.request:error"))
}

func (s *AnalysisServiceSuite) TestWastefulTransactions_SortedDescending() {
	day := s.now.AddDate(0, -2, 0)
	s.transactionRepo.EXPECT().
		ListForUser(gomock.Any(), s.userID, models.TransactionQuery{
			Importances: []models.Importance{models.ImportanceWasteful},
		}).
		Return([]models.Transaction{
			s.tx(models.CategoryMisc, models.ImportanceWasteful, 250, day),
			s.tx(models.CategoryTransport, models.ImportanceWasteful, 900, day),
			s.tx(models.CategoryMisc, models.ImportanceOptional, 5000, day),
			s.tx(models.CategoryMisc, models.ImportanceWasteful, 410, day),
		}, nil)

	records, err := s.service.WastefulTransactions(context.Background(), s.userID)
	s.Require().NoError(err)

	s.Require().Len(records, 3)
	s.Equal(900.0, records[0].Amount)
	s.Equal(410.0, records[1].Amount)
	s.Equal(250.0, records[2].Amount)
	s.Equal(models.CategoryTransport, records[0].Category)
}

func (s *AnalysisServiceSuite) TestWastefulTransactions_EmptyIsNotNil() {
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(nil, nil)

	records, err := s.service.WastefulTransactions(context.Background(), s.userID)
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *AnalysisServiceSuite) TestSavingsOpportunities_NoCandidatesSkipsClustering() {
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return([]models.Transaction{
		s.tx(models.CategoryEssential, models.ImportanceNecessary, 80, s.now),
	}, nil)

	opportunities, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)
	s.NotNil(opportunities)
	s.Empty(opportunities)
	s.Equal(0, s.clusterer.calls)
}

func (s *AnalysisServiceSuite) TestSavingsOpportunities_QueriesLookbackWindow() {
	expectedSince := s.now.AddDate(0, 0, -90)
	s.transactionRepo.EXPECT().
		ListForUser(gomock.Any(), s.userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
			s.Require().NotNil(query.Since)
			s.True(expectedSince.Equal(*query.Since))
			s.ElementsMatch([]models.Importance{models.ImportanceOptional, models.ImportanceWasteful}, query.Importances)
			return []models.Transaction{
				s.tx(models.CategoryShopping, models.ImportanceOptional, 40, s.now.AddDate(0, 0, -120)),
			}, nil
		})

	opportunities, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Empty(opportunities)
	s.Equal(0, s.clusterer.calls)
}

func (s *AnalysisServiceSuite) TestSavingsOpportunities_SingletonClustersAreDropped() {
	day := s.now.AddDate(0, 0, -10)
	var transactions []models.Transaction
	for _, amount := range []float64{10, 12, 11, 200, 205} {
		transactions = append(transactions, s.tx(models.CategoryEntertainment, models.ImportanceOptional, amount, day))
	}
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(transactions, nil)

	opportunities, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Empty(opportunities)
	s.Equal(1, s.clusterer.calls)
}

func (s *AnalysisServiceSuite) TestSavingsOpportunities_ReportsAmountBands() {
	day := s.now.AddDate(0, 0, -5)
	var transactions []models.Transaction
	for i := 0; i < 3; i++ {
		transactions = append(transactions,
			s.tx(models.CategoryEntertainment, models.ImportanceOptional, 120, day),
			s.tx(models.CategoryShopping, models.ImportanceOptional, 15, day),
			s.tx(models.CategoryMisc, models.ImportanceOptional, 50, day),
		)
	}
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(transactions, nil)

	opportunities, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(opportunities, 3)

	s.Equal(models.CategoryShopping, opportunities[0].Category)
	s.InDelta(15.0, opportunities[0].AverageAmount, 1e-9)
	s.InDelta(45.0, opportunities[0].TotalAmount, 1e-9)
	s.Equal(3, opportunities[0].TransactionCount)
	s.InDelta(13.5, opportunities[0].PotentialSavings, 1e-9)
	s.Contains(opportunities[0].Recommendation, "24-hour rule")

	s.Equal(models.CategoryMisc, opportunities[1].Category)
	s.InDelta(50.0, opportunities[1].AverageAmount, 1e-9)

	s.Equal(models.CategoryEntertainment, opportunities[2].Category)
	s.InDelta(120.0, opportunities[2].AverageAmount, 1e-9)
	s.InDelta(108.0, opportunities[2].PotentialSavings, 1e-9)

	for _, o := range opportunities {
		s.GreaterOrEqual(o.TransactionCount, 3)
		s.InDelta(o.TotalAmount*0.3, o.PotentialSavings, 1e-9)
	}
}

func (s *AnalysisServiceSuite) TestSavingsOpportunities_Deterministic() {
	faker := gofakeit.New(99)
	day := s.now.AddDate(0, 0, -3)
	transactions := make([]models.Transaction, 0, 60)
	for i := 0; i < 60; i++ {
		transactions = append(transactions, s.tx(
			models.CategoryShopping,
			models.ImportanceWasteful,
			float64(faker.IntRange(100, 40000))/100,
			day,
		))
	}
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(transactions, nil).Times(2)

	first, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)
	second, err := s.service.SavingsOpportunities(context.Background(), s.userID)
	s.Require().NoError(err)

	s.Equal(first, second)
	for i := 1; i < len(first); i++ {
		s.LessOrEqual(first[i-1].AverageAmount, first[i].AverageAmount)
	}
}

func (s *AnalysisServiceSuite) TestMonthlySummary_Rates() {
	thisMonth := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2024, time.May, 31, 23, 0, 0, 0, time.UTC)

	s.transactionRepo.EXPECT().
		ListForUser(gomock.Any(), s.userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
			s.Require().NotNil(query.Since)
			s.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), *query.Since)
			return []models.Transaction{
				s.tx(models.CategoryEssential, models.ImportanceNecessary, 100, thisMonth),
				s.tx(models.CategoryEssential, models.ImportanceNecessary, 50, thisMonth),
				s.tx(models.CategorySavings, models.ImportanceImportant, 20, thisMonth),
				s.tx(models.CategoryMisc, models.ImportanceWasteful, 999, lastMonth),
			}, nil
		})

	summary, err := s.service.MonthlySummary(context.Background(), s.userID)
	s.Require().NoError(err)

	s.InDelta(170.0, summary.TotalSpent, 1e-9)
	s.InDelta(150.0, summary.EssentialExpenses, 1e-9)
	s.InDelta(20.0, summary.Savings, 1e-9)
	s.InDelta(0.0, summary.WastefulSpending, 1e-9)
	s.InDelta(20.0/170.0, summary.SavingsRate, 1e-9)
	s.InDelta(150.0/170.0, summary.EssentialRate, 1e-9)
}

func (s *AnalysisServiceSuite) TestMonthlySummary_EmptyMonth() {
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return(nil, nil)

	summary, err := s.service.MonthlySummary(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(&models.MonthlySummary{}, summary)
}

func (s *AnalysisServiceSuite) TestMonthlySummary_CountsWastefulSpend() {
	s.transactionRepo.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).Return([]models.Transaction{
		s.tx(models.CategoryTransport, models.ImportanceWasteful, 300, s.now),
		s.tx(models.CategoryEssential, models.ImportanceNecessary, 100, s.now),
	}, nil)

	summary, err := s.service.MonthlySummary(context.Background(), s.userID)
	s.Require().NoError(err)
	s.InDelta(300.0, summary.WastefulSpending, 1e-9)
	s.InDelta(0.25, summary.EssentialRate, 1e-9)
	s.InDelta(0.0, summary.SavingsRate, 1e-9)
}

func (s *AnalysisServiceSuite) TestModeCategory_TieGoesToFirstSeen() {
	cluster := func(categories ...models.Category) []*models.Transaction {
		members := make([]*models.Transaction, 0, len(categories))
		for _, c := range categories {
			members = append(members, &models.Transaction{Category: c})
		}
		return members
	}

	s.Equal(models.CategoryShopping, modeCategory(cluster(
		models.CategoryShopping, models.CategoryMisc, models.CategoryMisc, models.CategoryShopping)))
	s.Equal(models.CategoryMisc, modeCategory(cluster(
		models.CategoryMisc, models.CategoryShopping, models.CategoryShopping, models.CategoryMisc)))
	s.Equal(models.CategoryMisc, modeCategory(cluster(
		models.CategoryShopping, models.CategoryMisc, models.CategoryMisc)))
	s.Equal(models.CategoryEntertainment, modeCategory(cluster(models.CategoryEntertainment)))
}
