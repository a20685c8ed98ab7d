package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisContext(userID string) (echo.Context, func() (int, string)) {
	c, rec := newJSONContext(newTestEcho(), http.MethodGet, "/analysis/x/"+userID, nil)
	c.SetParamNames("userId")
	c.SetParamValues(userID)
	return c, func() (int, string) { return rec.Code, rec.Body.String() }
}

func TestAnalysisHandler_SpendingPatterns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
	svc.EXPECT().SpendingPatterns(gomock.Any(), userID).Return(models.CategoryAggregate{
		models.CategoryEssential:     {Total: 300, Count: 2},
		models.CategoryEntertainment: {Total: 45.5, Count: 3},
	}, nil)

	h := NewAnalysisHandler(svc, discardLogger())
	c, result := analysisContext(userID.String())

	require.NoError(t, h.SpendingPatterns(c))
	status, body := result()
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"category_totals": {"essential": 300, "entertainment": 45.5},
		"category_counts": {"essential": 2, "entertainment": 3}
	}`, body)
}

func TestAnalysisHandler_EmptyListsAreArrays(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
	svc.EXPECT().WastefulTransactions(gomock.Any(), userID).Return(nil, nil)
	svc.EXPECT().SavingsOpportunities(gomock.Any(), userID).Return(nil, nil)

	h := NewAnalysisHandler(svc, discardLogger())

	c, result := analysisContext(userID.String())
	require.NoError(t, h.WastefulSpending(c))
	status, body := result()
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	c, result = analysisContext(userID.String())
	require.NoError(t, h.SavingsOpportunities(c))
	status, body = result()
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)
}

func TestAnalysisHandler_WastefulSpending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
	svc.EXPECT().WastefulTransactions(gomock.Any(), userID).Return([]models.WastefulRecord{{
		Date:        time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Amount:      89.99,
		Description: "Impulse gadget",
		Category:    models.CategoryShopping,
	}}, nil)

	h := NewAnalysisHandler(svc, discardLogger())
	c, result := analysisContext(userID.String())

	require.NoError(t, h.WastefulSpending(c))
	_, body := result()
	assert.JSONEq(t, `[{"date":"2025-04-02T00:00:00Z","amount":89.99,"description":"Impulse gadget","category":"shopping"}]`, body)
}

func TestAnalysisHandler_SavingsOpportunities(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
	svc.EXPECT().SavingsOpportunities(gomock.Any(), userID).Return([]models.SavingsOpportunity{{
		Category:         models.CategoryEntertainment,
		TotalAmount:      400,
		AverageAmount:    40,
		TransactionCount: 10,
		PotentialSavings: 80,
		Recommendation:   "Consider reducing entertainment expenses",
	}}, nil)

	h := NewAnalysisHandler(svc, discardLogger())
	c, result := analysisContext(userID.String())

	require.NoError(t, h.SavingsOpportunities(c))
	status, body := result()
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"potential_savings":80`)
}

func TestAnalysisHandler_MonthlySummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
	svc.EXPECT().MonthlySummary(gomock.Any(), userID).Return(&models.MonthlySummary{
		TotalSpent:        1000,
		EssentialExpenses: 600,
		Savings:           200,
		WastefulSpending:  50,
		SavingsRate:       20,
		EssentialRate:     60,
	}, nil)

	h := NewAnalysisHandler(svc, discardLogger())
	c, result := analysisContext(userID.String())

	require.NoError(t, h.MonthlySummary(c))
	status, body := result()
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total_spent":1000,"essential_expenses":600,"savings":200,"wasteful_spending":50,"savings_rate":20,"essential_rate":60}`, body)
}

func TestAnalysisHandler_Errors(t *testing.T) {
	t.Run("invalid user id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		h := NewAnalysisHandler(service_mocks.NewMockAnalysisServiceInterface(ctrl), discardLogger())
		c, result := analysisContext("42")

		require.NoError(t, h.MonthlySummary(c))
		status, _ := result()
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("corrupt stored label", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
		svc.EXPECT().SpendingPatterns(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("failed to load ledger: %w", models.ErrUnknownCategory))

		h := NewAnalysisHandler(svc, discardLogger())
		c, result := analysisContext(uuid.NewString())

		require.NoError(t, h.SpendingPatterns(c))
		status, body := result()
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body, "ANALYSIS_002")
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := service_mocks.NewMockAnalysisServiceInterface(ctrl)
		svc.EXPECT().MonthlySummary(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

		h := NewAnalysisHandler(svc, discardLogger())
		c, result := analysisContext(uuid.NewString())

		require.NoError(t, h.MonthlySummary(c))
		status, body := result()
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body, "ANALYSIS_001")
		assert.NotContains(t, body, "connection refused")
	})
}
