package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the four spending views of a user's ledger.
// Routes are mounted behind RequireSelfOrAdmin("userId").
type AnalysisHandler struct {
	analysisService services.AnalysisServiceInterface
	logger          *slog.Logger
}

func NewAnalysisHandler(analysisService services.AnalysisServiceInterface, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger,
	}
}

// SpendingPatterns returns total and count per category
// @Summary Spending patterns
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} dto.SpendingPatternsResponse
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Another user's data"
// @Failure 500 {object} errors.ErrorResponse "ANALYSIS_001 or ANALYSIS_002"
// @Router /analysis/spending-patterns/{userId} [get]
func (h *AnalysisHandler) SpendingPatterns(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	aggregate, err := h.analysisService.SpendingPatterns(c.Request().Context(), userID)
	if err != nil {
		return h.sendAnalysisError(c, "spending_patterns", userID, err)
	}

	return c.JSON(http.StatusOK, dto.NewSpendingPatternsResponse(aggregate))
}

// WastefulSpending lists every transaction classified as wasteful
// @Summary Wasteful transactions
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {array} models.WastefulRecord
// @Router /analysis/wasteful-spending/{userId} [get]
func (h *AnalysisHandler) WastefulSpending(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	records, err := h.analysisService.WastefulTransactions(c.Request().Context(), userID)
	if err != nil {
		return h.sendAnalysisError(c, "wasteful_transactions", userID, err)
	}
	if records == nil {
		records = []models.WastefulRecord{}
	}

	return c.JSON(http.StatusOK, records)
}

// SavingsOpportunities groups recent discretionary spend into amount bands
// @Summary Savings opportunities
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {array} models.SavingsOpportunity
// @Router /analysis/savings-opportunities/{userId} [get]
func (h *AnalysisHandler) SavingsOpportunities(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	opportunities, err := h.analysisService.SavingsOpportunities(c.Request().Context(), userID)
	if err != nil {
		return h.sendAnalysisError(c, "savings_opportunities", userID, err)
	}
	if opportunities == nil {
		opportunities = []models.SavingsOpportunity{}
	}

	return c.JSON(http.StatusOK, opportunities)
}

// MonthlySummary reports the current calendar month
// @Summary Monthly summary
// @Tags Analysis
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} models.MonthlySummary
// @Router /analysis/monthly-summary/{userId} [get]
func (h *AnalysisHandler) MonthlySummary(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	summary, err := h.analysisService.MonthlySummary(c.Request().Context(), userID)
	if err != nil {
		return h.sendAnalysisError(c, "monthly_summary", userID, err)
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *AnalysisHandler) sendAnalysisError(c echo.Context, view string, userID uuid.UUID, err error) error {
	h.logger.ErrorContext(c.Request().Context(), "analysis request failed",
		"view", view,
		"user_id", userID,
		"error", err,
		"trace_id", getTraceID(c),
	)

	if stderrors.Is(err, models.ErrUnknownCategory) || stderrors.Is(err, models.ErrUnknownImportance) {
		return SendError(c, errors.AnalysisCorruptData)
	}
	return SendError(c, errors.AnalysisFailed)
}
