package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/repositories"
	"spendwise/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// CreateTransaction records a manual transaction for the authenticated user
// @Summary Create transaction
// @Description Importance is derived from category and amount when omitted
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001, TRANSACTION_002, TRANSACTION_003 or TRANSACTION_004"
// @Failure 404 {object} errors.ErrorResponse "BANK_001 - Bank account not found"
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if req.Amount.IsZero() {
		return SendError(c, errors.TransactionInvalidAmount, errors.WithDetails("amount must not be zero"))
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, &req)
	if err != nil {
		switch {
		case stderrors.Is(err, models.ErrUnknownCategory):
			return SendError(c, errors.TransactionUnknownCategory)
		case stderrors.Is(err, models.ErrUnknownImportance):
			return SendError(c, errors.TransactionUnknownImportance)
		case stderrors.Is(err, services.ErrInvalidBankAccountID):
			return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid bank account ID"))
		case stderrors.Is(err, repositories.ErrBankAccountNotFound):
			return SendError(c, errors.BankAccountNotFound)
		}
		h.logger.ErrorContext(c.Request().Context(), "failed to create transaction", "error", err, "user_id", userID)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// ListTransactions returns the user's ledger, oldest first
// @Summary List transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Param since query string false "Only transactions on or after this date (YYYY-MM-DD or RFC3339)"
// @Param category query string false "Filter by category"
// @Param importance query string false "Comma separated importance filter"
// @Param limit query int false "Maximum rows returned" default(100)
// @Success 200 {object} dto.ListTransactionsResponse
// @Router /transactions/{userId} [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	query, err := parseTransactionQuery(c)
	if err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	transactions, err := h.transactionService.ListTransactions(c.Request().Context(), userID, query)
	if err != nil {
		return SendSystemError(c, err)
	}

	response := dto.ListTransactionsResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(transactions)),
		Total:        len(transactions),
	}
	for i := range transactions {
		response.Transactions = append(response.Transactions, toTransactionResponse(&transactions[i]))
	}

	return c.JSON(http.StatusOK, response)
}

// DeleteTransaction removes one of the caller's transactions
// @Summary Delete transaction
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID (UUID)"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := pathUUID(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid transaction ID format"))
	}

	err = h.transactionService.DeleteTransaction(c.Request().Context(), userID, transactionID, callerIsAdmin(c))
	if err != nil {
		if stderrors.Is(err, repositories.ErrTransactionNotFound) {
			return SendError(c, errors.TransactionNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// parseTransactionQuery parses the list filters. Unknown enum labels are
// rejected rather than ignored.
func parseTransactionQuery(c echo.Context) (models.TransactionQuery, error) {
	var query models.TransactionQuery

	if since := c.QueryParam("since"); since != "" {
		parsed, err := parseDate(since)
		if err != nil {
			return query, fmt.Errorf("since: %w", err)
		}
		query.Since = &parsed
	}

	if raw := c.QueryParam("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return query, fmt.Errorf("category: %w", err)
		}
		query.Category = &category
	}

	if raw := c.QueryParam("importance"); raw != "" {
		for _, label := range strings.Split(raw, ",") {
			importance, err := models.ParseImportance(label)
			if err != nil {
				return query, fmt.Errorf("importance: %w", err)
			}
			query.Importances = append(query.Importances, importance)
		}
	}

	limit := queryInt(c, "limit", defaultPageLimit)
	if limit < 1 {
		return query, fmt.Errorf("limit must be at least 1")
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	query.Limit = limit

	return query, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func toTransactionResponse(t *models.Transaction) dto.TransactionResponse {
	response := dto.TransactionResponse{
		ID:          t.ID.String(),
		Date:        t.Date,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Merchant:    t.Merchant,
		Category:    t.Category.String(),
		Importance:  t.Importance.String(),
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
	}
	if t.BankAccountID != nil {
		response.BankAccountID = t.BankAccountID.String()
	}
	return response
}
