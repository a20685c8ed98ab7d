package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/repositories"
	"spendwise/internal/services"

	"github.com/labstack/echo/v4"
)

// PlaidHandler links bank connections and imports their transactions
type PlaidHandler struct {
	bankSyncService services.BankSyncServiceInterface
	logger          *slog.Logger
}

func NewPlaidHandler(bankSyncService services.BankSyncServiceInterface, logger *slog.Logger) *PlaidHandler {
	return &PlaidHandler{
		bankSyncService: bankSyncService,
		logger:          logger,
	}
}

// ExchangeToken stores the item behind a public token from the link flow
// @Summary Exchange public token
// @Tags Plaid
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ExchangeTokenRequest true "Public token"
// @Success 201 {object} dto.ExchangeTokenResponse
// @Failure 409 {object} errors.ErrorResponse "BANK_003 - Already linked"
// @Failure 503 {object} errors.ErrorResponse "PLAID_001 - Provider not configured"
// @Router /plaid/exchange_token [post]
func (h *PlaidHandler) ExchangeToken(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.ExchangeTokenRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if req.PublicToken == "" {
		return SendError(c, errors.PlaidInvalidPublicToken)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	item, err := h.bankSyncService.LinkItem(c.Request().Context(), userID, req.PublicToken, req.InstitutionName)
	if err != nil {
		return h.sendProviderError(c, "exchange_token", err)
	}

	return c.JSON(http.StatusCreated, dto.ExchangeTokenResponse{
		ItemID:  item.ProviderItemID,
		Message: "Bank connection linked",
	})
}

// FetchTransactions imports the lookback window for every linked item
// @Summary Import transactions
// @Tags Plaid
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.FetchTransactionsResponse
// @Failure 422 {object} errors.ErrorResponse "BANK_004 - No linked items"
// @Failure 502 {object} errors.ErrorResponse "PLAID_002 - Provider error"
// @Router /plaid/fetch_transactions [post]
func (h *PlaidHandler) FetchTransactions(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	result, err := h.bankSyncService.ImportTransactions(c.Request().Context(), userID)
	if err != nil {
		return h.sendProviderError(c, "fetch_transactions", err)
	}

	return c.JSON(http.StatusOK, dto.FetchTransactionsResponse{
		Message:  fmt.Sprintf("Imported %d transactions", result.Imported),
		Accounts: result.Accounts,
		Imported: result.Imported,
		Skipped:  result.Skipped,
	})
}

func (h *PlaidHandler) sendProviderError(c echo.Context, operation string, err error) error {
	h.logger.WarnContext(c.Request().Context(), "bank provider request failed",
		"operation", operation,
		"error", err,
		"trace_id", getTraceID(c),
	)

	switch {
	case stderrors.Is(err, services.ErrPlaidNotConfigured):
		return SendError(c, errors.PlaidNotConfigured)
	case stderrors.Is(err, services.ErrInvalidPublicToken), stderrors.Is(err, services.ErrPlaidInvalidToken):
		return SendError(c, errors.PlaidInvalidPublicToken)
	case stderrors.Is(err, services.ErrNoLinkedItems):
		return SendError(c, errors.BankNoLinkedItems)
	case stderrors.Is(err, repositories.ErrLinkedItemAlreadyExists):
		return SendError(c, errors.BankItemAlreadyLinked)
	case stderrors.Is(err, services.ErrCircuitBreakerOpen),
		stderrors.Is(err, services.ErrPlaidUnavailable),
		stderrors.Is(err, services.ErrPlaidRateLimited):
		return SendError(c, errors.PlaidUnavailable)
	case stderrors.Is(err, services.ErrPlaidRequestFailed),
		stderrors.Is(err, services.ErrPlaidItemLoginRequired):
		return SendError(c, errors.PlaidProviderError)
	}
	return SendSystemError(c, err)
}
