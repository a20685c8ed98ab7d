package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/repositories"
	"spendwise/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ExpenseHandler exposes CRUD over the authenticated user's expenses
type ExpenseHandler struct {
	expenseService services.ExpenseServiceInterface
	logger         *slog.Logger
}

func NewExpenseHandler(expenseService services.ExpenseServiceInterface, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// @Summary Create expense
// @Tags Expenses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ExpenseRequest true "Expense"
// @Success 201 {object} dto.ExpenseResponse
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	req, err := h.bindExpense(c)
	if req == nil {
		return err
	}

	expense, err := h.expenseService.CreateExpense(c.Request().Context(), userID, req)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// @Summary List expenses
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.ExpenseResponse
// @Router /expenses [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	expenses, err := h.expenseService.ListExpenses(c.Request().Context(), userID)
	if err != nil {
		return SendSystemError(c, err)
	}

	response := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		response = append(response, toExpenseResponse(&expenses[i]))
	}
	return c.JSON(http.StatusOK, response)
}

// @Summary Get expense
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Expense ID (UUID)"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001 - Expense not found"
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	userID, expenseID, ok, err := h.ownerAndID(c)
	if !ok {
		return err
	}

	expense, err := h.expenseService.GetExpense(c.Request().Context(), userID, expenseID)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// @Summary Update expense
// @Tags Expenses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Expense ID (UUID)"
// @Param request body dto.ExpenseRequest true "Expense"
// @Success 200 {object} dto.ExpenseResponse
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	userID, expenseID, ok, err := h.ownerAndID(c)
	if !ok {
		return err
	}

	req, err := h.bindExpense(c)
	if req == nil {
		return err
	}

	expense, err := h.expenseService.UpdateExpense(c.Request().Context(), userID, expenseID, req)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// @Summary Delete expense
// @Tags Expenses
// @Security BearerAuth
// @Param id path string true "Expense ID (UUID)"
// @Success 204
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	userID, expenseID, ok, err := h.ownerAndID(c)
	if !ok {
		return err
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), userID, expenseID); err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// bindExpense returns a nil request when a response has already been decided
func (h *ExpenseHandler) bindExpense(c echo.Context) (*dto.ExpenseRequest, error) {
	var req dto.ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return nil, SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if !req.Amount.IsPositive() {
		return nil, SendError(c, errors.ExpenseInvalidAmount)
	}

	if err := c.Validate(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ownerAndID reports ok=false together with the already-sent response
func (h *ExpenseHandler) ownerAndID(c echo.Context) (uuid.UUID, uuid.UUID, bool, error) {
	userID, err := callerID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, false, SendError(c, errors.AuthMissingToken)
	}

	expenseID, err := pathUUID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false, SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid expense ID format"))
	}

	return userID, expenseID, true, nil
}

func (h *ExpenseHandler) sendExpenseError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, repositories.ErrExpenseNotFound):
		return SendError(c, errors.ExpenseNotFound)
	case stderrors.Is(err, models.ErrInvalidExpenseAmount):
		return SendError(c, errors.ExpenseInvalidAmount)
	case stderrors.Is(err, models.ErrUnknownCategory):
		return SendError(c, errors.TransactionUnknownCategory)
	}

	h.logger.ErrorContext(c.Request().Context(), "expense request failed", "error", err, "trace_id", getTraceID(c))
	return SendSystemError(c, err)
}

func toExpenseResponse(e *models.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		Amount:      e.Amount.StringFixed(2),
		Category:    e.Category.String(),
		Description: e.Description,
		Date:        e.Date,
	}
}
