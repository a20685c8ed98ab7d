package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	minAccountNumberLength = 4
	maxAccountNumberLength = 34
)

// BankAccountHandler handles manually tracked bank accounts
type BankAccountHandler struct {
	bankAccountService services.BankAccountServiceInterface
	logger             *slog.Logger
}

func NewBankAccountHandler(bankAccountService services.BankAccountServiceInterface, logger *slog.Logger) *BankAccountHandler {
	return &BankAccountHandler{
		bankAccountService: bankAccountService,
		logger:             logger,
	}
}

// CreateBankAccount registers an account for the authenticated user
// @Summary Create bank account
// @Tags Bank Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateBankAccountRequest true "Account details"
// @Success 201 {object} dto.BankAccountResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001, BANK_002 or BANK_005"
// @Router /bank-accounts [post]
func (h *BankAccountHandler) CreateBankAccount(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateBankAccountRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if !isAccountNumber(req.AccountNumber) {
		return SendError(c, errors.BankInvalidAccountNumber)
	}

	account, err := h.bankAccountService.CreateAccount(c.Request().Context(), userID, &req)
	if err != nil {
		if stderrors.Is(err, models.ErrInvalidBankAccountType) {
			return SendError(c, errors.BankInvalidAccountType)
		}
		h.logger.ErrorContext(c.Request().Context(), "failed to create bank account", "error", err, "user_id", userID)
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, toBankAccountResponse(account))
}

// ListBankAccounts returns every account of the user in the path
// @Summary List bank accounts
// @Tags Bank Accounts
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {array} dto.BankAccountResponse
// @Router /bank-accounts/{userId} [get]
func (h *BankAccountHandler) ListBankAccounts(c echo.Context) error {
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
	}

	accounts, err := h.bankAccountService.ListAccounts(c.Request().Context(), userID)
	if err != nil {
		return SendSystemError(c, err)
	}

	response := make([]dto.BankAccountResponse, 0, len(accounts))
	for i := range accounts {
		response = append(response, toBankAccountResponse(&accounts[i]))
	}

	return c.JSON(http.StatusOK, response)
}

func toBankAccountResponse(account *models.BankAccount) dto.BankAccountResponse {
	return dto.BankAccountResponse{
		ID:            account.ID.String(),
		BankName:      account.BankName,
		AccountNumber: account.MaskedNumber(),
		AccountType:   account.AccountType,
		Balance:       account.Balance.StringFixed(2),
		Linked:        account.LinkedItemID != nil,
		CreatedAt:     account.CreatedAt,
	}
}

// isAccountNumber accepts 4-34 letters and digits, the IBAN upper bound.
// Spaces are ignored.
func isAccountNumber(raw string) bool {
	number := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(number) < minAccountNumberLength || len(number) > maxAccountNumberLength {
		return false
	}
	for _, r := range number {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
