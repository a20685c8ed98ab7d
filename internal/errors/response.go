package errors

import (
	"fmt"
	"net/http"
)

// ErrorResponse is the envelope every failed request answers with
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

type ErrorOption func(*ErrorResponse)

func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage replaces the code's default message
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
		},
	}
	for _, opt := range opts {
		opt(response)
	}
	return response
}

// NewValidationErrorFromList builds a VALIDATION_001 envelope, one detail per
// rejected field.
func NewValidationErrorFromList(details []string, traceID string) *ErrorResponse {
	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// WrapSystemError hides err behind SYSTEM_001 and hands it back for logging
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

// httpStatuses lists every code that does not answer 500
var httpStatuses = map[ErrorCode]int{
	ValidationGeneral:            http.StatusBadRequest,
	ValidationRequiredField:      http.StatusBadRequest,
	ValidationInvalidFormat:      http.StatusBadRequest,
	ValidationOutOfRange:         http.StatusBadRequest,
	ValidationInvalidEmail:       http.StatusBadRequest,
	ValidationInvalidDate:        http.StatusBadRequest,
	TransactionInvalidAmount:     http.StatusBadRequest,
	TransactionUnknownCategory:   http.StatusBadRequest,
	TransactionUnknownImportance: http.StatusBadRequest,
	BankInvalidAccountType:       http.StatusBadRequest,
	BankInvalidAccountNumber:     http.StatusBadRequest,
	ExpenseInvalidAmount:         http.StatusBadRequest,
	PlaidInvalidPublicToken:      http.StatusBadRequest,
	ForecastInvalidMonth:         http.StatusBadRequest,

	AuthInvalidCredentials: http.StatusUnauthorized,
	AuthMissingToken:       http.StatusUnauthorized,
	AuthExpiredToken:       http.StatusUnauthorized,
	AuthInvalidTokenFormat: http.StatusUnauthorized,

	AuthInsufficientPermission: http.StatusForbidden,
	AuthAccountLocked:          http.StatusForbidden,

	TransactionNotFound: http.StatusNotFound,
	BankAccountNotFound: http.StatusNotFound,
	ExpenseNotFound:     http.StatusNotFound,
	SystemRouteNotFound: http.StatusNotFound,

	AuthUserAlreadyExists: http.StatusConflict,
	BankItemAlreadyLinked: http.StatusConflict,

	BankNoLinkedItems: http.StatusUnprocessableEntity,

	SystemRateLimitExceeded: http.StatusTooManyRequests,

	PlaidProviderError: http.StatusBadGateway,

	SystemServiceUnavailable: http.StatusServiceUnavailable,
	PlaidNotConfigured:       http.StatusServiceUnavailable,
	PlaidUnavailable:         http.StatusServiceUnavailable,
	ForecastModelNotLoaded:   http.StatusServiceUnavailable,
}

// GetHTTPStatus maps a code to its status. Unlisted codes, the ANALYSIS and
// remaining SYSTEM codes among them, answer 500.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := httpStatuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}

func (er *ErrorResponse) String() string {
	return fmt.Sprintf("[%s] %s (trace: %s)", er.Error.Code, er.Error.Message, er.Error.TraceID)
}
