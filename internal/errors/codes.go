package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"
	AuthUserAlreadyExists      ErrorCode = "AUTH_007"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_005"
	ValidationInvalidDate   ErrorCode = "VALIDATION_007"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound          ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount     ErrorCode = "TRANSACTION_002"
	TransactionUnknownCategory   ErrorCode = "TRANSACTION_003"
	TransactionUnknownImportance ErrorCode = "TRANSACTION_004"
)

// Bank account and linked item error codes (BANK_*)
const (
	BankAccountNotFound      ErrorCode = "BANK_001"
	BankInvalidAccountType   ErrorCode = "BANK_002"
	BankItemAlreadyLinked    ErrorCode = "BANK_003"
	BankNoLinkedItems        ErrorCode = "BANK_004"
	BankInvalidAccountNumber ErrorCode = "BANK_005"
)

// Expense error codes (EXPENSE_*)
const (
	ExpenseNotFound      ErrorCode = "EXPENSE_001"
	ExpenseInvalidAmount ErrorCode = "EXPENSE_002"
)

// Analysis error codes (ANALYSIS_*)
const (
	AnalysisFailed      ErrorCode = "ANALYSIS_001"
	AnalysisCorruptData ErrorCode = "ANALYSIS_002"
)

// Bank data provider error codes (PLAID_*)
const (
	PlaidNotConfigured      ErrorCode = "PLAID_001"
	PlaidProviderError      ErrorCode = "PLAID_002"
	PlaidInvalidPublicToken ErrorCode = "PLAID_003"
	PlaidUnavailable        ErrorCode = "PLAID_004"
)

// Forecast error codes (FORECAST_*)
const (
	ForecastModelNotLoaded ErrorCode = "FORECAST_001"
	ForecastInvalidMonth   ErrorCode = "FORECAST_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemRouteNotFound      ErrorCode = "SYSTEM_007"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials:     "Invalid username or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthAccountLocked:          "Account is locked or disabled",
	AuthUserAlreadyExists:      "Username or email is already registered",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidEmail:  "Invalid email address format",
	ValidationInvalidDate:   "Invalid date format or range",

	// Transaction errors
	TransactionNotFound:          "Transaction not found",
	TransactionInvalidAmount:     "Invalid transaction amount",
	TransactionUnknownCategory:   "Unknown transaction category",
	TransactionUnknownImportance: "Unknown transaction importance",

	// Bank errors
	BankAccountNotFound:      "Bank account not found",
	BankInvalidAccountType:   "Invalid bank account type",
	BankItemAlreadyLinked:    "This bank connection is already linked",
	BankNoLinkedItems:        "No linked bank connections to import from",
	BankInvalidAccountNumber: "Invalid bank account number",

	// Expense errors
	ExpenseNotFound:      "Expense not found",
	ExpenseInvalidAmount: "Expense amount must be greater than zero",

	// Analysis errors
	AnalysisFailed:      "Spending analysis could not be computed",
	AnalysisCorruptData: "Stored transaction data contains an unknown category or importance",

	// Provider errors
	PlaidNotConfigured:      "Bank data provider is not configured",
	PlaidProviderError:      "Bank data provider returned an error",
	PlaidInvalidPublicToken: "Public token is required",
	PlaidUnavailable:        "Bank data provider is temporarily unavailable",

	// Forecast errors
	ForecastModelNotLoaded: "Forecast model is not loaded",
	ForecastInvalidMonth:   "Month must be a positive integer",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "Resource not found",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
