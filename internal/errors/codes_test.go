package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var codeFormat = regexp.MustCompile(`^(AUTH|VALIDATION|TRANSACTION|BANK|EXPENSE|ANALYSIS|PLAID|FORECAST|SYSTEM)_\d{3}$`)

func TestErrorCatalog(t *testing.T) {
	messages := make(map[string]ErrorCode, len(errorMessages))

	for code, message := range errorMessages {
		assert.Regexp(t, codeFormat, string(code))
		assert.True(t, IsValidErrorCode(code), code)
		assert.NotEmpty(t, message, code)
		assert.NotEqual(t, "An error occurred", message, code)

		if other, dup := messages[message]; dup {
			t.Errorf("%s and %s share the message %q", code, other, message)
		}
		messages[message] = code
	}
}

func TestGetErrorMessage(t *testing.T) {
	cases := map[ErrorCode]string{
		AuthInvalidCredentials:     "Invalid username or password",
		AuthMissingToken:           "Authorization token is required",
		ValidationGeneral:          "Validation failed",
		TransactionUnknownCategory: "Unknown transaction category",
		ForecastModelNotLoaded:     "Forecast model is not loaded",
		SystemInternalError:        "An unexpected error occurred. Please contact support with trace ID",
		"NOT_A_CODE":               "An error occurred",
	}
	for code, want := range cases {
		assert.Equal(t, want, GetErrorMessage(code), code)
	}
}

func TestIsValidErrorCode_RejectsUnknown(t *testing.T) {
	for _, code := range []ErrorCode{"", "AUTH_999", "CUSTOMER_001", "auth_001"} {
		assert.False(t, IsValidErrorCode(code), code)
	}
}
