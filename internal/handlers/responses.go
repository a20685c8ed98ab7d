package handlers

import (
	"net/http"

	"spendwise/internal/errors"

	"github.com/labstack/echo/v4"
)

// Handlers answer failures through SendError (client and state errors, with
// the code picking the status) or SendSystemError (anything the caller must
// not see the cause of). Raw validator errors may be returned to Echo; the
// central error handler renders them.

// TraceIDContextKey matches the key RequestID stores the trace id under
const TraceIDContextKey = "trace_id"

// SuccessResponse wraps payloads that carry a message alongside the data
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse names the envelope in API annotations
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}

// SendError writes the envelope for code with the status the code maps to
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	response := errors.NewErrorResponse(code, getTraceID(c), opts...)
	return c.JSON(response.GetHTTPStatus(), response)
}

// SendSystemError writes a SYSTEM_001 envelope. err is never sent to the
// client; callers log it first.
func SendSystemError(c echo.Context, err error) error {
	response, _ := errors.WrapSystemError(err, getTraceID(c))
	return c.JSON(http.StatusInternalServerError, response)
}
