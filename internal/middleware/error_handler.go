package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"spendwise/internal/errors"
	"spendwise/internal/services"
	"spendwise/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// NewHTTPErrorHandler renders every error that reaches Echo as the standard
// error envelope. Client errors log at warn, server errors at error.
func NewHTTPErrorHandler(logger *slog.Logger, metrics services.MetricsRecorderInterface) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		traceID := traceIDOrUnknown(c)
		response, status := toErrorResponse(err, traceID)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request().Context(), level, "request failed",
			"trace_id", traceID,
			"error_code", response.Error.Code,
			"status", status,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err.Error(),
		)

		metrics.IncrementCounter("api.error", map[string]string{
			"code":     response.Error.Code,
			"endpoint": c.Path(),
			"status":   strconv.Itoa(status),
		})

		if sendErr := c.JSON(status, response); sendErr != nil {
			logger.Error("failed to write error response", "trace_id", traceID, "error", sendErr)
		}
	}
}

func toErrorResponse(err error, traceID string) (*errors.ErrorResponse, int) {
	var httpErr *echo.HTTPError
	if stderrors.As(err, &httpErr) {
		return errors.NewErrorResponse(
			errorCodeForStatus(httpErr.Code),
			traceID,
			errors.WithMessage(fmt.Sprint(httpErr.Message)),
		), httpErr.Code
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		return errors.NewValidationErrorFromList(validation.FormatErrors(validationErrs), traceID), http.StatusBadRequest
	}

	response, _ := errors.WrapSystemError(err, traceID)
	return response, response.GetHTTPStatus()
}

func errorCodeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return errors.ValidationGeneral
	case http.StatusUnauthorized:
		return errors.AuthMissingToken
	case http.StatusForbidden:
		return errors.AuthInsufficientPermission
	case http.StatusNotFound:
		return errors.SystemRouteNotFound
	case http.StatusTooManyRequests:
		return errors.SystemRateLimitExceeded
	case http.StatusInternalServerError:
		return errors.SystemInternalError
	case http.StatusServiceUnavailable:
		return errors.SystemServiceUnavailable
	default:
		return errors.SystemUnexpectedError
	}
}
