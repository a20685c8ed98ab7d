package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"spendwise/internal/errors"

	"github.com/labstack/echo/v4"
)

// PanicRecovery turns a handler panic into a SYSTEM_001 response and logs the
// stack under the request's trace id.
func PanicRecovery(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				traceID := traceIDOrUnknown(c)
				logger.Error("panic recovered",
					"trace_id", traceID,
					"panic", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"stack", string(debug.Stack()),
				)

				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, errors.NewErrorResponse(errors.SystemInternalError, traceID))
			}()

			return next(c)
		}
	}
}
