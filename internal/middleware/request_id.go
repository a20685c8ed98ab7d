package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"spendwise/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	TraceIDHeader     = "X-Trace-ID"
	TraceIDContextKey = "trace_id"
)

// RequestID accepts a caller supplied X-Trace-ID or mints one. The id is
// echoed in the response and carried on the request context as the audit
// correlation id.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			traceID := req.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			c.Set(TraceIDContextKey, traceID)
			c.SetRequest(req.WithContext(services.WithCorrelationID(req.Context(), traceID)))
			c.Response().Header().Set(TraceIDHeader, traceID)

			return next(c)
		}
	}
}

// RequestLogger logs one line per request and counts it by route and status.
// It must run inside RequestID so the trace id is available.
func RequestLogger(logger *slog.Logger, metrics services.MetricsRecorderInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			logger.Info("request served",
				"trace_id", GetTraceID(c),
				"method", c.Request().Method,
				"route", c.Path(),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			metrics.IncrementCounter("http.request", map[string]string{
				"method": c.Request().Method,
				"route":  c.Path(),
				"status": strconv.Itoa(status),
			})

			return nil
		}
	}
}

// GetTraceID returns the request's trace id, or "" outside RequestID
func GetTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}

func traceIDOrUnknown(c echo.Context) string {
	if traceID := GetTraceID(c); traceID != "" {
		return traceID
	}
	return "unknown"
}
