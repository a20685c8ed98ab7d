package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID attaches a request trace id so service logs can be joined
// with access logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogAnalysisComputed(ctx context.Context, view string, userID uuid.UUID, rows int, durationMs int64) {
	al.logger.DebugContext(ctx, "analysis computed",
		slog.String("event_type", "analysis_computed"),
		slog.String("view", view),
		slog.String("user_id", userID.String()),
		slog.Int("rows", rows),
		slog.Int64("duration_ms", durationMs),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogAnalysisFailed(ctx context.Context, view string, userID uuid.UUID, errorMsg string) {
	al.logger.ErrorContext(ctx, "analysis failed",
		slog.String("event_type", "analysis_failed"),
		slog.String("view", view),
		slog.String("user_id", userID.String()),
		slog.String("error", errorMsg),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogImportStarted(ctx context.Context, userID uuid.UUID, items int) {
	al.logger.InfoContext(ctx, "transaction import started",
		slog.String("event_type", "import_started"),
		slog.String("user_id", userID.String()),
		slog.Int("linked_items", items),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogImportCompleted(ctx context.Context, userID uuid.UUID, accounts, imported, skipped int, durationMs int64) {
	al.logger.InfoContext(ctx, "transaction import completed",
		slog.String("event_type", "import_completed"),
		slog.String("user_id", userID.String()),
		slog.Int("accounts", accounts),
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogImportFailed(ctx context.Context, userID uuid.UUID, itemID string, errorMsg string) {
	al.logger.WarnContext(ctx, "transaction import failed",
		slog.String("event_type", "import_failed"),
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID),
		slog.String("error", errorMsg),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogProviderRequestFailed(ctx context.Context, provider, path string, statusCode int, errorMsg string) {
	al.logger.ErrorContext(ctx, "provider request failed",
		slog.String("event_type", "provider_request_failed"),
		slog.String("provider", provider),
		slog.String("path", path),
		slog.Int("status", statusCode),
		slog.String("error", errorMsg),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string) {
	al.logger.WarnContext(ctx, "circuit breaker state change",
		slog.String("event_type", "circuit_breaker_state_change"),
		slog.String("service", service),
		slog.String("old_state", oldState),
		slog.String("new_state", newState),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogForecastTrained(ctx context.Context, samples int, slope, intercept float64, baseline bool) {
	al.logger.InfoContext(ctx, "forecast model trained",
		slog.String("event_type", "forecast_trained"),
		slog.Int("samples", samples),
		slog.Float64("slope", slope),
		slog.Float64("intercept", intercept),
		slog.Bool("baseline", baseline),
		slog.Time("timestamp", time.Now()),
	)
}

func getCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if correlationID, ok := ctx.Value(correlationIDKey).(string); ok {
		return correlationID
	}

	return ""
}
