package services

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	analysisRequests     *prometheus.CounterVec
	analysisDuration     *prometheus.HistogramVec
	importsTotal         *prometheus.CounterVec
	importedTransactions *prometheus.CounterVec
	importDuration       prometheus.Histogram
	providerRequests     *prometheus.CounterVec
	circuitBreakerState  *prometheus.GaugeVec
	forecastPredictions  *prometheus.CounterVec
	forecastSlope        prometheus.Gauge
	ledgerWrites         *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	apiErrors            *prometheus.CounterVec
	prunedRows           *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors with the default registry, so
// it must be called once per process.
func NewPrometheusMetrics() MetricsRecorderInterface {
	return newPrometheusMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewPrometheusMetricsWithRegistry registers the collectors with reg
func NewPrometheusMetricsWithRegistry(reg prometheus.Registerer) MetricsRecorderInterface {
	return newPrometheusMetrics(promauto.With(reg))
}

func newPrometheusMetrics(factory promauto.Factory) *PrometheusMetrics {
	return &PrometheusMetrics{
		analysisRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_requests_total",
				Help: "Total number of analysis requests by view and outcome",
			},
			[]string{"view", "status"},
		),
		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_milliseconds",
				Help:    "Analysis computation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"view"},
		),
		importsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_imports_total",
				Help: "Total number of bank transaction imports",
			},
			[]string{"status"},
		),
		importedTransactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_imported_transactions_total",
				Help: "Transactions seen during imports, by outcome",
			},
			[]string{"outcome"},
		),
		importDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bank_import_duration_seconds",
				Help:    "Bank import duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_requests_total",
				Help: "Requests sent to the bank data provider",
			},
			[]string{"path", "status"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		forecastPredictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_predictions_total",
				Help: "Total number of expense predictions",
			},
			[]string{"status"},
		),
		forecastSlope: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "forecast_model_slope",
				Help: "Monthly trend of the loaded expense forecast model",
			},
		),
		ledgerWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_writes_total",
				Help: "Manual transaction, account and expense writes",
			},
			[]string{"entity", "operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Served HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Total number of API errors by code, endpoint, and status",
			},
			[]string{"code", "endpoint", "status"},
		),
		prunedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pruned_rows_total",
				Help: "Expired session and audit rows deleted, by table",
			},
			[]string{"table"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	status := tags["status"]

	switch name {
	case "analysis.request":
		m.analysisRequests.WithLabelValues(tags["view"], status).Inc()
	case "import.completed":
		m.importsTotal.WithLabelValues("success").Inc()
	case "import.failed":
		m.importsTotal.WithLabelValues("failed").Inc()
	case "provider.request":
		m.providerRequests.WithLabelValues(tags["path"], status).Inc()
	case "circuit_breaker.open":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(float64(StateOpen))
	case "circuit_breaker.half_open":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(float64(StateHalfOpen))
	case "circuit_breaker.closed":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(float64(StateClosed))
	case "forecast.prediction":
		m.forecastPredictions.WithLabelValues(status).Inc()
	case "ledger.write":
		m.ledgerWrites.WithLabelValues(tags["entity"], tags["operation"]).Inc()
	case "http.request":
		m.httpRequests.WithLabelValues(tags["method"], tags["route"], status).Inc()
	case "api.error":
		m.apiErrors.WithLabelValues(tags["code"], tags["endpoint"], status).Inc()
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch {
	case strings.HasPrefix(name, "analysis."):
		m.analysisDuration.WithLabelValues(strings.TrimPrefix(name, "analysis.")).Observe(float64(duration.Milliseconds()))
	case name == "import":
		m.importDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "import.transactions":
		if outcome := tags["outcome"]; outcome != "" {
			m.importedTransactions.WithLabelValues(outcome).Add(value)
		}
	case "forecast.slope":
		m.forecastSlope.Set(value)
	case "prune.deleted":
		m.prunedRows.WithLabelValues(tags["table"]).Add(value)
	}
}
