package handlers

import (
	"context"
	"net/http"
	"time"

	"spendwise/internal/errors"
	"spendwise/internal/services"

	"github.com/labstack/echo/v4"
)

// DatabasePinger is satisfied by *database.DB
type DatabasePinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthCheckHandler struct {
	db              DatabasePinger
	forecastService services.ForecastServiceInterface
	plaidConfigured bool
	now             func() time.Time
}

func NewHealthCheckHandler(db DatabasePinger, forecastService services.ForecastServiceInterface, plaidConfigured bool) *HealthCheckHandler {
	return &HealthCheckHandler{
		db:              db,
		forecastService: forecastService,
		plaidConfigured: plaidConfigured,
		now:             time.Now,
	}
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports database connectivity. The forecast model and bank provider are reported but never fail the check.
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,time=string,forecast_model=string,bank_provider=string}
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - database unreachable"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	forecast := "not_loaded"
	if h.forecastService != nil && h.forecastService.Loaded() {
		forecast = "loaded"
	}
	provider := "not_configured"
	if h.plaidConfigured {
		provider = "configured"
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":         "healthy",
		"time":           h.now().UTC().Format(time.RFC3339),
		"forecast_model": forecast,
		"bank_provider":  provider,
	})
}
