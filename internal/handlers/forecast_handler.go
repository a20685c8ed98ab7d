package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/services"
	"spendwise/internal/validation"

	"github.com/labstack/echo/v4"
)

// ForecastHandler serves monthly expense predictions from the loaded model
type ForecastHandler struct {
	forecastService services.ForecastServiceInterface
	modelPath       string
	logger          *slog.Logger
}

// NewForecastHandler creates a handler. A non-empty modelPath makes Train
// persist the refitted model there.
func NewForecastHandler(forecastService services.ForecastServiceInterface, modelPath string, logger *slog.Logger) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		modelPath:       modelPath,
		logger:          logger,
	}
}

// Predict returns the expected spend for a calendar month
// @Summary Predict monthly expense
// @Tags Forecast
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PredictRequest true "Month 1-12"
// @Success 200 {object} dto.PredictResponse
// @Failure 400 {object} errors.ErrorResponse "FORECAST_002 - Invalid month"
// @Failure 503 {object} errors.ErrorResponse "FORECAST_001 - Model not loaded"
// @Router /predict [post]
func (h *ForecastHandler) Predict(c echo.Context) error {
	var req dto.PredictRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ForecastInvalidMonth, errors.WithDetails(validation.FormatErrors(err)...))
	}

	predicted, err := h.forecastService.Predict(req.Month)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrInvalidMonth):
			return SendError(c, errors.ForecastInvalidMonth)
		case stderrors.Is(err, services.ErrModelNotLoaded):
			return SendError(c, errors.ForecastModelNotLoaded)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.PredictResponse{PredictedExpense: predicted})
}

// Train refits the model on every stored transaction and expense
// @Summary Retrain forecast model
// @Tags Forecast
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.TrainResponse
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Admin only"
// @Router /admin/forecast/train [post]
func (h *ForecastHandler) Train(c echo.Context) error {
	ctx := c.Request().Context()

	model, err := h.forecastService.Train(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "forecast training failed", "error", err, "trace_id", getTraceID(c))
		return SendSystemError(c, err)
	}

	if h.modelPath != "" {
		if err := h.forecastService.Save(h.modelPath); err != nil {
			// Non-critical: the refitted model is already serving predictions
			h.logger.WarnContext(ctx, "failed to persist forecast model", "error", err, "path", h.modelPath)
		}
	}

	return c.JSON(http.StatusOK, dto.TrainResponse{
		Slope:     model.Slope,
		Intercept: model.Intercept,
		Samples:   model.Samples,
		Baseline:  model.Baseline,
		TrainedAt: model.TrainedAt,
	})
}
