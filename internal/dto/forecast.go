package dto

import "time"

// PredictRequest asks for the expected spend of a calendar month
type PredictRequest struct {
	Month int `json:"month" validate:"month"`
}

type PredictResponse struct {
	PredictedExpense float64 `json:"predicted_expense"`
}

// TrainResponse describes the model that is now serving predictions
type TrainResponse struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Samples   int       `json:"samples"`
	Baseline  bool      `json:"baseline"`
	TrainedAt time.Time `json:"trained_at"`
}
