package dto

import "spendwise/internal/models"

// SpendingPatternsResponse splits the category aggregate into the two maps
// the dashboard charts consume.
type SpendingPatternsResponse struct {
	CategoryTotals map[string]float64 `json:"category_totals"`
	CategoryCounts map[string]int     `json:"category_counts"`
}

// NewSpendingPatternsResponse flattens an aggregate. Categories without
// transactions are absent from both maps.
func NewSpendingPatternsResponse(aggregate models.CategoryAggregate) SpendingPatternsResponse {
	response := SpendingPatternsResponse{
		CategoryTotals: make(map[string]float64, len(aggregate)),
		CategoryCounts: make(map[string]int, len(aggregate)),
	}
	for category, total := range aggregate {
		response.CategoryTotals[category.String()] = total.Total
		response.CategoryCounts[category.String()] = total.Count
	}
	return response
}
