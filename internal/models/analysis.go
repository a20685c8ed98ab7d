package models

import "time"

// CategoryTotal is the aggregate of one category over a user's ledger
type CategoryTotal struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryAggregate maps each category with at least one transaction to its totals.
type CategoryAggregate map[Category]CategoryTotal

// WastefulRecord is the lightweight projection of a wasteful transaction
type WastefulRecord struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant,omitempty"`
	Category    Category  `json:"category"`
}

// SavingsOpportunity describes a band of similar discretionary spend worth reducing.
type SavingsOpportunity struct {
	Category         Category `json:"category"`
	TotalAmount      float64  `json:"total_amount"`
	AverageAmount    float64  `json:"average_amount"`
	TransactionCount int      `json:"transaction_count"`
	PotentialSavings float64  `json:"potential_savings"`
	Recommendation   string   `json:"recommendation"`
}

// MonthlySummary covers transactions dated on or after the first day of the current month.
type MonthlySummary struct {
	TotalSpent        float64 `json:"total_spent"`
	EssentialExpenses float64 `json:"essential_expenses"`
	Savings           float64 `json:"savings"`
	WastefulSpending  float64 `json:"wasteful_spending"`
	SavingsRate       float64 `json:"savings_rate"`
	EssentialRate     float64 `json:"essential_rate"`
}

// MonthlyTotal is the summed spend of one calendar month number (1..12)
type MonthlyTotal struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
}
