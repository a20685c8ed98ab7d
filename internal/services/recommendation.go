package services

import (
	"fmt"

	"spendwise/internal/models"
)

// Recommend returns the advice text for a band of discretionary spending.
func Recommend(category models.Category, averageAmount float64, frequency int) string {
	switch category {
	case models.CategoryEntertainment:
		return fmt.Sprintf("Consider reducing entertainment expenses (avg. $%.2f, %d times). Try finding free or lower-cost alternatives.", averageAmount, frequency)
	case models.CategoryShopping:
		return fmt.Sprintf("Shopping expenses average $%.2f (%d transactions). Consider implementing a 24-hour rule before non-essential purchases.", averageAmount, frequency)
	case models.CategoryMisc:
		return fmt.Sprintf("You have %d miscellaneous expenses averaging $%.2f. Try categorizing these better to identify potential savings.", frequency, averageAmount)
	default:
		return fmt.Sprintf("Consider if all %d transactions in %s (avg. $%.2f) are necessary.", frequency, category, averageAmount)
	}
}
