package services

import (
	"testing"

	"spendwise/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRecommend(t *testing.T) {
	testCases := []struct {
		name      string
		category  models.Category
		average   float64
		frequency int
		expected  string
	}{
		{
			name:      "entertainment",
			category:  models.CategoryEntertainment,
			average:   32,
			frequency: 6,
			expected:  "Consider reducing entertainment expenses (avg. $32.00, 6 times). Try finding free or lower-cost alternatives.",
		},
		{
			name:      "shopping",
			category:  models.CategoryShopping,
			average:   45.5,
			frequency: 4,
			expected:  "Shopping expenses average $45.50 (4 transactions). Consider implementing a 24-hour rule before non-essential purchases.",
		},
		{
			name:      "misc",
			category:  models.CategoryMisc,
			average:   12.5,
			frequency: 9,
			expected:  "You have 9 miscellaneous expenses averaging $12.50. Try categorizing these better to identify potential savings.",
		},
		{
			name:      "other categories",
			category:  models.CategoryTransport,
			average:   210,
			frequency: 3,
			expected:  "Consider if all 3 transactions in transport (avg. $210.00) are necessary.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Recommend(tc.category, tc.average, tc.frequency))
		})
	}
}
