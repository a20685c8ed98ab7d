package services

import (
	"sort"
	"time"

	"spendwise/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MerchantInfo is a demo merchant with the category its purchases fall under
type MerchantInfo struct {
	Name     string
	Category models.Category
}

type transactionGenerator struct {
	merchantPool []MerchantInfo
	policy       CategorizationPolicyInterface
	faker        *gofakeit.Faker
}

const (
	billPaymentHour    = 9
	businessHoursStart = 7
	businessHoursEnd   = 23
)

// NewTransactionGenerator creates a generator whose output is fully
// determined by seed.
func NewTransactionGenerator(seed uint64, policy CategorizationPolicyInterface) TransactionGeneratorInterface {
	return &transactionGenerator{
		merchantPool: initializeMerchantPool(),
		policy:       policy,
		faker:        gofakeit.New(seed),
	}
}

func initializeMerchantPool() []MerchantInfo {
	return []MerchantInfo{
		// Essentials
		{"Kroger", models.CategoryEssential},
		{"Whole Foods Market", models.CategoryEssential},
		{"Trader Joe's", models.CategoryEssential},
		{"Costco Wholesale", models.CategoryEssential},
		{"Aldi", models.CategoryEssential},

		// Transport
		{"Uber", models.CategoryTransport},
		{"Lyft", models.CategoryTransport},
		{"Shell", models.CategoryTransport},
		{"Chevron", models.CategoryTransport},
		{"Metro Transit", models.CategoryTransport},

		// Shopping
		{"Amazon.com", models.CategoryShopping},
		{"Best Buy", models.CategoryShopping},
		{"Target", models.CategoryShopping},
		{"Nordstrom", models.CategoryShopping},
		{"IKEA", models.CategoryShopping},

		// Entertainment
		{"Netflix", models.CategoryEntertainment},
		{"Spotify", models.CategoryEntertainment},
		{"AMC Theaters", models.CategoryEntertainment},
		{"PlayStation Network", models.CategoryEntertainment},
		{"Starbucks", models.CategoryEntertainment},

		// Healthcare
		{"CVS Pharmacy", models.CategoryHealthcare},
		{"Walgreens", models.CategoryHealthcare},
		{"Quest Diagnostics", models.CategoryHealthcare},

		// Education
		{"Udemy", models.CategoryEducation},
		{"Coursera", models.CategoryEducation},
		{"Barnes & Noble", models.CategoryEducation},

		// Savings
		{"Vanguard Transfer", models.CategorySavings},
		{"Ally Savings", models.CategorySavings},

		// Misc
		{"USPS", models.CategoryMisc},
		{"Etsy", models.CategoryMisc},
	}
}

var recurringBills = []MerchantInfo{
	{"Rent Payment", models.CategoryEssential},
	{"Electric Company", models.CategoryEssential},
	{"Internet Provider", models.CategoryEssential},
	{"Phone Bill", models.CategoryEssential},
	{"Gym Membership", models.CategoryHealthcare},
}

func (g *transactionGenerator) selectMerchant() MerchantInfo {
	return g.merchantPool[g.faker.IntRange(0, len(g.merchantPool)-1)]
}

// GenerateAmount returns a realistic amount for the category
func (g *transactionGenerator) GenerateAmount(category models.Category) decimal.Decimal {
	minValue, maxValue := amountRange(category)
	return decimal.NewFromFloat(g.faker.Price(minValue, maxValue)).Round(2)
}

func amountRange(category models.Category) (float64, float64) {
	ranges := map[models.Category][2]float64{
		models.CategoryEssential:     {15.00, 250.00},
		models.CategorySavings:       {100.00, 600.00},
		models.CategoryEducation:     {20.00, 300.00},
		models.CategoryHealthcare:    {20.00, 300.00},
		models.CategoryEntertainment: {8.00, 120.00},
		models.CategoryShopping:      {25.00, 450.00},
		models.CategoryTransport:     {10.00, 260.00},
		models.CategoryMisc:          {5.00, 150.00},
	}

	if r, exists := ranges[category]; exists {
		return r[0], r[1]
	}
	return 10.00, 100.00
}

// GenerateTimestamp returns a time within [startDate, endDate], preferring
// waking hours on the drawn day.
func (g *transactionGenerator) GenerateTimestamp(startDate, endDate time.Time) time.Time {
	diff := endDate.Sub(startDate)
	if diff <= 0 {
		return startDate
	}
	timestamp := startDate.Add(time.Duration(g.faker.Float64Range(0, 1) * float64(diff)))

	hour := g.faker.IntRange(businessHoursStart, businessHoursEnd-1)
	minute := g.faker.IntRange(0, 59)

	result := time.Date(timestamp.Year(), timestamp.Month(), timestamp.Day(), hour, minute, 0, 0, time.UTC)
	if result.Before(startDate) {
		return startDate
	}
	if result.After(endDate) {
		return endDate
	}
	return result
}

// GenerateRecurringBills produces one payment per bill per month on a fixed
// day between startDate and endDate.
func (g *transactionGenerator) GenerateRecurringBills(userID uuid.UUID, startDate, endDate time.Time) []models.Transaction {
	transactions := make([]models.Transaction, 0)

	for _, bill := range recurringBills {
		billDay := g.faker.IntRange(1, 28)
		amount := g.GenerateAmount(bill.Category)

		month := time.Date(startDate.Year(), startDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !month.After(endDate) {
			billDate := time.Date(month.Year(), month.Month(), billDay, billPaymentHour, 0, 0, 0, time.UTC)
			if !billDate.Before(startDate) && !billDate.After(endDate) {
				transactions = append(transactions, g.newTransaction(userID, billDate, amount, bill, "Bill Payment - "+bill.Name))
			}
			month = month.AddDate(0, 1, 0)
		}
	}

	sortTransactionsByDate(transactions)
	return transactions
}

// GenerateHistoricalTransactions spreads count purchases evenly across the
// range, in chronological order.
func (g *transactionGenerator) GenerateHistoricalTransactions(userID uuid.UUID, startDate, endDate time.Time, count int) []models.Transaction {
	if count <= 0 || !endDate.After(startDate) {
		return []models.Transaction{}
	}

	slot := endDate.Sub(startDate) / time.Duration(count)
	if slot < time.Hour {
		slot = time.Hour
	}

	transactions := make([]models.Transaction, 0, count)
	for i := 0; i < count; i++ {
		slotStart := startDate.Add(time.Duration(i) * slot)
		if slotStart.After(endDate) {
			slotStart = startDate
		}
		slotEnd := slotStart.Add(slot)
		if slotEnd.After(endDate) {
			slotEnd = endDate
		}

		merchant := g.selectMerchant()
		amount := g.GenerateAmount(merchant.Category)
		date := g.GenerateTimestamp(slotStart, slotEnd)
		transactions = append(transactions, g.newTransaction(userID, date, amount, merchant, "Purchase at "+merchant.Name))
	}

	sortTransactionsByDate(transactions)
	return transactions
}

func (g *transactionGenerator) newTransaction(userID uuid.UUID, date time.Time, amount decimal.Decimal, merchant MerchantInfo, description string) models.Transaction {
	return models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Description: description,
		Merchant:    merchant.Name,
		Category:    merchant.Category,
		Importance:  g.policy.Importance(merchant.Category, amount.InexactFloat64()),
		Notes:       g.faker.Sentence(4),
		CreatedAt:   date,
		UpdatedAt:   date,
	}
}

func sortTransactionsByDate(transactions []models.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})
}
