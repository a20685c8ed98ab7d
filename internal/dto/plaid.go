package dto

// ---------- API requests / responses ----------

type ExchangeTokenRequest struct {
	PublicToken     string `json:"public_token" validate:"required"`
	InstitutionName string `json:"institution_name,omitempty" validate:"max=255"`
}

type ExchangeTokenResponse struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

type FetchTransactionsResponse struct {
	Message  string `json:"message"`
	Accounts int    `json:"accounts"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// ---------- Plaid wire format ----------

type PlaidExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

type PlaidAccountsResponse struct {
	Accounts  []PlaidAccount `json:"accounts"`
	Item      PlaidItem      `json:"item"`
	RequestID string         `json:"request_id"`
}

type PlaidAccount struct {
	AccountID    string        `json:"account_id"`
	Balances     PlaidBalances `json:"balances"`
	Mask         string        `json:"mask"`
	Name         string        `json:"name"`
	OfficialName string        `json:"official_name"`
	Type         string        `json:"type"`
	Subtype      string        `json:"subtype"`
}

type PlaidBalances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	IsoCurrencyCode string   `json:"iso_currency_code"`
}

type PlaidItem struct {
	ItemID        string `json:"item_id"`
	InstitutionID string `json:"institution_id"`
}

// PlaidTransactionsOptions pages /transactions/get
type PlaidTransactionsOptions struct {
	Count  int `json:"count,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type PlaidTransactionsResponse struct {
	Accounts          []PlaidAccount     `json:"accounts"`
	Transactions      []PlaidTransaction `json:"transactions"`
	TotalTransactions int                `json:"total_transactions"`
	Item              PlaidItem          `json:"item"`
	RequestID         string             `json:"request_id"`
}

// PlaidTransaction is a posted or pending transaction. Date is YYYY-MM-DD and
// Category is the legacy hierarchy, most general label first.
type PlaidTransaction struct {
	TransactionID string   `json:"transaction_id"`
	AccountID     string   `json:"account_id"`
	Amount        float64  `json:"amount"`
	Date          string   `json:"date"`
	Name          string   `json:"name"`
	MerchantName  string   `json:"merchant_name"`
	Pending       bool     `json:"pending"`
	Category      []string `json:"category"`
}

type PlaidErrorResponse struct {
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}
