package models

import "time"

// TransactionQuery narrows a user's ledger. Zero values mean no restriction.
type TransactionQuery struct {
	Since       *time.Time
	Importances []Importance
	Category    *Category
	Limit       int
}
