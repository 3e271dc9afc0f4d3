package domain

import (
	"strings"
	"time"
)

// UncategorizedCategory is used for transactions synced without a category path.
const UncategorizedCategory = "Uncategorized"

// Transaction sources.
const (
	SourcePlaid   = "plaid"
	SourceReceipt = "receipt"
)

// Transaction represents one normalized transaction of a user.
// This is a domain struct, not a storage row; the BigQuery repository maps it
// into the finance.transactions table schema.
type Transaction struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`

	Amount   float64   `json:"amount"` // signed: negative = outflow
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`

	Name         string   `json:"name"`
	MerchantName string   `json:"merchant_name,omitempty"`
	Category     []string `json:"category"` // most general first, e.g. ["Food and Drink", "Restaurants"]

	Pending   bool   `json:"pending"`
	IsAnomaly bool   `json:"is_anomaly"`
	Source    string `json:"source,omitempty"`
}

// PrimaryCategory returns the top-level category of the transaction.
func (t Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 || strings.TrimSpace(t.Category[0]) == "" {
		return UncategorizedCategory
	}
	return t.Category[0]
}

// Description is the text used by heuristics that match on transaction wording.
func (t Transaction) Description() string {
	if t.MerchantName == "" || strings.EqualFold(t.MerchantName, t.Name) {
		return t.Name
	}
	return t.Name + " " + t.MerchantName
}

// Day truncates the transaction date to a calendar day in its own location.
func (t Transaction) Day() string {
	return t.Date.Format("2006-01-02")
}
