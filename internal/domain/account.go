package domain

import "time"

// Account is an institution-scoped balance record synced from the bank aggregator.
// Liabilities (credit cards, loans) carry a negative CurrentBalance.
type Account struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	InstitutionID string `json:"institution_id,omitempty"`

	Name    string `json:"name"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`

	CurrentBalance   float64  `json:"current_balance"`
	AvailableBalance *float64 `json:"available_balance,omitempty"`
	Currency         string   `json:"currency"`

	UpdatedAt time.Time `json:"updated_at"`
}

// IsLiability reports whether the account holds a debt.
func (a Account) IsLiability() bool {
	return a.CurrentBalance < 0
}
