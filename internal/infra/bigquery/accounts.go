package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountRow maps to finance.accounts.
type AccountRow struct {
	AccountID     string              `bigquery:"account_id"`
	UserID        string              `bigquery:"user_id"`
	InstitutionID bigquery.NullString `bigquery:"institution_id"`

	AccountName    string              `bigquery:"account_name"`
	AccountType    string              `bigquery:"account_type"`
	AccountSubtype bigquery.NullString `bigquery:"account_subtype"`

	CurrentBalance   *big.Rat `bigquery:"current_balance"`   // NUMERIC
	AvailableBalance *big.Rat `bigquery:"available_balance"` // NUMERIC, NULL when unknown
	Currency         string   `bigquery:"currency"`

	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func (r *AccountRow) toDomain() domain.Account {
	acc := domain.Account{
		ID:             r.AccountID,
		UserID:         r.UserID,
		InstitutionID:  r.InstitutionID.StringVal,
		Name:           r.AccountName,
		Type:           r.AccountType,
		Subtype:        r.AccountSubtype.StringVal,
		CurrentBalance: ratToFloat(r.CurrentBalance),
		Currency:       r.Currency,
	}
	if r.AvailableBalance != nil {
		v := ratToFloat(r.AvailableBalance)
		acc.AvailableBalance = &v
	}
	if r.UpdatedTS.Valid {
		acc.UpdatedAt = r.UpdatedTS.Timestamp
	}
	return acc
}

// ratToFloat converts a NUMERIC value to cents-precision float. NULL reads as zero.
func ratToFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// floatToRat converts an amount to NUMERIC, rounded to cents.
func floatToRat(v float64) *big.Rat {
	return decimal.NewFromFloat(v).Round(2).Rat()
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
