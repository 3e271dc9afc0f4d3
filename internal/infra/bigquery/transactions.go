package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// TransactionRow maps to finance.transactions.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	UserID        string `bigquery:"user_id"`
	AccountID     string `bigquery:"account_id"`

	TransactionDate civil.Date `bigquery:"transaction_date"`
	Amount          *big.Rat   `bigquery:"amount"` // NUMERIC, negative = outflow
	Currency        string     `bigquery:"currency"`

	Name         string              `bigquery:"name"`
	MerchantName bigquery.NullString `bigquery:"merchant_name"`
	Category     []string            `bigquery:"category"` // REPEATED STRING

	IsPending bool   `bigquery:"is_pending"`
	IsAnomaly bool   `bigquery:"is_anomaly"`
	Source    string `bigquery:"source"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func newTransactionRow(tx domain.Transaction, now time.Time) *TransactionRow {
	source := tx.Source
	if source == "" {
		source = domain.SourcePlaid
	}
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		AccountID:       tx.AccountID,
		TransactionDate: civil.DateOf(tx.Date),
		Amount:          floatToRat(tx.Amount),
		Currency:        tx.Currency,
		Name:            tx.Name,
		MerchantName:    nullString(tx.MerchantName),
		Category:        append([]string(nil), tx.Category...),
		IsPending:       tx.Pending,
		IsAnomaly:       tx.IsAnomaly,
		Source:          source,
		CreatedTS:       now,
	}
}

func (r *TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:           r.TransactionID,
		UserID:       r.UserID,
		AccountID:    r.AccountID,
		Amount:       ratToFloat(r.Amount),
		Currency:     r.Currency,
		Date:         r.TransactionDate.In(time.UTC),
		Name:         r.Name,
		MerchantName: r.MerchantName.StringVal,
		Category:     r.Category,
		Pending:      r.IsPending,
		IsAnomaly:    r.IsAnomaly,
		Source:       r.Source,
	}
}
