package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRowRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		ID:           "tx-1",
		UserID:       "user-1",
		AccountID:    "acc-1",
		Amount:       -12.345,
		Currency:     "GBP",
		Date:         time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		Name:         "TESCO STORES 1234",
		MerchantName: "Tesco",
		Category:     []string{"Food and Drink", "Groceries"},
		IsAnomaly:    true,
	}

	row := newTransactionRow(tx, now)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 14}, row.TransactionDate)
	assert.Equal(t, 0, row.Amount.Cmp(big.NewRat(-1235, 100)), "amount rounded to cents, got %s", row.Amount.FloatString(2))
	assert.Equal(t, domain.SourcePlaid, row.Source)
	assert.True(t, row.MerchantName.Valid)
	assert.Equal(t, now, row.CreatedTS)

	back := row.toDomain()
	assert.Equal(t, tx.ID, back.ID)
	assert.Equal(t, -12.35, back.Amount)
	assert.Equal(t, tx.Date, back.Date)
	assert.Equal(t, tx.Category, back.Category)
	assert.Equal(t, "Tesco", back.MerchantName)
	assert.True(t, back.IsAnomaly)
}

func TestNewTransactionRowKeepsSourceAndCopiesCategory(t *testing.T) {
	tx := domain.Transaction{ID: "r", UserID: "u", Source: domain.SourceReceipt, Category: []string{"Shops"}}
	row := newTransactionRow(tx, time.Now())
	assert.Equal(t, domain.SourceReceipt, row.Source)
	assert.False(t, row.MerchantName.Valid)

	row.Category[0] = "changed"
	assert.Equal(t, "Shops", tx.Category[0])
}

func TestAccountRowToDomain(t *testing.T) {
	updated := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		row           AccountRow
		wantAvailable *float64
		wantBalance   float64
	}{
		{
			name: "with available balance",
			row: AccountRow{
				AccountID:        "a1",
				AccountName:      "Current",
				CurrentBalance:   big.NewRat(150050, 100),
				AvailableBalance: big.NewRat(1400, 1),
				UpdatedTS:        bigquery.NullTimestamp{Timestamp: updated, Valid: true},
			},
			wantAvailable: func() *float64 { v := 1400.0; return &v }(),
			wantBalance:   1500.5,
		},
		{
			name: "null balances",
			row: AccountRow{
				AccountID:   "a2",
				AccountName: "Card",
			},
			wantBalance: 0,
		},
		{
			name: "liability",
			row: AccountRow{
				AccountID:      "a3",
				CurrentBalance: big.NewRat(-250, 1),
			},
			wantBalance: -250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := tt.row.toDomain()
			assert.Equal(t, tt.wantBalance, acc.CurrentBalance)
			assert.Equal(t, tt.wantAvailable, acc.AvailableBalance)
			assert.Equal(t, tt.row.UpdatedTS.Valid, !acc.UpdatedAt.IsZero())
		})
	}
}

func TestListTransactionsSQL(t *testing.T) {
	ds := Dataset{Project: "proj", Name: "finance"}

	open := listTransactionsSQL(ds, false)
	assert.Contains(t, open, "`proj.finance.transactions`")
	assert.NotContains(t, open, "@end_date")

	bounded := listTransactionsSQL(ds, true)
	assert.Contains(t, bounded, "transaction_date <= @end_date")
	assert.Contains(t, bounded, "ORDER BY transaction_date DESC")
}

func TestSplitFlags(t *testing.T) {
	ids, flagged := splitFlags(map[string]bool{"c": true, "a": false, "b": true})
	require.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, []string{"b", "c"}, flagged)

	ids, flagged = splitFlags(map[string]bool{"a": false})
	assert.Equal(t, []string{"a"}, ids)
	assert.Empty(t, flagged)
	assert.NotNil(t, flagged)
}

func TestSetAnomalyFlagsSQL(t *testing.T) {
	sql := setAnomalyFlagsSQL(Dataset{Project: "p", Name: "d"})
	assert.Contains(t, sql, "UPDATE `p.d.transactions`")
	assert.Contains(t, sql, "is_anomaly = transaction_id IN UNNEST(@flagged_ids)")
	assert.Contains(t, sql, "user_id = @user_id")
}

func TestTransactionSaversUseTransactionIDAsInsertID(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := []*TransactionRow{
		newTransactionRow(domain.Transaction{ID: "r1", UserID: "u1", Amount: -4.2, Date: now}, now),
		newTransactionRow(domain.Transaction{ID: "r2", UserID: "u1", Amount: -1, Date: now}, now),
	}

	savers, err := transactionSavers(rows)
	require.NoError(t, err)
	require.Len(t, savers, 2)
	for i, saver := range savers {
		values, insertID, err := saver.Save()
		require.NoError(t, err)
		assert.Equal(t, rows[i].TransactionID, insertID)
		assert.Equal(t, rows[i].TransactionID, values["transaction_id"])
	}
}
