package insights

import (
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func expense(id, name string, amount float64, days int, category string) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		UserID:   "u1",
		Amount:   -amount,
		Date:     daysAgo(days),
		Name:     name,
		Category: []string{category},
	}
}

func income(id, name string, amount float64, days int) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		UserID:   "u1",
		Amount:   amount,
		Date:     daysAgo(days),
		Name:     name,
		Category: []string{"Income"},
	}
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultConfig(), nil)
}

func snapshotOf(txs ...domain.Transaction) *Snapshot {
	return &Snapshot{UserID: "u1", Now: testNow, Transactions: txs}
}
