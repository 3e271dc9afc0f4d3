package insights

import (
	"math"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Classifier decides the cash-flow kind of a transaction.
type Classifier interface {
	Classify(tx domain.Transaction) domain.Kind
}

// KeywordClassifier classifies by amount sign and description keywords.
//
// Transfer keywords win over everything else. Outflows are expenses. Inflows
// count as income only when the description mentions an income keyword;
// any other inflow (refunds, reversals) is treated as expense-like spend.
type KeywordClassifier struct {
	incomeKeywords   []string
	transferKeywords []string
}

// NewKeywordClassifier builds a classifier from case-insensitive keywords.
func NewKeywordClassifier(income, transfer []string) *KeywordClassifier {
	return &KeywordClassifier{
		incomeKeywords:   normalizeKeywords(income),
		transferKeywords: normalizeKeywords(transfer),
	}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(tx domain.Transaction) domain.Kind {
	desc := strings.ToLower(tx.Description())
	if containsAny(desc, c.transferKeywords) {
		return domain.KindTransfer
	}
	if tx.Amount < 0 {
		return domain.KindExpense
	}
	if containsAny(desc, c.incomeKeywords) {
		return domain.KindIncome
	}
	return domain.KindExpense
}

// Spend is the magnitude of a transaction used in every aggregate.
func Spend(tx domain.Transaction) float64 {
	return math.Abs(tx.Amount)
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// totals sums income and expense spend of txs.
func totals(c Classifier, txs []domain.Transaction) (income, expenses float64) {
	for _, tx := range txs {
		switch c.Classify(tx) {
		case domain.KindIncome:
			income += Spend(tx)
		case domain.KindExpense:
			expenses += Spend(tx)
		}
	}
	return income, expenses
}

// categorySpend sums expense spend per primary category.
func categorySpend(c Classifier, txs []domain.Transaction) map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range txs {
		if c.Classify(tx) == domain.KindExpense {
			out[tx.PrimaryCategory()] += Spend(tx)
		}
	}
	return out
}
