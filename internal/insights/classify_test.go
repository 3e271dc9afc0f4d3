package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	c := NewKeywordClassifier([]string{"Deposit", "payroll"}, []string{"transfer to savings"})

	tests := []struct {
		name string
		tx   domain.Transaction
		want domain.Kind
	}{
		{"outflow is expense", domain.Transaction{Amount: -12, Name: "Coffee"}, domain.KindExpense},
		{"payroll inflow is income", domain.Transaction{Amount: 2500, Name: "ACME PAYROLL"}, domain.KindIncome},
		{"keyword in merchant", domain.Transaction{Amount: 100, Name: "Mobile", MerchantName: "Check Deposit"}, domain.KindIncome},
		{"other inflow is expense-like", domain.Transaction{Amount: 40, Name: "Amazon refund"}, domain.KindExpense},
		{"outflow with income keyword stays expense", domain.Transaction{Amount: -5, Name: "Deposit fee"}, domain.KindExpense},
		{"transfer wins", domain.Transaction{Amount: -300, Name: "Transfer to Savings"}, domain.KindTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.tx))
		})
	}
}

func TestSpend(t *testing.T) {
	assert.Equal(t, 12.5, Spend(domain.Transaction{Amount: -12.5}))
	assert.Equal(t, 3.0, Spend(domain.Transaction{Amount: 3}))
}
