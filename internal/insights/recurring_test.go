package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func TestDetectRecurring(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("monthly with stable amount", func(t *testing.T) {
		txs := []domain.Transaction{
			expense("n1", "NETFLIX 0412", 100, 60, "Entertainment"),
			expense("n2", "Netflix 0512", 102, 30, "Entertainment"),
			expense("n3", "netflix  0611", 98, 0, "Entertainment"),
		}
		got := a.DetectRecurring(txs)
		require.Len(t, got, 1)
		assert.Equal(t, FrequencyMonthly, got[0].Frequency)
		assert.Equal(t, 100.0, got[0].Amount)
		assert.Equal(t, 3, got[0].Occurrences)
		assert.Equal(t, 30.0, got[0].AverageIntervalDays)
		assert.Equal(t, []string{"n1", "n2", "n3"}, got[0].TransactionIDs)
		assert.Equal(t, testNow.Format(dateLayout), got[0].LastDate)
		assert.Equal(t, testNow.AddDate(0, 0, 30).Format(dateLayout), got[0].NextExpectedDate)
	})

	t.Run("ten day spacing is not monthly", func(t *testing.T) {
		txs := []domain.Transaction{
			expense("n1", "Netflix", 100, 20, "Entertainment"),
			expense("n2", "Netflix", 102, 10, "Entertainment"),
			expense("n3", "Netflix", 98, 0, "Entertainment"),
		}
		assert.Empty(t, a.DetectRecurring(txs))
	})

	t.Run("unstable amounts", func(t *testing.T) {
		txs := []domain.Transaction{
			expense("g1", "Grocer", 40, 60, "Food"),
			expense("g2", "Grocer", 120, 30, "Food"),
			expense("g3", "Grocer", 75, 0, "Food"),
		}
		assert.Empty(t, a.DetectRecurring(txs))
	})

	t.Run("two occurrences are not enough", func(t *testing.T) {
		txs := []domain.Transaction{
			expense("s1", "Spotify", 10, 30, "Entertainment"),
			expense("s2", "Spotify", 10, 0, "Entertainment"),
		}
		assert.Empty(t, a.DetectRecurring(txs))
	})

	t.Run("income is ignored", func(t *testing.T) {
		txs := []domain.Transaction{
			income("p1", "ACME PAYROLL", 3000, 60),
			income("p2", "ACME PAYROLL", 3000, 30),
			income("p3", "ACME PAYROLL", 3000, 0),
		}
		assert.Empty(t, a.DetectRecurring(txs))
	})
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "netflix", normalizeName("NETFLIX 0412"))
	assert.Equal(t, "uber trip", normalizeName("  Uber   123 Trip 9 "))
	assert.Equal(t, "", normalizeName("1234"))
}

func TestMeanAndCV(t *testing.T) {
	mean, cv := meanAndCV([]float64{100, 102, 98})
	assert.Equal(t, 100.0, mean)
	assert.InDelta(t, 1.633, cv, 0.001)

	mean, cv = meanAndCV(nil)
	assert.Zero(t, mean)
	assert.Zero(t, cv)
}
