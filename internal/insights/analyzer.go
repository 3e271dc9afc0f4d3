package insights

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Analyzer runs the pure insight computations over a snapshot.
type Analyzer struct {
	cfg        Config
	classifier Classifier
}

// NewAnalyzer creates an Analyzer. A nil classifier selects the keyword
// classifier configured by cfg.
func NewAnalyzer(cfg Config, classifier Classifier) *Analyzer {
	if classifier == nil {
		classifier = NewKeywordClassifier(cfg.IncomeKeywords, cfg.TransferKeywords)
	}
	return &Analyzer{cfg: cfg, classifier: classifier}
}

var hundred = decimal.NewFromInt(100)

// percentChange returns (current-previous)*100/previous over cent-rounded
// amounts; ok is false when previous is zero.
func percentChange(current, previous float64) (change decimal.Decimal, ok bool) {
	cur := decimal.NewFromFloat(current).Round(2)
	prev := decimal.NewFromFloat(previous).Round(2)
	if prev.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(prev).Mul(hundred).Div(prev), true
}

// exceeds reports whether |change| is strictly above threshold percent.
func exceeds(change decimal.Decimal, threshold float64) bool {
	return change.Abs().GreaterThan(decimal.NewFromFloat(threshold))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func durationDays(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
