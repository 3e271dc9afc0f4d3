package insights

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// FrequencyMonthly is the only cadence the detector reports.
const FrequencyMonthly = "monthly"

// DetectRecurring finds monthly charges: expense groups sharing a normalized
// name with stable amounts and a roughly monthly spacing.
func (a *Analyzer) DetectRecurring(txs []domain.Transaction) []RecurringPayment {
	groups := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		if a.classifier.Classify(tx) != domain.KindExpense {
			continue
		}
		key := normalizeName(tx.Name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}

	out := []RecurringPayment{}
	for _, group := range groups {
		if r, ok := a.recurringFromGroup(group); ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (a *Analyzer) recurringFromGroup(group []domain.Transaction) (RecurringPayment, bool) {
	if len(group) < a.cfg.RecurringMinOccurrences || len(group) < 2 {
		return RecurringPayment{}, false
	}
	sort.Slice(group, func(i, j int) bool {
		if group[i].Date.Equal(group[j].Date) {
			return group[i].ID < group[j].ID
		}
		return group[i].Date.Before(group[j].Date)
	})

	amounts := make([]float64, len(group))
	for i, tx := range group {
		amounts[i] = Spend(tx)
	}
	mean, cv := meanAndCV(amounts)
	if mean == 0 || cv >= a.cfg.RecurringMaxCV {
		return RecurringPayment{}, false
	}

	var totalDays float64
	for i := 1; i < len(group); i++ {
		totalDays += group[i].Date.Sub(group[i-1].Date).Hours() / 24
	}
	interval := totalDays / float64(len(group)-1)
	if interval < a.cfg.RecurringMinIntervalDays || interval > a.cfg.RecurringMaxIntervalDays {
		return RecurringPayment{}, false
	}

	last := group[len(group)-1]
	next := last.Date.Add(durationDays(interval))
	ids := make([]string, len(group))
	for i, tx := range group {
		ids[i] = tx.ID
	}
	return RecurringPayment{
		Name:                last.Name,
		Amount:              Round(mean),
		Frequency:           FrequencyMonthly,
		AverageIntervalDays: roundTo(interval, 1),
		Occurrences:         len(group),
		LastDate:            last.Date.Format(dateLayout),
		NextExpectedDate:    next.Format(dateLayout),
		TransactionIDs:      ids,
	}, true
}

// normalizeName lowercases, strips digits and collapses whitespace, so
// "NETFLIX 0423" and "Netflix 0524" group together.
func normalizeName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	return strings.Join(strings.Fields(stripped), " ")
}

// meanAndCV returns the mean and the coefficient of variation in percent,
// using the population standard deviation.
func meanAndCV(values []float64) (mean, cv float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0, 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance) / mean * 100
}
