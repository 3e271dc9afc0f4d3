package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// AnomalyWindowDays is the lookback of transactions checked for anomalies.
const AnomalyWindowDays = 30

type duplicateKey struct {
	name  string
	cents int64
	day   string
}

// DetectAnomalies flags duplicates and unusually large expenses among recent
// transactions. history provides the per-category means. The returned flags
// hold an entry for every recent transaction, true when any anomaly
// references it, including anomalies dropped by the output cap.
func (a *Analyzer) DetectAnomalies(recent, history []domain.Transaction, currency string) ([]Anomaly, map[string]bool) {
	var anomalies []Anomaly
	anomalies = append(anomalies, a.duplicates(recent, currency)...)
	anomalies = append(anomalies, a.unusualAmounts(recent, history, currency)...)

	flags := make(map[string]bool, len(recent))
	for _, tx := range recent {
		flags[tx.ID] = false
	}
	for _, an := range anomalies {
		for _, id := range an.TransactionIDs {
			flags[id] = true
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		ai, aj := anomalies[i], anomalies[j]
		if ri, rj := severityRank(ai.Severity), severityRank(aj.Severity); ri != rj {
			return ri < rj
		}
		if !ai.Date.Equal(aj.Date) {
			return ai.Date.After(aj.Date)
		}
		if ai.Amount != aj.Amount {
			return ai.Amount > aj.Amount
		}
		return ai.ID < aj.ID
	})
	if a.cfg.MaxAnomalies >= 0 && len(anomalies) > a.cfg.MaxAnomalies {
		anomalies = anomalies[:a.cfg.MaxAnomalies]
	}
	if anomalies == nil {
		anomalies = []Anomaly{}
	}
	return anomalies, flags
}

// duplicates groups transactions by name, amount and day; each group with
// more than one member yields a single record listing every member.
func (a *Analyzer) duplicates(recent []domain.Transaction, currency string) []Anomaly {
	groups := make(map[duplicateKey][]domain.Transaction)
	var order []duplicateKey
	for _, tx := range recent {
		key := duplicateKey{
			name:  strings.ToLower(strings.TrimSpace(tx.Name)),
			cents: cents(Spend(tx)),
			day:   tx.Day(),
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	var out []Anomaly
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		ids := make([]string, len(group))
		for i, tx := range group {
			ids[i] = tx.ID
		}
		sort.Strings(ids)
		first := group[0]
		out = append(out, Anomaly{
			ID:       "duplicate-" + ids[0],
			Type:     AnomalyDuplicate,
			Severity: LevelMedium,
			Description: fmt.Sprintf("%d transactions of %s at %s on %s look like duplicates",
				len(group), Format(Spend(first), currency), first.Name, key.day),
			Amount:         Round(Spend(first)),
			Date:           first.Date,
			Category:       first.PrimaryCategory(),
			TransactionIDs: ids,
		})
	}
	return out
}

// unusualAmounts flags recent expenses above UnusualMultiplier times their
// category's historical mean. Categories without history are skipped.
func (a *Analyzer) unusualAmounts(recent, history []domain.Transaction, currency string) []Anomaly {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range history {
		if a.classifier.Classify(tx) != domain.KindExpense {
			continue
		}
		category := tx.PrimaryCategory()
		sums[category] += Spend(tx)
		counts[category]++
	}

	var out []Anomaly
	for _, tx := range recent {
		if a.classifier.Classify(tx) != domain.KindExpense {
			continue
		}
		category := tx.PrimaryCategory()
		n := counts[category]
		if n == 0 {
			continue
		}
		mean := sums[category] / float64(n)
		if mean <= 0 || Spend(tx) <= a.cfg.UnusualMultiplier*mean {
			continue
		}
		out = append(out, Anomaly{
			ID:       "unusual-" + tx.ID,
			Type:     AnomalyUnusualAmount,
			Severity: LevelHigh,
			Description: fmt.Sprintf("%s at %s is %.1fx your average %s transaction (%s)",
				Format(Spend(tx), currency), tx.Name, Spend(tx)/mean, category, Format(mean, currency)),
			Amount:         Round(Spend(tx)),
			Date:           tx.Date,
			Category:       category,
			TransactionIDs: []string{tx.ID},
		})
	}
	return out
}

func severityRank(severity string) int {
	switch severity {
	case LevelHigh:
		return 0
	case LevelMedium:
		return 1
	default:
		return 2
	}
}

// CountByType tallies anomalies per type.
func CountByType(anomalies []Anomaly) map[string]int {
	out := make(map[string]int)
	for _, an := range anomalies {
		out[an.Type]++
	}
	return out
}
