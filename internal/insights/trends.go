package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

const trendWindowDays = 30

// AnalyzeTrends compares the last 30 days of spend against the 30 days before
// it, overall and per category, and builds the monthly expense series.
func (a *Analyzer) AnalyzeTrends(snap *Snapshot, currency string) TrendAnalysis {
	current := snap.Window(trendWindowDays)
	previous := snap.Between(trendWindowDays, 2*trendWindowDays)

	out := TrendAnalysis{Insights: []Insight{}}

	_, curSpend := totals(a.classifier, current)
	_, prevSpend := totals(a.classifier, previous)
	if pct, ok := percentChange(curSpend, prevSpend); ok && exceeds(pct, a.cfg.OverallTrendThreshold) {
		severity := LevelMedium
		if exceeds(pct, a.cfg.OverallHighThreshold) {
			severity = LevelHigh
		}
		change := pct.InexactFloat64()
		out.Insights = append(out.Insights, Insight{
			Type:     InsightMonthlyTrend,
			Title:    trendTitle("Spending", change),
			Severity: severity,
			Description: fmt.Sprintf("You spent %s in the last 30 days, %.1f%% %s than the previous 30 days (%s).",
				Format(curSpend, currency), math.Abs(change), moreOrLess(change), Format(prevSpend, currency)),
			Change:   ptr(roundTo(change, 2)),
			Current:  ptr(Round(curSpend)),
			Previous: ptr(Round(prevSpend)),
		})
	}

	out.Insights = append(out.Insights, a.categoryTrends(current, previous, currency)...)
	out.MonthlyExpenses = a.monthlySeries(snap.Transactions, snap.Now)
	return out
}

func (a *Analyzer) categoryTrends(current, previous []domain.Transaction, currency string) []Insight {
	cur := categorySpend(a.classifier, current)
	prev := categorySpend(a.classifier, previous)

	var out []Insight
	for category, prevSpend := range prev {
		pct, ok := percentChange(cur[category], prevSpend)
		if !ok || !exceeds(pct, a.cfg.CategoryTrendThreshold) {
			continue
		}
		severity := LevelMedium
		if exceeds(pct, a.cfg.CategoryHighThreshold) {
			severity = LevelHigh
		}
		change := pct.InexactFloat64()
		out = append(out, Insight{
			Type:     InsightCategoryTrend,
			Title:    trendTitle(category+" spending", change),
			Severity: severity,
			Category: category,
			Description: fmt.Sprintf("%s spending is %.1f%% %s than the previous 30 days: %s vs %s.",
				category, math.Abs(change), moreOrLess(change), Format(cur[category], currency), Format(prevSpend, currency)),
			Change:   ptr(roundTo(change, 2)),
			Current:  ptr(Round(cur[category])),
			Previous: ptr(Round(prevSpend)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		ci, cj := math.Abs(*out[i].Change), math.Abs(*out[j].Change)
		if ci != cj {
			return ci > cj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// monthlySeries buckets income and expenses into calendar months ending with
// the month of now. Months with no activity are zero.
func (a *Analyzer) monthlySeries(txs []domain.Transaction, now time.Time) []MonthlyPoint {
	months := a.cfg.SeriesMonths
	if months <= 0 {
		return []MonthlyPoint{}
	}

	start := monthStart(now).AddDate(0, -(months - 1), 0)
	points := make([]MonthlyPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		key := start.AddDate(0, i, 0).Format("2006-01")
		points[i].Month = key
		index[key] = i
	}

	for _, tx := range txs {
		i, ok := index[tx.Date.In(now.Location()).Format("2006-01")]
		if !ok {
			continue
		}
		switch a.classifier.Classify(tx) {
		case domain.KindIncome:
			points[i].Income += Spend(tx)
		case domain.KindExpense:
			points[i].Expenses += Spend(tx)
		}
	}
	for i := range points {
		points[i].Income = Round(points[i].Income)
		points[i].Expenses = Round(points[i].Expenses)
	}
	return points
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func trendTitle(subject string, change float64) string {
	if change > 0 {
		return subject + " increased"
	}
	return subject + " decreased"
}

func moreOrLess(change float64) string {
	if change > 0 {
		return "more"
	}
	return "less"
}
