package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// netAverageMonths is the maximum number of trailing months averaged for the forecast.
const netAverageMonths = 6

const dateLayout = "2006-01-02"

// Predict builds the balance forecast, goal projections and recurring payments.
func (a *Analyzer) Predict(snap *Snapshot, goals []domain.Goal) Predictions {
	avg := a.averageMonthlyNet(snap.Transactions, snap.Now)
	return Predictions{
		BalanceForecast:   a.forecastBalance(snap.TotalBalance(), avg, snap.Now),
		GoalProjections:   ProjectGoals(goals, snap.Now),
		RecurringPayments: a.DetectRecurring(snap.Transactions),
		AverageMonthlyNet: Round(avg),
	}
}

// averageMonthlyNet averages income minus expenses over the most recent
// completed months with activity. The current month is used only when no
// completed month has activity.
func (a *Analyzer) averageMonthlyNet(txs []domain.Transaction, now time.Time) float64 {
	net := make(map[string]float64)
	for _, tx := range txs {
		key := tx.Date.In(now.Location()).Format("2006-01")
		switch a.classifier.Classify(tx) {
		case domain.KindIncome:
			net[key] += Spend(tx)
		case domain.KindExpense:
			net[key] -= Spend(tx)
		default:
			if _, ok := net[key]; !ok {
				net[key] = 0
			}
		}
	}

	currentKey := now.Format("2006-01")
	var keys []string
	for k := range net {
		if k < currentKey {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		if v, ok := net[currentKey]; ok {
			return v
		}
		return 0
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if len(keys) > netAverageMonths {
		keys = keys[:netAverageMonths]
	}
	var sum float64
	for _, k := range keys {
		sum += net[k]
	}
	return sum / float64(len(keys))
}

func (a *Analyzer) forecastBalance(balance, avgNet float64, now time.Time) []ForecastPoint {
	points := make([]ForecastPoint, 0, a.cfg.ForecastMonths)
	start := monthStart(now)
	for i := 1; i <= a.cfg.ForecastMonths; i++ {
		balance = math.Max(balance+avgNet, 0)
		points = append(points, ForecastPoint{
			Month:      i,
			Date:       start.AddDate(0, i, 0).Format("2006-01"),
			Balance:    Round(balance),
			Confidence: forecastConfidence(i),
		})
	}
	return points
}

func forecastConfidence(month int) string {
	switch month {
	case 1:
		return LevelHigh
	case 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ProjectGoals estimates completion for every goal.
func ProjectGoals(goals []domain.Goal, now time.Time) []GoalProjection {
	out := make([]GoalProjection, 0, len(goals))
	for _, g := range goals {
		out = append(out, projectGoal(g, now))
	}
	return out
}

func projectGoal(g domain.Goal, now time.Time) GoalProjection {
	p := GoalProjection{
		GoalID:        g.ID,
		Name:          g.Name,
		TargetAmount:  Round(g.TargetAmount),
		CurrentAmount: Round(g.CurrentAmount),
		Remaining:     Round(g.Remaining()),
		Progress:      roundTo(g.Progress(), 1),
	}
	if g.MonthlyContribution != nil {
		p.MonthlyContribution = ptr(*g.MonthlyContribution)
	}
	if g.Deadline != nil {
		p.Deadline = ptr(g.Deadline.Format(dateLayout))
	}

	switch {
	case g.Status == domain.GoalStatusCompleted || g.Remaining() == 0:
		p.MonthsNeeded = ptr(0)
		p.EstimatedCompletion = ptr(now.Format(dateLayout))
		p.OnTrack = ptr(true)
		p.Message = "Goal reached"
		return p
	case g.Status == domain.GoalStatusPaused:
		p.Message = "Goal is paused"
		return p
	case g.MonthlyContribution == nil || *g.MonthlyContribution <= 0:
		p.Message = "Set a monthly contribution to estimate a completion date"
		if g.Deadline != nil {
			p.OnTrack = ptr(false)
		}
		return p
	}

	months := int(math.Ceil(g.Remaining() / *g.MonthlyContribution))
	completion := now.AddDate(0, months, 0)
	p.MonthsNeeded = ptr(months)
	p.EstimatedCompletion = ptr(completion.Format(dateLayout))
	p.Message = fmt.Sprintf("%d months at the current contribution", months)
	if g.Deadline != nil {
		p.OnTrack = ptr(!completion.After(*g.Deadline))
	}
	return p
}
