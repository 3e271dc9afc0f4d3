package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// RecommendationInputs are the aggregates the recommendation rules read.
type RecommendationInputs struct {
	Income30        float64
	Expenses30      float64
	MonthlyExpenses float64
	TotalBalance    float64
	CategorySpend   map[string]float64 // last 30 days
	Accounts        []domain.Account
	Goals           []domain.Goal
	Projections     []GoalProjection
	Recurring       []RecurringPayment
	Currency        string
	Now             time.Time
}

// SavingsRate is (income-expenses)/income in percent, or 0 without income.
func (in RecommendationInputs) SavingsRate() float64 {
	if in.Income30 <= 0 {
		return 0
	}
	return (in.Income30 - in.Expenses30) / in.Income30 * 100
}

// Recommend applies the rules in priority order and keeps at most
// MaxRecommendations results. Rule ids are stable across calls.
func (a *Analyzer) Recommend(in RecommendationInputs) []Recommendation {
	rules := []func(RecommendationInputs) []Recommendation{
		a.reduceTopCategory,
		a.startInvesting,
		a.emergencyFund,
		a.payDownLiability,
		a.goalContributions,
		a.reviewSubscriptions,
	}

	out := []Recommendation{}
	for _, rule := range rules {
		out = append(out, rule(in)...)
		if len(out) >= a.cfg.MaxRecommendations {
			return out[:a.cfg.MaxRecommendations]
		}
	}
	return out
}

func (a *Analyzer) reduceTopCategory(in RecommendationInputs) []Recommendation {
	if in.Income30 <= 0 || len(in.CategorySpend) == 0 {
		return nil
	}
	top, spend := topCategory(in.CategorySpend)
	share := spend / in.Income30 * 100
	if share <= a.cfg.TopCategoryIncomeShare {
		return nil
	}
	saving := spend * a.cfg.TopCategoryReduction / 100
	return []Recommendation{{
		ID:    "reduce-" + slug(top),
		Title: "Reduce " + top + " spending",
		Description: fmt.Sprintf("%s took %.1f%% of your income in the last 30 days (%s).",
			top, share, Format(spend, in.Currency)),
		Action:     fmt.Sprintf("Cut %s spending by %.0f%% to save %s a month.", top, a.cfg.TopCategoryReduction, Format(saving, in.Currency)),
		Impact:     Round(saving),
		Confidence: LevelHigh,
	}}
}

func (a *Analyzer) startInvesting(in RecommendationInputs) []Recommendation {
	rate := in.SavingsRate()
	fund := a.cfg.EmergencyFundMonths * in.MonthlyExpenses
	if rate <= a.cfg.InvestingSavingsRate || in.TotalBalance < fund {
		return nil
	}
	surplus := in.Income30 - in.Expenses30
	return []Recommendation{{
		ID:          "start-investing",
		Title:       "Start investing your surplus",
		Description: fmt.Sprintf("You save %.1f%% of your income and your emergency fund is covered.", rate),
		Action:      fmt.Sprintf("Move part of your %s monthly surplus into long-term investments.", Format(surplus, in.Currency)),
		Impact:      Round(surplus),
		Confidence:  LevelMedium,
	}}
}

func (a *Analyzer) emergencyFund(in RecommendationInputs) []Recommendation {
	fund := a.cfg.EmergencyFundMonths * in.MonthlyExpenses
	if in.MonthlyExpenses <= 0 || in.TotalBalance >= fund {
		return nil
	}
	shortfall := fund - math.Max(in.TotalBalance, 0)
	return []Recommendation{{
		ID:    "emergency-fund",
		Title: "Build an emergency fund",
		Description: fmt.Sprintf("Your balance of %s covers less than %.0f months of expenses (%s).",
			Format(in.TotalBalance, in.Currency), a.cfg.EmergencyFundMonths, Format(fund, in.Currency)),
		Action:     fmt.Sprintf("Set aside savings until you reach %s.", Format(fund, in.Currency)),
		Impact:     Round(shortfall),
		Confidence: LevelHigh,
	}}
}

func (a *Analyzer) payDownLiability(in RecommendationInputs) []Recommendation {
	var worst *domain.Account
	for i := range in.Accounts {
		acc := &in.Accounts[i]
		if !acc.IsLiability() {
			continue
		}
		if worst == nil || acc.CurrentBalance < worst.CurrentBalance ||
			(acc.CurrentBalance == worst.CurrentBalance && acc.ID < worst.ID) {
			worst = acc
		}
	}
	if worst == nil {
		return nil
	}
	owed := -worst.CurrentBalance
	return []Recommendation{{
		ID:          "pay-down-" + worst.ID,
		Title:       "Pay down " + worst.Name,
		Description: fmt.Sprintf("%s has the largest outstanding balance: %s.", worst.Name, Format(owed, in.Currency)),
		Action:      "Direct extra payments to this account before others to cut interest costs.",
		Impact:      Round(owed),
		Confidence:  LevelMedium,
	}}
}

func (a *Analyzer) goalContributions(in RecommendationInputs) []Recommendation {
	goals := make(map[string]domain.Goal, len(in.Goals))
	for _, g := range in.Goals {
		goals[g.ID] = g
	}

	var out []Recommendation
	for _, p := range in.Projections {
		g, ok := goals[p.GoalID]
		if !ok || !g.IsActive() || g.Remaining() == 0 {
			continue
		}
		noContribution := p.MonthlyContribution == nil || *p.MonthlyContribution <= 0
		missesDeadline := p.OnTrack != nil && !*p.OnTrack
		if !noContribution && !missesDeadline {
			continue
		}

		needed := requiredContribution(g, in.Now)
		action := fmt.Sprintf("Contribute %s a month", Format(needed, in.Currency))
		if g.Deadline != nil {
			action += " to finish by " + g.Deadline.Format(dateLayout) + "."
		} else {
			action += " to finish within a year."
		}
		description := fmt.Sprintf("%s has no monthly contribution set.", g.Name)
		if missesDeadline && !noContribution {
			description = fmt.Sprintf("At the current pace %s will miss its deadline.", g.Name)
		}
		out = append(out, Recommendation{
			ID:          "goal-" + g.ID,
			Title:       "Increase contributions to " + g.Name,
			Description: description,
			Action:      action,
			Impact:      Round(needed),
			Confidence:  LevelMedium,
		})
	}
	return out
}

func (a *Analyzer) reviewSubscriptions(in RecommendationInputs) []Recommendation {
	if len(in.Recurring) < a.cfg.MinSubscriptionsForReview {
		return nil
	}
	var monthly float64
	for _, r := range in.Recurring {
		monthly += r.Amount
	}
	return []Recommendation{{
		ID:          "review-subscriptions",
		Title:       "Review your subscriptions",
		Description: fmt.Sprintf("%d recurring payments cost %s a month.", len(in.Recurring), Format(monthly, in.Currency)),
		Action:      "Cancel the subscriptions you no longer use.",
		Impact:      Round(monthly),
		Confidence:  LevelLow,
	}}
}

// requiredContribution is the monthly amount that completes the goal by its
// deadline, or within 12 months when there is none.
func requiredContribution(g domain.Goal, now time.Time) float64 {
	months := 12
	if g.Deadline != nil {
		months = monthsBetween(now, *g.Deadline)
	}
	if months < 1 {
		months = 1
	}
	return g.Remaining() / float64(months)
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

func topCategory(spend map[string]float64) (string, float64) {
	names := make([]string, 0, len(spend))
	for name := range spend {
		names = append(names, name)
	}
	sort.Strings(names)

	var top string
	var max float64
	for _, name := range names {
		if spend[name] > max {
			top, max = name, spend[name]
		}
	}
	return top, max
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
