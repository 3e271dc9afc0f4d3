package insights

import (
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// GoalInsights turns goal projections into progress, at-risk and completed insights.
// Paused goals produce no insight.
func GoalInsights(goals []domain.Goal, projections []GoalProjection, currency string) []Insight {
	byID := make(map[string]GoalProjection, len(projections))
	for _, p := range projections {
		byID[p.GoalID] = p
	}

	out := []Insight{}
	for _, g := range goals {
		p := byID[g.ID]
		progress := ptr(roundTo(g.Progress(), 1))

		switch {
		case g.Status == domain.GoalStatusCompleted || (g.TargetAmount > 0 && g.Remaining() == 0):
			out = append(out, Insight{
				Type:        InsightGoalCompleted,
				Title:       g.Name + " reached",
				Description: fmt.Sprintf("You saved %s for %s.", Format(g.CurrentAmount, currency), g.Name),
				Severity:    LevelLow,
				GoalID:      g.ID,
				Progress:    progress,
			})
		case g.Status == domain.GoalStatusPaused:
			continue
		case p.OnTrack != nil && !*p.OnTrack:
			out = append(out, Insight{
				Type:  InsightGoalAtRisk,
				Title: g.Name + " is at risk",
				Description: fmt.Sprintf("%s still needs %s and will not be reached by %s at the current pace.",
					g.Name, Format(g.Remaining(), currency), g.Deadline.Format(dateLayout)),
				Severity: LevelHigh,
				GoalID:   g.ID,
				Progress: progress,
			})
		default:
			description := fmt.Sprintf("%s is %.1f%% funded, %s to go.", g.Name, *progress, Format(g.Remaining(), currency))
			if p.MonthsNeeded != nil {
				description += fmt.Sprintf(" About %d months left.", *p.MonthsNeeded)
			}
			out = append(out, Insight{
				Type:        InsightGoalProgress,
				Title:       g.Name + " progress",
				Description: description,
				Severity:    LevelLow,
				GoalID:      g.ID,
				Progress:    progress,
			})
		}
	}
	return out
}
