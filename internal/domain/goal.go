package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
)

// ErrInvalidGoal is returned when a goal fails validation.
var ErrInvalidGoal = errors.New("invalid goal")

// Goal is a user-declared savings target.
type Goal struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	TargetAmount        float64  `json:"target_amount"`
	CurrentAmount       float64  `json:"current_amount"`
	MonthlyContribution *float64 `json:"monthly_contribution,omitempty"`

	Status   GoalStatus `json:"status"`
	Deadline *time.Time `json:"deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining returns how much is still needed to reach the target, never negative.
func (g Goal) Remaining() float64 {
	return math.Max(g.TargetAmount-g.CurrentAmount, 0)
}

// Progress returns the completion percentage, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return math.Min(g.CurrentAmount/g.TargetAmount*100, 100)
}

// IsActive reports whether the goal still accepts contributions and projections.
func (g Goal) IsActive() bool {
	return g.Status == "" || g.Status == GoalStatusActive
}

// Contribute adds amount to the goal and marks it completed once the target is reached.
func (g *Goal) Contribute(amount float64) error {
	if amount <= 0 {
		return errors.Join(ErrInvalidGoal, errors.New("contribution must be positive"))
	}
	g.CurrentAmount += amount
	if g.CurrentAmount >= g.TargetAmount {
		g.Status = GoalStatusCompleted
	}
	return nil
}

// Validate checks the fields a user can set.
func (g Goal) Validate() error {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return errors.Join(ErrInvalidGoal, errors.New("name is required"))
	case g.TargetAmount <= 0:
		return errors.Join(ErrInvalidGoal, errors.New("target_amount must be positive"))
	case g.CurrentAmount < 0:
		return errors.Join(ErrInvalidGoal, errors.New("current_amount must not be negative"))
	case g.MonthlyContribution != nil && *g.MonthlyContribution < 0:
		return errors.Join(ErrInvalidGoal, errors.New("monthly_contribution must not be negative"))
	}
	switch g.Status {
	case "", GoalStatusActive, GoalStatusCompleted, GoalStatusPaused:
	default:
		return errors.Join(ErrInvalidGoal, errors.New("unknown status "+string(g.Status)))
	}
	return nil
}
