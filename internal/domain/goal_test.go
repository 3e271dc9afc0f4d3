package domain

import (
	"errors"
	"testing"
)

func TestGoal_Contribute(t *testing.T) {
	g := &Goal{Name: "Car", TargetAmount: 1000, CurrentAmount: 900, Status: GoalStatusActive}

	if err := g.Contribute(50); err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if g.Status != GoalStatusActive {
		t.Errorf("Status = %q, want active", g.Status)
	}

	if err := g.Contribute(50); err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if g.Status != GoalStatusCompleted {
		t.Errorf("Status = %q, want completed", g.Status)
	}
	if g.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", g.Remaining())
	}

	if err := g.Contribute(0); !errors.Is(err, ErrInvalidGoal) {
		t.Errorf("Contribute(0) error = %v, want ErrInvalidGoal", err)
	}
}

func TestGoal_Progress(t *testing.T) {
	tests := []struct {
		name string
		goal Goal
		want float64
	}{
		{"half way", Goal{TargetAmount: 200, CurrentAmount: 100}, 50},
		{"over target is capped", Goal{TargetAmount: 100, CurrentAmount: 150}, 100},
		{"zero target", Goal{TargetAmount: 0, CurrentAmount: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.Progress(); got != tt.want {
				t.Errorf("Progress() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoal_Validate(t *testing.T) {
	negative := -5.0
	tests := []struct {
		name    string
		goal    Goal
		wantErr bool
	}{
		{"valid", Goal{Name: "Trip", TargetAmount: 500}, false},
		{"missing name", Goal{TargetAmount: 500}, true},
		{"zero target", Goal{Name: "Trip"}, true},
		{"negative contribution", Goal{Name: "Trip", TargetAmount: 500, MonthlyContribution: &negative}, true},
		{"unknown status", Goal{Name: "Trip", TargetAmount: 500, Status: "archived"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.goal.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_PrimaryCategory(t *testing.T) {
	tx := Transaction{Category: []string{"Food and Drink", "Restaurants"}}
	if got := tx.PrimaryCategory(); got != "Food and Drink" {
		t.Errorf("PrimaryCategory() = %q", got)
	}
	if got := (Transaction{}).PrimaryCategory(); got != UncategorizedCategory {
		t.Errorf("PrimaryCategory() on empty = %q", got)
	}
}
