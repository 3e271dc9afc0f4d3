package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

func TestStore_ListTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertTransactions(ctx, []domain.Transaction{
		{ID: "old", UserID: "u1", Amount: -5, Date: base.AddDate(0, -2, 0)},
		{ID: "a", UserID: "u1", Amount: -10, Date: base},
		{ID: "b", UserID: "u1", Amount: -20, Date: base.AddDate(0, 0, 5)},
		{ID: "other", UserID: "u2", Amount: -30, Date: base},
	}))

	got, err := s.ListTransactions(ctx, "u1", base.AddDate(0, 0, -1), time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	got, err = s.ListTransactions(ctx, "u1", time.Time{}, base)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_InsertTransactionsRequiresUser(t *testing.T) {
	err := New().InsertTransactions(context.Background(), []domain.Transaction{{ID: "x"}})
	assert.Error(t, err)
}

func TestStore_InsertTransactionsSkipsKnownIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx := domain.Transaction{ID: "r1", UserID: "u1", Amount: -18.75}
	require.NoError(t, s.InsertTransactions(ctx, []domain.Transaction{tx}))
	require.NoError(t, s.InsertTransactions(ctx, []domain.Transaction{tx, {ID: "r1", UserID: "u2", Amount: -1}}))

	got, err := s.ListTransactions(ctx, "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ListTransactions(ctx, "u2", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "ids are scoped by user")
}

func TestStore_SetAnomalyFlags(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertTransactions(ctx, []domain.Transaction{
		{ID: "a", UserID: "u1", IsAnomaly: true},
		{ID: "b", UserID: "u1"},
		{ID: "c", UserID: "u1", IsAnomaly: true},
	}))

	require.NoError(t, s.SetAnomalyFlags(ctx, "u1", map[string]bool{"a": false, "b": true}))

	got, err := s.ListTransactions(ctx, "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	flags := map[string]bool{}
	for _, tx := range got {
		flags[tx.ID] = tx.IsAnomaly
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": true}, flags)
}

func TestStore_GoalLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	goal := &domain.Goal{UserID: "u1", Name: "Laptop", TargetAmount: 1500}
	require.NoError(t, s.CreateGoal(ctx, goal))
	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, domain.GoalStatusActive, goal.Status)

	_, err := s.GetGoal(ctx, "u2", goal.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := s.Contribute(ctx, "u1", goal.ID, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, updated.CurrentAmount)
	assert.Equal(t, domain.GoalStatusCompleted, updated.Status)

	goal.Name = "Gaming laptop"
	require.NoError(t, s.UpdateGoal(ctx, goal))
	got, err := s.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gaming laptop", got.Name)

	require.NoError(t, s.DeleteGoal(ctx, "u1", goal.ID))
	assert.ErrorIs(t, s.DeleteGoal(ctx, "u1", goal.ID), store.ErrNotFound)

	goals, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	contribution := 100.0
	goal := &domain.Goal{UserID: "u1", Name: "Trip", TargetAmount: 900, MonthlyContribution: &contribution}
	require.NoError(t, s.CreateGoal(ctx, goal))

	got, err := s.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	*got.MonthlyContribution = 1

	again, err := s.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *again.MonthlyContribution)
}
