// Package store defines the persistence contracts used by the insights
// pipeline and the HTTP handlers. Every method is scoped by user id.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist for the user.
var ErrNotFound = errors.New("not found")

// AccountRepository reads synced financial accounts.
type AccountRepository interface {
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
}

// TransactionRepository reads and writes user transactions.
type TransactionRepository interface {
	// ListTransactions returns transactions dated within [start, end], newest first.
	// A zero end means no upper bound.
	ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error)
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
	// SetAnomalyFlags writes the is_anomaly flag for every id in flags.
	SetAnomalyFlags(ctx context.Context, userID string, flags map[string]bool) error
}

// GoalRepository manages savings goals.
type GoalRepository interface {
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error)
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	UpdateGoal(ctx context.Context, goal *domain.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
	// Contribute atomically adds amount to the goal and returns the updated record.
	Contribute(ctx context.Context, userID, goalID string, amount float64) (*domain.Goal, error)
}
