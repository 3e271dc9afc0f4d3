// Package memory provides thread-safe in-memory repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Store implements the account, transaction and goal repositories in memory.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string][]domain.Account
	transactions map[string][]domain.Transaction
	goals        map[string]*domain.Goal
	now          func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:     make(map[string][]domain.Account),
		transactions: make(map[string][]domain.Transaction),
		goals:        make(map[string]*domain.Goal),
		now:          time.Now,
	}
}

var (
	_ store.AccountRepository     = (*Store)(nil)
	_ store.TransactionRepository = (*Store)(nil)
	_ store.GoalRepository        = (*Store)(nil)
)

// AddAccounts seeds accounts. Used by tests and the local seed data.
func (s *Store) AddAccounts(accounts ...domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		s.accounts[a.UserID] = append(s.accounts[a.UserID], a)
	}
}

// ListAccounts returns a copy of the user's accounts.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, len(s.accounts[userID]))
	copy(out, s.accounts[userID])
	return out, nil
}

// ListTransactions returns the user's transactions within [start, end], newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions[userID] {
		if !start.IsZero() && tx.Date.Before(start) {
			continue
		}
		if !end.IsZero() && tx.Date.After(end) {
			continue
		}
		tx.Category = append([]string(nil), tx.Category...)
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// InsertTransactions appends transactions, assigning ids where missing.
// A transaction whose id the user already has is skipped.
func (s *Store) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		if tx.UserID == "" {
			return fmt.Errorf("InsertTransactions: transaction %q has no user id", tx.ID)
		}
		if tx.ID == "" {
			tx.ID = uuid.New().String()
		} else if s.hasTransaction(tx.UserID, tx.ID) {
			continue
		}
		tx.Category = append([]string(nil), tx.Category...)
		s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	}
	return nil
}

func (s *Store) hasTransaction(userID, id string) bool {
	for _, tx := range s.transactions[userID] {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// SetAnomalyFlags updates is_anomaly on every listed transaction of the user.
func (s *Store) SetAnomalyFlags(ctx context.Context, userID string, flags map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.transactions[userID]
	for i := range txs {
		if flag, ok := flags[txs[i].ID]; ok {
			txs[i].IsAnomaly = flag
		}
	}
	return nil
}

// ListGoals returns the user's goals ordered by creation time.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, copyGoal(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetGoal returns a goal owned by the user.
func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, store.ErrNotFound
	}
	c := copyGoal(g)
	return &c, nil
}

// CreateGoal stores a new goal, assigning id, status and timestamps.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.Status == "" {
		goal.Status = domain.GoalStatusActive
	}
	now := s.now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	c := copyGoal(goal)
	s.goals[goal.ID] = &c
	return nil
}

// UpdateGoal replaces a goal owned by the user.
func (s *Store) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[goal.ID]
	if !ok || existing.UserID != goal.UserID {
		return store.ErrNotFound
	}
	goal.CreatedAt = existing.CreatedAt
	goal.UpdatedAt = s.now().UTC()
	c := copyGoal(goal)
	s.goals[goal.ID] = &c
	return nil
}

// DeleteGoal removes a goal owned by the user.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.goals, goalID)
	return nil
}

// Contribute adds amount to a goal under the store lock.
func (s *Store) Contribute(ctx context.Context, userID, goalID string, amount float64) (*domain.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, store.ErrNotFound
	}
	if err := g.Contribute(amount); err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}
	g.UpdatedAt = s.now().UTC()
	c := copyGoal(g)
	return &c, nil
}

func copyGoal(g *domain.Goal) domain.Goal {
	c := *g
	if g.MonthlyContribution != nil {
		v := *g.MonthlyContribution
		c.MonthlyContribution = &v
	}
	if g.Deadline != nil {
		d := *g.Deadline
		c.Deadline = &d
	}
	return c
}
