package insights

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// HistoryDays is the longest lookback window read for a report.
const HistoryDays = 365

// Snapshot is the read-only state of one user at report time.
type Snapshot struct {
	UserID       string
	Now          time.Time
	Accounts     []domain.Account
	Transactions []domain.Transaction // newest first, last HistoryDays days
	Goals        []domain.Goal
}

// Window returns the transactions of the last days days.
func (s *Snapshot) Window(days int) []domain.Transaction {
	return s.Between(0, days)
}

// Between returns transactions dated in (now-toDays, now-fromDays].
// Between(30, 60) is the 30-day window preceding Window(30).
func (s *Snapshot) Between(fromDays, toDays int) []domain.Transaction {
	upper := s.Now.AddDate(0, 0, -fromDays)
	lower := s.Now.AddDate(0, 0, -toDays)

	var out []domain.Transaction
	for _, tx := range s.Transactions {
		if tx.Date.After(lower) && !tx.Date.After(upper) {
			out = append(out, tx)
		}
	}
	return out
}

// TotalBalance sums the current balance of every account; liabilities reduce it.
func (s *Snapshot) TotalBalance() float64 {
	var total float64
	for _, a := range s.Accounts {
		total += a.CurrentBalance
	}
	return total
}

// Loader reads the snapshot inputs from the repositories.
type Loader struct {
	accounts     store.AccountRepository
	transactions store.TransactionRepository
	goals        store.GoalRepository
}

// NewLoader creates a Loader.
func NewLoader(accounts store.AccountRepository, transactions store.TransactionRepository, goals store.GoalRepository) *Loader {
	return &Loader{accounts: accounts, transactions: transactions, goals: goals}
}

// Load reads accounts, the last year of transactions and goals concurrently.
func (l *Loader) Load(ctx context.Context, userID string, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{UserID: userID, Now: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := l.accounts.ListAccounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("Load: list accounts: %w", err)
		}
		snap.Accounts = accounts
		return nil
	})
	g.Go(func() error {
		txs, err := l.transactions.ListTransactions(ctx, userID, now.AddDate(0, 0, -HistoryDays), now)
		if err != nil {
			return fmt.Errorf("Load: list transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		goals, err := l.goals.ListGoals(ctx, userID)
		if err != nil {
			return fmt.Errorf("Load: list goals: %w", err)
		}
		snap.Goals = goals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
