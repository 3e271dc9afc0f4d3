// Package postgres stores savings goals in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ store.GoalRepository = (*GoalRepository)(nil)

const goalColumns = `id, user_id, name, target_amount, current_amount, monthly_contribution,
	status, deadline, created_at, updated_at`

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("Connect: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Connect: ping: %w", err)
	}
	return pool, nil
}

// GoalRepository implements store.GoalRepository on the goals table.
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository wraps a shared pool.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var (
		g      domain.Goal
		status string
	)
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.TargetAmount,
		&g.CurrentAmount,
		&g.MonthlyContribution,
		&status,
		&g.Deadline,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Status = domain.GoalStatus(status)
	return &g, nil
}

// notFound maps pgx.ErrNoRows to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// ListGoals returns the user's goals, oldest first.
func (r *GoalRepository) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query: %w", err)
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("ListGoals: scan: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListGoals: rows: %w", err)
	}
	return goals, nil
}

// GetGoal fetches one goal owned by the user.
func (r *GoalRepository) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	g, err := scanGoal(row)
	if err != nil {
		return nil, fmt.Errorf("GetGoal: %w", notFound(err))
	}
	return g, nil
}

// CreateGoal inserts goal, filling in id, default status and timestamps.
func (r *GoalRepository) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Status == "" {
		goal.Status = domain.GoalStatusActive
	}
	now := time.Now().UTC()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, monthly_contribution,
			status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING created_at, updated_at`,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.MonthlyContribution,
		string(goal.Status),
		goal.Deadline,
		now,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateGoal: insert: %w", err)
	}
	return nil
}

// UpdateGoal overwrites the user-editable fields of a goal.
func (r *GoalRepository) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE goals
		SET name = $3,
			target_amount = $4,
			current_amount = $5,
			monthly_contribution = $6,
			status = $7,
			deadline = $8,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at`,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.MonthlyContribution,
		string(goal.Status),
		goal.Deadline,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateGoal: %w", notFound(err))
	}
	return nil
}

// DeleteGoal removes a goal owned by the user.
func (r *GoalRepository) DeleteGoal(ctx context.Context, userID, goalID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("DeleteGoal: exec: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("DeleteGoal: %w", store.ErrNotFound)
	}
	return nil
}

// Contribute adds amount in a single statement, so concurrent contributions never
// lose updates. The goal is marked completed once the target is reached.
func (r *GoalRepository) Contribute(ctx context.Context, userID, goalID string, amount float64) (*domain.Goal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Contribute: %w", errors.Join(domain.ErrInvalidGoal, errors.New("contribution must be positive")))
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE goals
		SET current_amount = current_amount + $3,
			status = CASE WHEN current_amount + $3 >= target_amount THEN 'completed' ELSE status END,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+goalColumns,
		goalID, userID, amount)
	g, err := scanGoal(row)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", notFound(err))
	}
	return g, nil
}
