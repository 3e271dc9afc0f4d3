package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/metrics"
)

// AnomalyFlagger persists the is_anomaly flags computed by a report.
type AnomalyFlagger interface {
	FlagAnomalies(ctx context.Context, userID string, flags map[string]bool) error
}

// Engine loads a user's snapshot and derives the full insights report.
type Engine struct {
	loader          *Loader
	analyzer        *Analyzer
	flagger         AnomalyFlagger
	defaultCurrency string
	metrics         *metrics.Metrics
	log             zerolog.Logger
	now             func() time.Time
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithFlagger sets where anomaly flags are written. Without one, flags are dropped.
func WithFlagger(f AnomalyFlagger) EngineOption {
	return func(e *Engine) { e.flagger = f }
}

// WithMetrics records report and anomaly counters.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the report time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(loader *Loader, analyzer *Analyzer, defaultCurrency string, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:          loader,
		analyzer:        analyzer,
		defaultCurrency: defaultCurrency,
		log:             log,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate builds the report for userID. Anomaly flag persistence is best
// effort: failures are logged and do not fail the report.
func (e *Engine) Generate(ctx context.Context, userID string) (*Report, error) {
	now := e.now()
	snap, err := e.loader.Load(ctx, userID, now)
	if err != nil {
		e.metrics.ReportGenerated(err)
		return nil, fmt.Errorf("Generate: %w", err)
	}

	report, flags := e.Build(snap)
	e.metrics.ReportGenerated(nil)
	for anomalyType, n := range CountByType(report.Anomalies) {
		e.metrics.AnomaliesDetected(anomalyType, n)
	}

	if e.flagger != nil && len(flags) > 0 {
		if err := e.flagger.FlagAnomalies(ctx, userID, flags); err != nil {
			e.log.Error().Err(err).Str("user_id", userID).Int("transactions", len(flags)).Msg("Failed to persist anomaly flags")
		}
	}

	e.log.Info().
		Str("user_id", userID).
		Int("transactions", len(snap.Transactions)).
		Int("insights", len(report.TrendInsights)).
		Int("anomalies", len(report.Anomalies)).
		Int("recommendations", len(report.Recommendations)).
		Msg("Generated insights report")
	return report, nil
}

// Build derives a report from an already loaded snapshot. It does not mutate snap.
func (e *Engine) Build(snap *Snapshot) (*Report, map[string]bool) {
	a := e.analyzer
	currency := e.currency(snap)

	trends := a.AnalyzeTrends(snap, currency)
	predictions := a.Predict(snap, snap.Goals)

	recent := snap.Window(AnomalyWindowDays)
	anomalies, flags := a.DetectAnomalies(recent, snap.Transactions, currency)

	income30, expenses30 := totals(a.classifier, recent)
	inputs := RecommendationInputs{
		Income30:        income30,
		Expenses30:      expenses30,
		MonthlyExpenses: expenses30,
		TotalBalance:    snap.TotalBalance(),
		CategorySpend:   categorySpend(a.classifier, recent),
		Accounts:        snap.Accounts,
		Goals:           snap.Goals,
		Projections:     predictions.GoalProjections,
		Recurring:       predictions.RecurringPayments,
		Currency:        currency,
		Now:             snap.Now,
	}

	return &Report{
		TrendInsights:   trends.Insights,
		MonthlyExpenses: trends.MonthlyExpenses,
		Predictions:     predictions,
		Recommendations: a.Recommend(inputs),
		Anomalies:       anomalies,
		GoalInsights:    GoalInsights(snap.Goals, predictions.GoalProjections, currency),
		Summary: Summary{
			Income30:     Round(income30),
			Expenses30:   Round(expenses30),
			SavingsRate:  roundTo(inputs.SavingsRate(), 1),
			TotalBalance: Round(inputs.TotalBalance),
		},
		Currency:    currency,
		GeneratedAt: snap.Now.UTC(),
	}, flags
}

func (e *Engine) currency(snap *Snapshot) string {
	if len(snap.Accounts) > 0 && snap.Accounts[0].Currency != "" {
		return snap.Accounts[0].Currency
	}
	return e.defaultCurrency
}

// FlaggerFunc adapts a function to AnomalyFlagger.
type FlaggerFunc func(ctx context.Context, userID string, flags map[string]bool) error

// FlagAnomalies implements AnomalyFlagger.
func (f FlaggerFunc) FlagAnomalies(ctx context.Context, userID string, flags map[string]bool) error {
	return f(ctx, userID, flags)
}
