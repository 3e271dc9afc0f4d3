// Package app wires repositories, the job queue, receipt scanning and the
// insights engine from configuration. It is shared by the API and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/config"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/infra/postgres"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/metrics"
	"github.com/dvloznov/finance-insights/internal/receipts"
	"github.com/dvloznov/finance-insights/internal/store"
	"github.com/dvloznov/finance-insights/internal/store/memory"
)

// App holds the wired components of one process.
type App struct {
	Accounts     store.AccountRepository
	Transactions store.TransactionRepository
	Goals        store.GoalRepository

	JobStore *inmemory.Store
	Queue    *inmemory.Queue
	Jobs     *jobs.Mux

	// Scanner is nil when no receipt bucket is configured.
	Scanner *receipts.Scanner
	Engine  *insights.Engine
	Metrics *metrics.Metrics

	closers []func() error
}

// New builds an App. BigQuery, PostgreSQL and GCS are used when configured;
// otherwise the in-memory store stands in, which suits local runs.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Metrics: metrics.New()}
	var mem *memory.Store
	inMemory := func() *memory.Store {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}

	if cfg.BigQuery.Project != "" {
		repo, err := infraBQ.NewRepository(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.Accounts, a.Transactions = repo, repo
		log.Info().Str("project", cfg.BigQuery.Project).Str("dataset", cfg.BigQuery.Dataset).Msg("Using BigQuery for accounts and transactions")
	} else {
		a.Accounts, a.Transactions = inMemory(), inMemory()
		log.Warn().Msg("No BigQuery project configured - accounts and transactions are kept in memory")
	}

	if cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Goals = postgres.NewGoalRepository(pool)
		log.Info().Msg("Using PostgreSQL for goals")
	} else {
		a.Goals = inMemory()
		log.Warn().Msg("No PostgreSQL URL configured - goals are kept in memory")
	}

	a.JobStore = inmemory.NewStore()
	a.Queue = inmemory.NewQueue(a.JobStore, inmemory.QueueOptions{
		BufferSize: cfg.Jobs.Buffer,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		Metrics:    a.Metrics,
		Logger:     log,
	})
	a.closers = append(a.closers, a.Queue.Close)

	a.Jobs = jobs.NewMux()
	a.Jobs.Handle(jobs.JobTypeFlagAnomalies, jobs.FlagAnomaliesHandler(a.Transactions))

	if cfg.Storage.Bucket != "" {
		storage, err := receipts.NewGCSStorage(ctx, cfg.Storage.Bucket)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.closers = append(a.closers, storage.Close)

		parser, err := receipts.NewGeminiParser(ctx, cfg.BigQuery.Project, cfg.Receipts.Location, cfg.Receipts.Model)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.Scanner = receipts.NewScanner(storage, parser, a.Transactions, cfg.Currency.Default, log)
		a.Jobs.Handle(jobs.JobTypeScanReceipt, a.Scanner.JobHandler())
		log.Info().Str("bucket", cfg.Storage.Bucket).Str("model", cfg.Receipts.Model).Msg("Receipt scanning enabled")
	} else {
		log.Warn().Msg("No storage bucket configured - receipt scanning is disabled")
	}

	a.Engine = insights.NewEngine(
		insights.NewLoader(a.Accounts, a.Transactions, a.Goals),
		insights.NewAnalyzer(cfg.Insights, nil),
		cfg.Currency.Default,
		log,
		insights.WithFlagger(jobs.NewAnomalyFlagPublisher(a.Queue)),
		insights.WithMetrics(a.Metrics),
	)

	return a, nil
}

// StartWorkers starts the queue workers. They stop when ctx is cancelled or on Close.
func (a *App) StartWorkers(ctx context.Context) error {
	return a.Queue.Start(ctx, a.Jobs.Process)
}

// Close releases every client in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
