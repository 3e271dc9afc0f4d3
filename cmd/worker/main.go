package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/logger"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		users       = flag.String("users", "", "Comma-separated user IDs to refresh (required)")
		interval    = flag.Duration("interval", 0, "Refresh interval; 0 refreshes once and exits")
		concurrency = flag.Int("concurrency", 4, "Reports generated in parallel")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	userIDs := splitUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("Usage: worker -users u1,u2 [-interval 6h]")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	// Workers persist the anomaly flags queued by each report.
	if err := a.StartWorkers(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	log.Info().Int("users", len(userIDs)).Dur("interval", *interval).Msg("Starting refresh worker")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		refreshAll(ctx, a, userIDs, *concurrency, log)
		if *interval <= 0 {
			break
		}
		select {
		case <-time.After(*interval):
			continue
		case <-quit:
		}
		break
	}

	log.Info().Msg("Shutting down refresh worker...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := a.Queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancel()

	log.Info().Msg("Refresh worker stopped")
}

// refreshAll regenerates the report of every user. One user's failure does not stop the others.
func refreshAll(ctx context.Context, a *app.App, userIDs []string, limit int, log zerolog.Logger) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	failed := make([]bool, len(userIDs))
	for i, userID := range userIDs {
		g.Go(func() error {
			report, err := a.Engine.Generate(gctx, userID)
			if err != nil {
				failed[i] = true
				log.Error().Err(err).Str("user_id", userID).Msg("Report refresh failed")
				return nil
			}
			log.Debug().
				Str("user_id", userID).
				Int("anomalies", len(report.Anomalies)).
				Msg("Report refreshed")
			return nil
		})
	}
	_ = g.Wait()

	errCount := 0
	for _, f := range failed {
		if f {
			errCount++
		}
	}
	log.Info().
		Int("users", len(userIDs)).
		Int("failed", errCount).
		Dur("took", time.Since(start)).
		Msg("Refresh pass completed")
}

func splitUsers(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
