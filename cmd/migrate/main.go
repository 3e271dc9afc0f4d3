package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/infra/postgres"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/rs/zerolog"
)

// target is a database that migrations can be applied to.
type target interface {
	EnsureSchemaTable(ctx context.Context) error
	Applied(ctx context.Context) ([]AppliedMigration, error)
	Apply(ctx context.Context, m Migration) error
	Close() error
}

var (
	targetName    = flag.String("target", "bigquery", "Migration target: bigquery or postgres")
	configPath    = flag.String("config", "", "Path to YAML config file")
	projectID     = flag.String("project", "", "GCP project ID (overrides config)")
	datasetID     = flag.String("dataset", "", "BigQuery dataset ID (overrides config)")
	postgresURL   = flag.String("postgres-url", "", "PostgreSQL URL (overrides config)")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "", "Path to migrations directory (default migrations/<target>)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(context.Background(), *cfg, log); err != nil {
		log.Fatal().Err(err).Str("target", *targetName).Msg("Migration failed")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if *projectID != "" {
		cfg.BigQuery.Project = *projectID
	}
	if *datasetID != "" {
		cfg.BigQuery.Dataset = *datasetID
	}
	if *postgresURL != "" {
		cfg.Postgres.URL = *postgresURL
	}

	dir := *migrationsDir
	if dir == "" {
		dir = "migrations/" + *targetName
	}
	dir, err := resolveDir(dir)
	if err != nil {
		return err
	}

	t, vars, err := openTarget(ctx, *targetName, cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	if err := t.EnsureSchemaTable(ctx); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	migrations, err := readMigrations(dir, vars, log)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("Found migration files")

	applied, err := t.Applied(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(applied)).Msg("Found applied migrations")

	todo, err := pending(migrations, applied)
	if err != nil {
		return err
	}

	for _, m := range todo {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")
		if err := t.Apply(ctx, m); err != nil {
			return fmt.Errorf("migration %04d_%s: %w", m.Version, m.Name, err)
		}
	}

	if len(todo) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", len(todo)).Msg("Successfully applied migrations")
	}
	return nil
}

func openTarget(ctx context.Context, name string, cfg config.Config) (target, map[string]string, error) {
	switch name {
	case "bigquery":
		if cfg.BigQuery.Project == "" {
			return nil, nil, fmt.Errorf("bigquery target needs a project (-project or FINSIGHT_BIGQUERY_PROJECT)")
		}
		client, err := bigquery.NewClient(ctx, cfg.BigQuery.Project)
		if err != nil {
			return nil, nil, fmt.Errorf("creating BigQuery client: %w", err)
		}
		vars := map[string]string{
			"PROJECT_ID": cfg.BigQuery.Project,
			"DATASET_ID": cfg.BigQuery.Dataset,
		}
		return &bigQueryTarget{
			client:    client,
			project:   cfg.BigQuery.Project,
			dataset:   cfg.BigQuery.Dataset,
			appliedBy: *appliedBy,
		}, vars, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres target needs a URL (-postgres-url or FINSIGHT_POSTGRES_URL)")
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return &postgresTarget{pool: pool, appliedBy: *appliedBy}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown target %q", name)
	}
}
