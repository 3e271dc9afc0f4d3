package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// bigQueryTarget applies migrations to the finance dataset.
type bigQueryTarget struct {
	client    *bigquery.Client
	project   string
	dataset   string
	appliedBy string
}

func (t *bigQueryTarget) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", t.project, t.dataset)
}

func (t *bigQueryTarget) run(ctx context.Context, sql string, params ...bigquery.QueryParameter) error {
	query := t.client.Query(sql)
	query.Parameters = params
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (t *bigQueryTarget) EnsureSchemaTable(ctx context.Context) error {
	return t.run(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, t.table()))
}

func (t *bigQueryTarget) Applied(ctx context.Context) ([]AppliedMigration, error) {
	query := t.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, t.table()))
	it, err := query.Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

// Apply runs the migration and then records it. BigQuery has no multi-statement
// DDL transactions, so a failure between the two leaves the migration unrecorded.
func (t *bigQueryTarget) Apply(ctx context.Context, m Migration) error {
	if err := t.run(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing: %w", err)
	}
	err := t.run(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, t.table()),
		bigquery.QueryParameter{Name: "version", Value: m.Version},
		bigquery.QueryParameter{Name: "name", Value: m.Name},
		bigquery.QueryParameter{Name: "checksum", Value: m.Checksum},
		bigquery.QueryParameter{Name: "applied_by", Value: t.appliedBy},
	)
	if err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	return nil
}

func (t *bigQueryTarget) Close() error {
	return t.client.Close()
}
