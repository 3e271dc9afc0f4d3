package bigquery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertTransactionsWithClient streams a batch of TransactionRow into finance.transactions.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	savers, err := transactionSavers(rows)
	if err != nil {
		return fmt.Errorf("InsertTransactions: %w", err)
	}

	table := client.DatasetInProject(ds.Project, ds.Name).Table(transactionsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// transactionSavers keys every row by transaction_id as its insert ID, so
// BigQuery drops a re-sent row within its streaming dedup window.
func transactionSavers(rows []*TransactionRow) ([]*bigquery.StructSaver, error) {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return nil, fmt.Errorf("inferring schema: %w", err)
	}
	savers := make([]*bigquery.StructSaver, 0, len(rows))
	for _, row := range rows {
		savers = append(savers, &bigquery.StructSaver{Schema: schema, InsertID: row.TransactionID, Struct: row})
	}
	return savers, nil
}

// listTransactionsSQL builds the range query. The upper bound is optional.
func listTransactionsSQL(ds Dataset, bounded bool) string {
	upper := ""
	if bounded {
		upper = "\n\t\t  AND transaction_date <= @end_date"
	}
	return fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			account_id,
			transaction_date,
			amount,
			currency,
			name,
			merchant_name,
			category,
			is_pending,
			is_anomaly,
			source,
			created_ts,
			updated_ts
		FROM %s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date%s
		ORDER BY transaction_date DESC, created_ts DESC
	`, ds.table(transactionsTable), upper)
}

// ListTransactionsWithClient returns the user's transactions dated within [start, end],
// newest first. A zero end leaves the range open.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, start, end time.Time) ([]*TransactionRow, error) {
	bounded := !end.IsZero()
	q := client.Query(listTransactionsSQL(ds, bounded))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start.Format(dateFormat)},
	}
	if bounded {
		q.Parameters = append(q.Parameters, bigquery.QueryParameter{Name: "end_date", Value: end.Format(dateFormat)})
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

func setAnomalyFlagsSQL(ds Dataset) string {
	return fmt.Sprintf(`
		UPDATE %s
		SET
			is_anomaly = transaction_id IN UNNEST(@flagged_ids),
			updated_ts = CURRENT_TIMESTAMP()
		WHERE user_id = @user_id
		  AND transaction_id IN UNNEST(@ids)
		  AND is_anomaly IS DISTINCT FROM (transaction_id IN UNNEST(@flagged_ids))
	`, ds.table(transactionsTable))
}

// splitFlags returns every id in flags and the subset flagged true, both sorted.
func splitFlags(flags map[string]bool) (ids, flagged []string) {
	ids = make([]string, 0, len(flags))
	flagged = make([]string, 0, len(flags))
	for id, v := range flags {
		ids = append(ids, id)
		if v {
			flagged = append(flagged, id)
		}
	}
	sort.Strings(ids)
	sort.Strings(flagged)
	return ids, flagged
}

// SetAnomalyFlagsWithClient writes is_anomaly for the given transactions in one DML statement.
// Rows still in the streaming buffer cannot be updated; BigQuery rejects the statement and
// the caller is expected to retry.
func SetAnomalyFlagsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, flags map[string]bool) error {
	if len(flags) == 0 {
		return nil
	}
	ids, flagged := splitFlags(flags)

	q := client.Query(setAnomalyFlagsSQL(ds))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "ids", Value: ids},
		{Name: "flagged_ids", Value: flagged},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("SetAnomalyFlags: run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("SetAnomalyFlags: wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("SetAnomalyFlags: job failed: %w", err)
	}

	return nil
}
