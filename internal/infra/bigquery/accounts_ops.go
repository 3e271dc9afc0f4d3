package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ListAccountsWithClient returns every account of the user, ordered by name.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]*AccountRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			user_id,
			institution_id,
			account_name,
			account_type,
			account_subtype,
			current_balance,
			available_balance,
			currency,
			updated_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY account_name, account_id
	`, ds.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}

	var rows []*AccountRow
	for {
		var r AccountRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
