package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

const (
	accountsTable     = "accounts"
	transactionsTable = "transactions"
	dateFormat        = "2006-01-02"
)

var (
	_ store.AccountRepository     = (*Repository)(nil)
	_ store.TransactionRepository = (*Repository)(nil)
)

// Dataset identifies the BigQuery dataset holding the finance tables.
type Dataset struct {
	Project string
	Name    string
}

// table returns the backtick-quoted, fully qualified table name for use in SQL.
func (d Dataset) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.Project, d.Name, name)
}

// Repository implements the account and transaction repositories on BigQuery.
// It holds a shared client so every call reuses the same connection.
type Repository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewRepository creates a BigQuery client for project and binds it to dataset.
func NewRepository(ctx context.Context, project, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, dataset), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, dataset string) *Repository {
	return &Repository{
		client: client,
		ds:     Dataset{Project: client.Project(), Name: dataset},
	}
}

// Client exposes the underlying client, e.g. for migrations.
func (r *Repository) Client() *bigquery.Client {
	return r.client
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListAccounts delegates to ListAccountsWithClient with the shared client.
func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := ListAccountsWithClient(ctx, r.client, r.ds, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListTransactions delegates to ListTransactionsWithClient with the shared client.
func (r *Repository) ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := ListTransactionsWithClient(ctx, r.client, r.ds, userID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// InsertTransactions converts txs to rows and streams them into the transactions table.
func (r *Repository) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	rows := make([]*TransactionRow, 0, len(txs))
	now := time.Now().UTC()
	for _, tx := range txs {
		if tx.UserID == "" {
			return fmt.Errorf("InsertTransactions: transaction %q: missing user id", tx.ID)
		}
		rows = append(rows, newTransactionRow(tx, now))
	}
	return InsertTransactionsWithClient(ctx, r.client, r.ds, rows)
}

// SetAnomalyFlags delegates to SetAnomalyFlagsWithClient with the shared client.
func (r *Repository) SetAnomalyFlags(ctx context.Context, userID string, flags map[string]bool) error {
	return SetAnomalyFlagsWithClient(ctx, r.client, r.ds, userID, flags)
}
