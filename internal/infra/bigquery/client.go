// Package bigquery is the BigQuery-backed implementation of the repository
// interfaces in internal/bigquery. One Repository holds a shared client so
// callers do not pay a new connection per operation.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
)

const (
	filesTable        = "files"
	transactionsTable = "transactions"
	categoriesTable   = "categories"
)

// Repository is the concrete implementation of FileRepository,
// TransactionRepository and CategoryRepository backed by BigQuery.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a repository with a shared BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.projectID, r.datasetID).Table(name)
}

// runDML runs a parameterized DML query and waits for it to finish.
func (r *Repository) runDML(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	q := r.client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
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

var (
	_ bq.FileRepository        = (*Repository)(nil)
	_ bq.TransactionRepository = (*Repository)(nil)
	_ bq.CategoryRepository    = (*Repository)(nil)
)
