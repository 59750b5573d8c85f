package pipeline

import (
	"context"

	"cloud.google.com/go/civil"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
	"github.com/dvloznov/budgetwise/internal/categorize"
	"github.com/dvloznov/budgetwise/internal/gcs"
	"github.com/dvloznov/budgetwise/internal/parse"
)

// StorageService is the storage dependency of the pipeline.
type StorageService = gcs.StorageService

// FileStore is the subset of file-record operations the pipeline drives the
// status machine with.
type FileStore interface {
	MarkFileProcessing(ctx context.Context, fileID string) error
	MarkFileCompleted(ctx context.Context, fileID string, saved, duplicates int) error
	MarkFileFailed(ctx context.Context, fileID string, procErr error)
}

// TransactionStore is the subset of transaction operations the persistence
// step needs.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, row *bq.TransactionRow) error
	TransactionExists(ctx context.Context, userID string, date civil.Date, description string, amount float64) (bool, error)
}

// Categorizer assigns categories to parsed transactions. It never fails;
// transactions that cannot be classified remotely carry a fallback category.
type Categorizer interface {
	CategorizeAll(ctx context.Context, txs []parse.Transaction) []categorize.Categorized
}
