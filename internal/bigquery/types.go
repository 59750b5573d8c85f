// Package bigquery holds the shared row types and repository interfaces for
// the BigQuery-backed stores. Concrete implementations live in
// internal/infra/bigquery; keeping the interfaces here lets handlers and the
// pipeline depend on the contract without importing the implementation.
package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// File statuses. A file starts as pending, moves to processing when a worker
// picks it up, and ends as completed or error.
const (
	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusCompleted  = "completed"
	FileStatusError      = "error"
)

// FileRepository provides file-record database operations.
type FileRepository interface {
	// InsertFile inserts a single FileRow.
	InsertFile(ctx context.Context, row *FileRow) error

	// GetFile retrieves a file record by ID.
	GetFile(ctx context.Context, fileID string) (*FileRow, error)

	// ListFilesByUser retrieves all file records for a user, newest first.
	ListFilesByUser(ctx context.Context, userID string) ([]*FileRow, error)

	// MarkFileProcessing sets status=processing.
	MarkFileProcessing(ctx context.Context, fileID string) error

	// MarkFileCompleted sets status=completed with the saved/duplicate counts.
	MarkFileCompleted(ctx context.Context, fileID string, saved, duplicates int) error

	// MarkFileFailed sets status=error with the error message. It never
	// returns an error so failure paths can always record their outcome.
	MarkFileFailed(ctx context.Context, fileID string, procErr error)

	// DeleteFile deletes a file record and all transactions imported from it.
	DeleteFile(ctx context.Context, userID, fileID string) error
}

// TransactionRepository provides transaction database operations.
type TransactionRepository interface {
	// InsertTransaction inserts a single TransactionRow.
	InsertTransaction(ctx context.Context, row *TransactionRow) error

	// TransactionExists reports whether the user already has a transaction
	// with the same date, description and amount.
	TransactionExists(ctx context.Context, userID string, date civil.Date, description string, amount float64) (bool, error)

	// ListTransactionsForPeriod retrieves a user's transactions for one
	// calendar month, ordered by date.
	ListTransactionsForPeriod(ctx context.Context, userID string, month time.Month, year int) ([]*TransactionRow, error)

	// UpdateTransaction updates the mutable fields (category, subcategory,
	// description) of a transaction.
	UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) error

	// DeleteTransaction deletes a single transaction.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// CategoryRepository provides category database operations.
type CategoryRepository interface {
	// ListActiveCategories retrieves all active categories.
	ListActiveCategories(ctx context.Context) ([]CategoryRow, error)

	// ListCategoryNames retrieves the names of all active categories.
	ListCategoryNames(ctx context.Context) ([]string, error)
}

// FileRow represents an uploaded statement file record.
type FileRow struct {
	FileID string `bigquery:"file_id" json:"file_id"`
	UserID string `bigquery:"user_id" json:"user_id"`
	GCSURI string `bigquery:"gcs_uri" json:"gcs_uri"`

	OriginalFilename string `bigquery:"original_filename" json:"original_filename"`
	FileMimeType     string `bigquery:"file_mime_type" json:"file_mime_type"`
	SizeBytes        int64  `bigquery:"size_bytes" json:"size_bytes"`

	Status       string `bigquery:"status" json:"status"`
	ErrorMessage string `bigquery:"error_message" json:"error_message,omitempty"`

	SavedCount     bigquery.NullInt64 `bigquery:"saved_count" json:"saved_count,omitempty"`
	DuplicateCount bigquery.NullInt64 `bigquery:"duplicate_count" json:"duplicate_count,omitempty"`

	UploadTS    time.Time              `bigquery:"upload_ts" json:"upload_ts"`
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts" json:"processed_ts,omitempty"`
}

// TransactionRow represents a stored transaction. Amount is always
// non-negative; IsIncome carries the direction.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id" json:"transaction_id"`

	UserID string              `bigquery:"user_id" json:"user_id"`
	FileID bigquery.NullString `bigquery:"file_id" json:"file_id,omitempty"`

	TransactionDate civil.Date `bigquery:"transaction_date" json:"transaction_date"`
	Description     string     `bigquery:"description" json:"description"`
	Amount          float64    `bigquery:"amount" json:"amount"`
	IsIncome        bool       `bigquery:"is_income" json:"is_income"`

	CategoryName    string              `bigquery:"category_name" json:"category_name"`
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name" json:"subcategory_name,omitempty"`
	Confidence      float64             `bigquery:"confidence" json:"confidence"`

	CreatedTS time.Time              `bigquery:"created_ts" json:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts" json:"updated_ts,omitempty"`
}

// TransactionUpdate carries the fields a client may change on a stored
// transaction. Nil pointers leave the stored value untouched.
type TransactionUpdate struct {
	CategoryName    *string `json:"category_name,omitempty"`
	SubcategoryName *string `json:"subcategory_name,omitempty"`
	Description     *string `json:"description,omitempty"`
}

// CategoryRow represents a category in the vocabulary.
type CategoryRow struct {
	CategoryID string `bigquery:"category_id" json:"category_id"`
	Name       string `bigquery:"name" json:"name"`

	Icon  bigquery.NullString `bigquery:"icon" json:"icon,omitempty"`
	Color bigquery.NullString `bigquery:"color" json:"color,omitempty"`

	IsDefault bigquery.NullBool `bigquery:"is_default" json:"is_default,omitempty"`
	IsActive  bigquery.NullBool `bigquery:"is_active" json:"is_active,omitempty"`

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts" json:"created_ts,omitempty"`
}
