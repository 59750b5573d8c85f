package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
	"github.com/dvloznov/budgetwise/internal/extract"
	"github.com/dvloznov/budgetwise/internal/parse"
)

// maxDescriptionLen bounds stored descriptions. Truncation happens before the
// duplicate check so a re-upload of the same file compares equal descriptions.
const maxDescriptionLen = 500

const truncationMarker = "..."

// MarkProcessingStep moves the file record from pending to processing.
type MarkProcessingStep struct {
	files FileStore
}

func (s *MarkProcessingStep) Execute(ctx context.Context, state *State) error {
	return s.files.MarkFileProcessing(ctx, state.FileID)
}

// FetchFileStep downloads the uploaded file bytes from storage.
type FetchFileStep struct {
	storage StorageService
}

func (s *FetchFileStep) Execute(ctx context.Context, state *State) error {
	data, err := s.storage.Fetch(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.Data = data
	return nil
}

// ExtractContentStep turns the raw file bytes into tabular rows or text lines.
type ExtractContentStep struct{}

func (s *ExtractContentStep) Execute(ctx context.Context, state *State) error {
	result, err := extract.Extract(state.Data, state.MIMEType, state.Filename)
	if err != nil {
		return err
	}
	state.Extracted = result
	return nil
}

// ParseTransactionsStep converts extracted content into normalized
// transactions. A file that parses to nothing is an error; the user gets a
// clear failure instead of a silently empty import.
type ParseTransactionsStep struct {
	parser *parse.Parser
}

func (s *ParseTransactionsStep) Execute(ctx context.Context, state *State) error {
	txs := s.parser.Parse(state.Extracted)
	if len(txs) == 0 {
		return ErrNoTransactions
	}
	state.Parsed = txs
	return nil
}

// CategorizeStep assigns a category to every parsed transaction.
type CategorizeStep struct {
	categorizer Categorizer
}

func (s *CategorizeStep) Execute(ctx context.Context, state *State) error {
	state.Categorized = s.categorizer.CategorizeAll(ctx, state.Parsed)
	return nil
}

// PersistTransactionsStep saves categorized transactions the user does not
// already have. Each row passes a per-row existence check on
// (date, description, amount) before insert; rows that match are counted as
// duplicates and skipped, so re-uploading a statement saves nothing new.
type PersistTransactionsStep struct {
	txs TransactionStore
	now func() time.Time
}

func (s *PersistTransactionsStep) Execute(ctx context.Context, state *State) error {
	for _, tx := range state.Categorized {
		description := truncateDescription(tx.Description)
		date := civil.DateOf(tx.Date)

		exists, err := s.txs.TransactionExists(ctx, state.UserID, date, description, tx.Amount)
		if err != nil {
			return fmt.Errorf("checking for duplicate: %w", err)
		}
		if exists {
			state.Result.DuplicateCount++
			continue
		}

		row := &bq.TransactionRow{
			TransactionID:   uuid.NewString(),
			UserID:          state.UserID,
			FileID:          bigquery.NullString{StringVal: state.FileID, Valid: state.FileID != ""},
			TransactionDate: date,
			Description:     description,
			Amount:          tx.Amount,
			IsIncome:        tx.IsIncome,
			CategoryName:    tx.Category,
			SubcategoryName: bigquery.NullString{StringVal: tx.Subcategory, Valid: tx.Subcategory != ""},
			Confidence:      tx.Confidence,
			CreatedTS:       s.now(),
		}

		if err := s.txs.InsertTransaction(ctx, row); err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}
		state.Result.SavedCount++
	}

	return nil
}

// MarkCompletedStep moves the file record to completed with the final counts.
type MarkCompletedStep struct {
	files FileStore
}

func (s *MarkCompletedStep) Execute(ctx context.Context, state *State) error {
	return s.files.MarkFileCompleted(ctx, state.FileID, state.Result.SavedCount, state.Result.DuplicateCount)
}

// truncateDescription caps a description at maxDescriptionLen runes,
// replacing the tail with a marker when it overflows. Counting runes rather
// than bytes keeps multibyte descriptions intact; a byte slice could split a
// UTF-8 sequence and the row insert would reject the invalid string.
func truncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= maxDescriptionLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxDescriptionLen-len(truncationMarker)]) + truncationMarker
}
