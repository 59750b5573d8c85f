// Package pipeline orchestrates statement processing: fetch the uploaded
// file, extract its content, parse transactions, categorize them and persist
// the ones the user does not already have. Each stage is a Step operating on
// shared State so stages stay individually testable.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budgetwise/internal/categorize"
	"github.com/dvloznov/budgetwise/internal/extract"
	"github.com/dvloznov/budgetwise/internal/parse"
)

// ErrNoTransactions is returned when a supported file yields zero
// transactions after parsing and deduplication.
var ErrNoTransactions = errors.New("no transactions found in file")

// Step represents a single stage in the processing pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps.
type State struct {
	UserID   string
	FileID   string
	GCSURI   string
	MIMEType string
	Filename string

	Data        []byte
	Extracted   *extract.Result
	Parsed      []parse.Transaction
	Categorized []categorize.Categorized

	Result Result
}

// Result reports what the persistence step did with the parsed transactions.
type Result struct {
	SavedCount     int `json:"saved_count"`
	DuplicateCount int `json:"duplicate_count"`
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%T) failed: %w", i+1, step, err)
		}
	}
	return nil
}

// Request identifies one uploaded file to process.
type Request struct {
	UserID   string
	FileID   string
	GCSURI   string
	MIMEType string
	Filename string
}

// Processor runs the standard processing pipeline for uploaded files.
type Processor struct {
	files       FileStore
	txs         TransactionStore
	storage     StorageService
	categorizer Categorizer
	parser      *parse.Parser
	log         zerolog.Logger
	now         func() time.Time
}

// NewProcessor creates a processor wired to the given stores and services.
func NewProcessor(files FileStore, txs TransactionStore, storage StorageService, categorizer Categorizer, log zerolog.Logger) *Processor {
	return &Processor{
		files:       files,
		txs:         txs,
		storage:     storage,
		categorizer: categorizer,
		parser:      parse.New(),
		log:         log,
		now:         time.Now,
	}
}

// ProcessFile runs the full pipeline for one uploaded file. Unsupported
// formats are rejected before the file ever enters the processing state, so
// a rejected file keeps its pending status. Any failure after that point
// marks the file record as errored.
func (p *Processor) ProcessFile(ctx context.Context, req Request) (*Result, error) {
	if !extract.Supported(req.MIMEType, req.Filename) {
		return nil, fmt.Errorf("%w: %s (%s)", extract.ErrUnsupportedFormat, req.Filename, req.MIMEType)
	}

	state := &State{
		UserID:   req.UserID,
		FileID:   req.FileID,
		GCSURI:   req.GCSURI,
		MIMEType: req.MIMEType,
		Filename: req.Filename,
	}

	pipe := NewPipeline(
		&MarkProcessingStep{files: p.files},
		&FetchFileStep{storage: p.storage},
		&ExtractContentStep{},
		&ParseTransactionsStep{parser: p.parser},
		&CategorizeStep{categorizer: p.categorizer},
		&PersistTransactionsStep{txs: p.txs, now: p.now},
		&MarkCompletedStep{files: p.files},
	)

	if err := pipe.Execute(ctx, state); err != nil {
		p.files.MarkFileFailed(ctx, req.FileID, err)
		return nil, err
	}

	p.log.Info().
		Str("file_id", req.FileID).
		Int("saved", state.Result.SavedCount).
		Int("duplicates", state.Result.DuplicateCount).
		Msg("File processed")

	return &state.Result, nil
}
