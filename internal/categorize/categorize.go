// Package categorize assigns a spending category to extracted transactions.
// The primary path is a remote classification call with bounded retries; a
// deterministic keyword matcher serves as the fallback, so categorization
// always produces a result and never fails the pipeline.
package categorize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budgetwise/internal/parse"
	"github.com/dvloznov/budgetwise/internal/retry"
)

// Categorized is an extracted transaction plus its assigned category.
type Categorized struct {
	parse.Transaction
	Category    string
	Subcategory string
	Confidence  float64
}

const (
	defaultBatchSize  = 5
	defaultBatchPause = time.Second
	defaultAttempts   = 3
	defaultRetryBase  = time.Second
)

// Categorizer classifies transactions. remote may be nil, in which case every
// transaction takes the fallback path.
type Categorizer struct {
	remote RemoteClassifier
	cache  *VocabularyCache
	log    zerolog.Logger

	batchSize  int
	batchPause time.Duration
	attempts   int
	retryBase  time.Duration
}

// New creates a categorizer with the standard batch and retry policy:
// batches of 5 concurrent calls with a 1s pause between batches, and up to
// 3 remote attempts with exponential backoff starting at 1s.
func New(remote RemoteClassifier, cache *VocabularyCache, log zerolog.Logger) *Categorizer {
	return &Categorizer{
		remote:     remote,
		cache:      cache,
		log:        log,
		batchSize:  defaultBatchSize,
		batchPause: defaultBatchPause,
		attempts:   defaultAttempts,
		retryBase:  defaultRetryBase,
	}
}

// Categorize classifies a single transaction. It never returns an error:
// remote failures of any kind resolve to the deterministic fallback.
func (c *Categorizer) Categorize(ctx context.Context, tx parse.Transaction) Categorized {
	vocabulary := c.cache.Names(ctx)

	if c.remote != nil {
		res := c.tryRemote(ctx, tx, vocabulary)
		if !res.failed() {
			return Categorized{
				Transaction: tx,
				Category:    res.classification.Category,
				Subcategory: res.classification.Subcategory,
				Confidence:  res.classification.Confidence,
			}
		}
		c.log.Debug().
			Err(res.err).
			Str("description", tx.Description).
			Msg("Remote classification failed, using fallback")
	}

	return Fallback(tx)
}

// CategorizeAll classifies transactions preserving input order and length.
// It processes fixed-size batches of concurrent calls with a pause between
// batches to respect rate limits on the remote classifier.
func (c *Categorizer) CategorizeAll(ctx context.Context, txs []parse.Transaction) []Categorized {
	out := make([]Categorized, len(txs))

	for start := 0; start < len(txs); start += c.batchSize {
		end := min(start+c.batchSize, len(txs))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = c.Categorize(ctx, txs[i])
			}(i)
		}
		wg.Wait()

		if end < len(txs) && c.batchPause > 0 {
			select {
			case <-time.After(c.batchPause):
			case <-ctx.Done():
			}
		}
	}

	return out
}

// tryRemote runs the retried remote call and validates its output against the
// vocabulary. Auth failures are permanent and skip remaining attempts.
func (c *Categorizer) tryRemote(ctx context.Context, tx parse.Transaction, vocabulary []string) remoteResult {
	prompt := buildPrompt(tx, vocabulary)

	var raw string
	err := retry.Do(ctx, c.attempts, c.retryBase, isAuthError, func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.remote.Classify(ctx, prompt)
		return callErr
	})
	if err != nil {
		return remoteResult{err: err}
	}

	cls, err := parseClassification(raw)
	if err != nil {
		return remoteResult{err: err}
	}

	if !vocabularyContains(vocabulary, cls.Category) {
		return remoteResult{err: fmt.Errorf("category %q not in vocabulary", cls.Category)}
	}

	if cls.Confidence < 0 {
		cls.Confidence = 0
	}
	if cls.Confidence > 1 {
		cls.Confidence = 1
	}

	return remoteResult{classification: cls}
}

func vocabularyContains(vocabulary []string, category string) bool {
	for _, name := range vocabulary {
		if strings.EqualFold(name, category) {
			return true
		}
	}
	return false
}
