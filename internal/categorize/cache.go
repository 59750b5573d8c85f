package categorize

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCategories is the built-in vocabulary used when the category store
// is unavailable or returns nothing.
var DefaultCategories = []string{
	"Housing",
	"Transportation",
	"Food & Dining",
	"Utilities",
	"Entertainment",
	"Shopping",
	"Healthcare",
	"Personal Care",
	"Education",
	"Travel",
	"Subscriptions",
	"Income",
	"Other",
}

// VocabularyStore is the read-only source of category names.
type VocabularyStore interface {
	ListCategoryNames(ctx context.Context) ([]string, error)
}

// VocabularyCache caches the category vocabulary for a bounded TTL. Reads are
// concurrent-safe; a stale value is refreshed lazily on read and the last
// writer wins, so a brief TTL-window race can serve a slightly stale list.
type VocabularyCache struct {
	store VocabularyStore
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger

	mu        sync.RWMutex
	names     []string
	fetchedAt time.Time
}

// NewVocabularyCache creates a cache over store. A nil store always serves
// DefaultCategories.
func NewVocabularyCache(store VocabularyStore, ttl time.Duration, log zerolog.Logger) *VocabularyCache {
	return &VocabularyCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
}

// Names returns the current vocabulary. It never fails: store errors and
// empty results fall back to DefaultCategories, which is cached like any
// other value so an unavailable store is not hammered on every call.
func (c *VocabularyCache) Names(ctx context.Context) []string {
	c.mu.RLock()
	if c.names != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		names := c.names
		c.mu.RUnlock()
		return names
	}
	c.mu.RUnlock()

	names := DefaultCategories
	if c.store != nil {
		fetched, err := c.store.ListCategoryNames(ctx)
		switch {
		case err != nil:
			c.log.Warn().Err(err).Msg("Category store unavailable, using built-in vocabulary")
		case len(fetched) == 0:
			c.log.Warn().Msg("Category store returned no categories, using built-in vocabulary")
		default:
			names = fetched
		}
	}

	c.mu.Lock()
	c.names = names
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return names
}
