package tagger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store persists tag sequences keyed by tagger name and input string.
type Store interface {
	// GetTags returns the cached tags, or nil when there is no entry.
	GetTags(ctx context.Context, taggerName, input string) ([]string, error)
	SaveTags(ctx context.Context, taggerName, input string, tags []string) error
}

// Cached wraps a Tagger with a Store lookup.
type Cached struct {
	next   Tagger
	store  Store
	logger *zap.Logger
}

// NewCached creates a caching decorator. A nil logger discards write failures.
func NewCached(next Tagger, store Store, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, store: store, logger: logger}
}

// Name reports the wrapped tagger's name so cache keys stay stable.
func (c *Cached) Name() string {
	return c.next.Name()
}

// Tag returns cached tags when present, otherwise tags with the wrapped tagger
// and stores the result. Cached entries of the wrong length are ignored.
func (c *Cached) Tag(ctx context.Context, input string) ([]string, error) {
	name := c.next.Name()

	cached, err := c.store.GetTags(ctx, name, input)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag cache: %w", err)
	}
	if cached != nil && CheckShape(input, cached) == nil {
		return cached, nil
	}

	tags, err := c.next.Tag(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := c.store.SaveTags(ctx, name, input, tags); err != nil {
		c.logger.Warn("failed to write tag cache",
			zap.String("tagger", name),
			zap.String("input", input),
			zap.Error(err))
	}
	return tags, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]string)}
}

// GetTags implements Store.
func (m *MemoryStore) GetTags(_ context.Context, taggerName, input string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags, ok := m.entries[taggerName+"\x00"+input]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), tags...), nil
}

// SaveTags implements Store.
func (m *MemoryStore) SaveTags(_ context.Context, taggerName, input string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[taggerName+"\x00"+input] = append([]string(nil), tags...)
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
