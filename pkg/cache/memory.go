package cache

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore keeps entries in a size-bounded LRU.
type MemoryStore struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemoryStore creates a memory store holding at most maxSize entries.
func NewMemoryStore(maxSize int) (*MemoryStore, error) {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	entries, err := lru.New[string, *Entry](maxSize)
	if err != nil {
		return nil, fmt.Errorf("creating memory store: %w", err)
	}

	return &MemoryStore{entries: entries}, nil
}

// Get retrieves an entry.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	if entry.Expired(timeNow()) {
		s.entries.Remove(key)

		return nil, ErrEntryExpired
	}

	return entry, nil
}

// Set stores an entry, evicting the least recently used one when full.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	s.entries.Add(key, entry)

	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.entries.Remove(key)

	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(context.Context) error {
	s.entries.Purge()

	return nil
}

// Has reports whether a usable entry exists.
func (s *MemoryStore) Has(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)

	return err == nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
