// Package cache provides content.CacheProvider and content.ImageProvider
// implementations on top of pluggable stores.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrKeyNotFound           = constants.ErrCacheKeyNotFound
	ErrEntryExpired          = constants.ErrCacheEntryExpire
	ErrCacheDisabled         = constants.ErrCacheDisabled
	ErrKeyNotFoundInAnyStore = fmt.Errorf("%w in any store", constants.ErrCacheKeyNotFound)
)

// Entry is a cached binary with the validators it was served with.
type Entry struct {
	Data         []byte    `json:"data"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"lastModified,omitempty"`
	ContentType  string    `json:"contentType,omitempty"`
	StoredAt     time.Time `json:"storedAt"`
	// ExpiresAt is the zero time for entries that never expire.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Store is a cache backend.
type Store interface {
	// Get returns ErrKeyNotFound or ErrEntryExpired when no usable entry exists.
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// HashKey maps an arbitrary cache key to a fixed-length token that is safe
// as a file name, KV key or object key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

func encodeEntry(entry *Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry: %w", err)
	}

	return data, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	return &entry, nil
}

var timeNow = time.Now

// checkExpiry returns the entry or ErrEntryExpired.
func checkExpiry(entry *Entry) (*Entry, error) {
	if entry.Expired(timeNow()) {
		return nil, ErrEntryExpired
	}

	return entry, nil
}
