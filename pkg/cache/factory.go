package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/go-playground/validator/v10"
)

// StoreType represents the type of cache backend.
type StoreType string

const (
	// StoreTypeMemory represents an in-memory LRU store.
	StoreTypeMemory StoreType = "memory"

	// StoreTypeDisk represents a directory of entry files.
	StoreTypeDisk StoreType = "disk"

	// StoreTypeNATS represents a NATS JetStream KV bucket.
	StoreTypeNATS StoreType = "nats"

	// StoreTypeS3 represents an S3-compatible bucket.
	StoreTypeS3 StoreType = "s3"

	// StoreTypeSQLite represents a SQLite database file.
	StoreTypeSQLite StoreType = "sqlite"

	// StoreTypeNone represents no caching.
	StoreTypeNone StoreType = "none"
)

// Static errors for err113 compliance.
var (
	ErrInvalidConfig        = errors.New("invalid cache configuration")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS store")
	ErrS3ConfigRequired     = errors.New("S3 configuration required for S3 store")
	ErrUnsupportedStoreType = errors.New("unsupported store type")
)

var validate = validator.New()

// Config configures a store backend.
type Config struct {
	// Type is the store backend type.
	Type StoreType `validate:"omitempty,oneof=memory disk nats s3 sqlite none"`

	// MaxSize bounds the memory store.
	MaxSize int `validate:"min=0"`

	// Dir is the directory of the disk store.
	Dir string

	// Path is the database file of the sqlite store.
	Path string

	// NATS configures the NATS store.
	NATS *NATSConfig `validate:"-"`

	// S3 configures the S3 store.
	S3 *S3Config `validate:"-"`
}

// DefaultConfig returns default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:    StoreTypeMemory,
		MaxSize: constants.DefaultCacheSize,
	}
}

// NewStoreFromConfig creates a store backend from configuration.
func NewStoreFromConfig(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch config.Type {
	case StoreTypeMemory, "":
		return store(NewMemoryStore(config.MaxSize))

	case StoreTypeDisk:
		return store(NewDiskStore(config.Dir))

	case StoreTypeNATS:
		return store(NewNATSStore(ctx, config.NATS))

	case StoreTypeS3:
		return store(NewS3Store(ctx, config.S3))

	case StoreTypeSQLite:
		return store(NewSQLiteStore(config.Path))

	case StoreTypeNone:
		return NewNoOpStore(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStoreType, config.Type)
	}
}

// store keeps a failed constructor from returning a typed nil Store.
func store[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

// NoOpStore is a store that does nothing (no caching).
type NoOpStore struct{}

// NewNoOpStore creates a new no-op store.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Get always returns an error (nothing cached).
func (s *NoOpStore) Get(context.Context, string) (*Entry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (s *NoOpStore) Set(context.Context, string, *Entry) error {
	return nil
}

// Delete does nothing.
func (s *NoOpStore) Delete(context.Context, string) error {
	return nil
}

// Clear does nothing.
func (s *NoOpStore) Clear(context.Context) error {
	return nil
}

// Has always returns false.
func (s *NoOpStore) Has(context.Context, string) bool {
	return false
}

// StoreBuilder helps build store configurations.
type StoreBuilder struct {
	config *Config
}

// NewStoreBuilder creates a new store builder.
func NewStoreBuilder() *StoreBuilder {
	return &StoreBuilder{config: DefaultConfig()}
}

// WithType sets the store type.
func (b *StoreBuilder) WithType(storeType StoreType) *StoreBuilder {
	b.config.Type = storeType

	return b
}

// WithMaxSize sets the memory store size.
func (b *StoreBuilder) WithMaxSize(maxSize int) *StoreBuilder {
	b.config.MaxSize = maxSize

	return b
}

// WithDir sets the disk store directory.
func (b *StoreBuilder) WithDir(dir string) *StoreBuilder {
	b.config.Dir = dir

	return b
}

// WithSQLitePath sets the sqlite database file.
func (b *StoreBuilder) WithSQLitePath(path string) *StoreBuilder {
	b.config.Path = path

	return b
}

// WithNATSConfig sets NATS store configuration.
func (b *StoreBuilder) WithNATSConfig(config *NATSConfig) *StoreBuilder {
	b.config.NATS = config

	return b
}

// WithS3Config sets S3 store configuration.
func (b *StoreBuilder) WithS3Config(config *S3Config) *StoreBuilder {
	b.config.S3 = config

	return b
}

// Build creates the store from the configuration.
func (b *StoreBuilder) Build(ctx context.Context) (Store, error) {
	return NewStoreFromConfig(ctx, b.config)
}

// Chain implements a chain of stores (L1, L2, etc.).
type Chain struct {
	stores []Store
}

// NewChain creates a new store chain.
func NewChain(stores ...Store) *Chain {
	return &Chain{stores: stores}
}

// Get retrieves an entry from the first store that has it and back-fills the
// stores before it.
func (c *Chain) Get(ctx context.Context, key string) (*Entry, error) {
	for i, store := range c.stores {
		entry, err := store.Get(ctx, key)
		if err == nil {
			for j := range i {
				_ = c.stores[j].Set(ctx, key, entry)
			}

			return entry, nil
		}
	}

	return nil, ErrKeyNotFoundInAnyStore
}

// Set stores an entry in all stores.
func (c *Chain) Set(ctx context.Context, key string, entry *Entry) error {
	var lastErr error

	for _, store := range c.stores {
		if err := store.Set(ctx, key, entry); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Delete removes an entry from all stores.
func (c *Chain) Delete(ctx context.Context, key string) error {
	var lastErr error

	for _, store := range c.stores {
		if err := store.Delete(ctx, key); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Clear removes all entries from all stores.
func (c *Chain) Clear(ctx context.Context) error {
	var lastErr error

	for _, store := range c.stores {
		if err := store.Clear(ctx); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Has checks if a key exists in any store.
func (c *Chain) Has(ctx context.Context, key string) bool {
	for _, store := range c.stores {
		if store.Has(ctx, key) {
			return true
		}
	}

	return false
}
