package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig configures a NATS JetStream key/value store.
type NATSConfig struct {
	// URL of the NATS server, e.g. nats://localhost:4222.
	URL string `validate:"required,url"`

	// Bucket is the KV bucket name.
	Bucket string `validate:"required,excludesall=. *>"`

	// TTL expires entries server side. Zero keeps them forever.
	TTL time.Duration

	// MaxValueSize bounds a single entry in bytes. Zero means unlimited.
	MaxValueSize int32 `validate:"min=0"`

	// Options are passed to nats.Connect.
	Options []nats.Option `validate:"-"`
}

// NATSStore keeps entries in a JetStream KV bucket. Keys are hashed since KV
// keys only allow a restricted alphabet.
type NATSStore struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSStore connects and creates the bucket if it does not exist.
func NewNATSStore(ctx context.Context, config *NATSConfig) (*NATSStore, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	conn, err := nats.Connect(config.URL, config.Options...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       config.Bucket,
		Description:  "content download cache",
		TTL:          config.TTL,
		MaxValueSize: config.MaxValueSize,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating KV bucket %s: %w", config.Bucket, err)
	}

	return &NATSStore{conn: conn, kv: kv}, nil
}

// Get retrieves an entry.
func (s *NATSStore) Get(ctx context.Context, key string) (*Entry, error) {
	kve, err := s.kv.Get(ctx, HashKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("reading from NATS KV: %w", err)
	}

	entry, err := decodeEntry(kve.Value())
	if err != nil {
		return nil, err
	}

	return checkExpiry(entry)
}

// Set stores an entry.
func (s *NATSStore) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if _, err := s.kv.Put(ctx, HashKey(key), data); err != nil {
		return fmt.Errorf("writing to NATS KV: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (s *NATSStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, HashKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting from NATS KV: %w", err)
	}

	return nil
}

// Clear purges every key in the bucket.
func (s *NATSStore) Clear(ctx context.Context) error {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing NATS KV keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		if err := s.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("purging NATS KV key: %w", err)
		}
	}

	return nil
}

// Has reports whether a usable entry exists.
func (s *NATSStore) Has(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)

	return err == nil
}

// Close drains the connection.
func (s *NATSStore) Close() error {
	if err := s.conn.Drain(); err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
