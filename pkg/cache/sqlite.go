package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps entries in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite store needs a path", ErrInvalidConfig)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key           TEXT PRIMARY KEY,
		data          BLOB NOT NULL,
		etag          TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		content_type  TEXT NOT NULL DEFAULT '',
		stored_at     INTEGER NOT NULL,
		expires_at    INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get retrieves an entry.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		entry     Entry
		storedAt  int64
		expiresAt int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT data, etag, last_modified, content_type, stored_at, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&entry.Data, &entry.ETag, &entry.LastModified, &entry.ContentType, &storedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select cache entry: %w", err)
	}

	entry.StoredAt = time.UnixMilli(storedAt).UTC()
	if expiresAt > 0 {
		entry.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	}

	return checkExpiry(&entry)
}

// Set stores an entry, replacing any previous one.
func (s *SQLiteStore) Set(ctx context.Context, key string, entry *Entry) error {
	var expiresAt int64
	if !entry.ExpiresAt.IsZero() {
		expiresAt = entry.ExpiresAt.UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO cache_entries
		(key, data, etag, last_modified, content_type, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			content_type = excluded.content_type,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at`,
		key, entry.Data, entry.ETag, entry.LastModified, entry.ContentType, entry.StoredAt.UnixMilli(), expiresAt)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}

	return nil
}

// Clear removes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}

	return nil
}

// Has reports whether a usable entry exists.
func (s *SQLiteStore) Has(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)

	return err == nil
}

// Prune deletes expired entries and reports how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at < ?`, timeNow().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune cache entries: %w", err)
	}

	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
