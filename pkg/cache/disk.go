package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
)

const diskEntrySuffix = ".entry"

// DiskStore keeps one JSON file per entry in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: disk store needs a directory", ErrInvalidConfig)
	}

	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, HashKey(key)+diskEntrySuffix)
}

// Get retrieves an entry.
func (s *DiskStore) Get(_ context.Context, key string) (*Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}

	return checkExpiry(entry)
}

// Set writes an entry atomically.
func (s *DiskStore) Set(_ context.Context, key string, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	return writeFileAtomic(s.path(key), data)
}

// Delete removes an entry.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}

	return nil
}

// Clear removes every entry file.
func (s *DiskStore) Clear(context.Context) error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("listing cache directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), diskEntrySuffix) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, file.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting cache entry: %w", err)
		}
	}

	return nil
}

// Has reports whether a usable entry exists.
func (s *DiskStore) Has(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)

	return err == nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
