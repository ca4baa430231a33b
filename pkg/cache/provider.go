package cache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Option configures a provider.
type Option func(*base)

// WithPolicy sets the cache policy. The default always fetches with
// conditional headers.
func WithPolicy(policy content.CachePolicy) Option {
	return func(b *base) { b.policy = policy }
}

// WithTTL expires entries ttl after they are stored.
func WithTTL(ttl time.Duration) Option {
	return func(b *base) { b.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger content.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// base holds what both provider flavors share: the store, the policy and the
// conditional header logic.
type base struct {
	store  Store
	policy content.CachePolicy
	ttl    time.Duration
	stats  Stats
	logger content.Logger
}

// init sets defaults and applies opts in place; base holds atomic counters and
// must not be copied.
func (b *base) init(store Store, opts []Option) {
	b.store = store
	b.policy = content.AlwaysFetchWithConditionalHeader
	b.logger = content.NopLogger{}

	for _, opt := range opts {
		opt(b)
	}
}

// CachePolicy implements content.CacheProvider.
func (b *base) CachePolicy() content.CachePolicy { return b.policy }

// Stats returns the lookup counters.
func (b *base) Stats() StatsSnapshot { return b.stats.Snapshot() }

// HeaderValues returns If-None-Match and If-Modified-Since for a stored entry.
func (b *base) HeaderValues(ctx context.Context, key string) http.Header {
	entry, err := b.store.Get(ctx, key)
	if err != nil {
		return nil
	}

	h := http.Header{}

	if entry.ETag != "" {
		h.Set(constants.HeaderIfNoneMatch, entry.ETag)
	}

	if entry.LastModified != "" {
		h.Set(constants.HeaderIfModifiedSince, entry.LastModified)
	}

	if len(h) == 0 {
		return nil
	}

	return h
}

// get reads an entry and counts the hit or miss.
func (b *base) get(ctx context.Context, key string) (*Entry, error) {
	entry, err := b.store.Get(ctx, key)
	if err != nil {
		b.stats.miss()
		b.logger.Debug("Cache miss", map[string]interface{}{"key": key, "reason": err.Error()})

		return nil, err
	}

	b.stats.hit()

	return entry, nil
}

func (b *base) lookup(ctx context.Context, key string) (*Entry, bool) {
	entry, err := b.get(ctx, key)
	return entry, err == nil
}

// record reads a downloaded file and stores it with the response validators.
func (b *base) record(ctx context.Context, file *url.URL, key string, header http.Header) (*Entry, error) {
	if file == nil || (file.Scheme != "" && file.Scheme != "file") {
		return nil, fmt.Errorf("%w: %v", constants.ErrNotRegularFile, file)
	}

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}

	now := timeNow().UTC()
	entry := &Entry{
		Data:         data,
		ETag:         header.Get(constants.HeaderETag),
		LastModified: header.Get(constants.HeaderLastModified),
		ContentType:  header.Get(constants.HeaderContentType),
		StoredAt:     now,
	}

	if b.ttl > 0 {
		entry.ExpiresAt = now.Add(b.ttl)
	}

	return entry, nil
}

func (b *base) save(ctx context.Context, key string, entry *Entry) error {
	if err := b.store.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}

	b.stats.store()
	b.logger.Debug("Cache store", map[string]interface{}{"key": key, "bytes": len(entry.Data), "etag": entry.ETag})

	return nil
}

// Clear empties the underlying store.
func (b *base) Clear(ctx context.Context) error {
	return b.store.Clear(ctx)
}

// URLCache implements content.CacheProvider. Entries live in a Store and are
// materialized as files in a local directory so they can be handed out as
// file URLs.
type URLCache struct {
	base

	dir string
}

var _ content.CacheProvider = (*URLCache)(nil)

// NewURLCache creates a provider materializing entries below dir.
func NewURLCache(store Store, dir string, opts ...Option) (*URLCache, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}

	if dir == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrInvalidConfig)
	}

	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := &URLCache{dir: dir}
	c.init(store, opts)

	return c, nil
}

// Find implements content.CacheProvider.
func (c *URLCache) Find(ctx context.Context, key string) (*url.URL, bool) {
	entry, ok := c.lookup(ctx, key)
	if !ok {
		return nil, false
	}

	u, err := c.materialize(key, entry)
	if err != nil {
		c.logger.Warn("Failed to materialize cache entry", map[string]interface{}{"key": key, "error": err.Error()})

		return nil, false
	}

	return u, true
}

// CachedItem implements content.CacheProvider. Serving the stored copy after a
// 304 counts as a hit.
func (c *URLCache) CachedItem(ctx context.Context, key string) (*url.URL, error) {
	entry, err := c.get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("no cached item for %s: %w", key, err)
	}

	return c.materialize(key, entry)
}

// Store implements content.CacheProvider.
func (c *URLCache) Store(ctx context.Context, file *url.URL, key string, header http.Header) (*url.URL, error) {
	entry, err := c.record(ctx, file, key, header)
	if err != nil {
		return nil, err
	}

	if err := c.save(ctx, key, entry); err != nil {
		return nil, err
	}

	return c.materialize(key, entry)
}

func (c *URLCache) materialize(key string, entry *Entry) (*url.URL, error) {
	path := filepath.Join(c.dir, HashKey(key))

	if info, err := os.Stat(path); err != nil || info.Size() != int64(len(entry.Data)) || info.ModTime().Before(entry.StoredAt) {
		if err := writeFileAtomic(path, entry.Data); err != nil {
			return nil, err
		}
	}

	return &url.URL{Scheme: "file", Path: path}, nil
}

// ImageCache implements content.ImageProvider. Decoded images are kept in an
// LRU in front of the store.
type ImageCache struct {
	base

	images *lru.Cache[string, image.Image]
}

var _ content.ImageProvider = (*ImageCache)(nil)

// NewImageCache creates a provider keeping up to size decoded images.
func NewImageCache(store Store, size int, opts ...Option) (*ImageCache, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}

	if size <= 0 {
		size = constants.DefaultImageCacheSize
	}

	images, err := lru.New[string, image.Image](size)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}

	c := &ImageCache{images: images}
	c.init(store, opts)

	return c, nil
}

// Find implements content.ImageProvider.
func (c *ImageCache) Find(ctx context.Context, key string) (image.Image, bool) {
	if img, ok := c.images.Get(key); ok {
		c.stats.hit()

		return img, true
	}

	entry, ok := c.lookup(ctx, key)
	if !ok {
		return nil, false
	}

	img, err := decodeImage(entry.Data)
	if err != nil {
		return nil, false
	}

	c.images.Add(key, img)

	return img, true
}

// CachedItem implements content.ImageProvider. Serving the stored copy after a
// 304 counts as a hit.
func (c *ImageCache) CachedItem(ctx context.Context, key string) (image.Image, error) {
	if img, ok := c.images.Get(key); ok {
		c.stats.hit()

		return img, nil
	}

	entry, err := c.get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("no cached image for %s: %w", key, err)
	}

	img, err := decodeImage(entry.Data)
	if err != nil {
		return nil, err
	}

	c.images.Add(key, img)

	return img, nil
}

// Store implements content.ImageProvider. Files that do not decode as an
// image are rejected.
func (c *ImageCache) Store(ctx context.Context, file *url.URL, key string, header http.Header) (image.Image, error) {
	entry, err := c.record(ctx, file, key, header)
	if err != nil {
		return nil, err
	}

	img, err := decodeImage(entry.Data)
	if err != nil {
		return nil, err
	}

	if err := c.save(ctx, key, entry); err != nil {
		return nil, err
	}

	c.images.Add(key, img)

	return img, nil
}

// Clear empties the store and the decoded images.
func (c *ImageCache) Clear(ctx context.Context) error {
	c.images.Purge()

	return c.base.Clear(ctx)
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &content.Error{Kind: content.KindCouldNotCreateImageFromURL, Message: "failed to decode image", Err: err}
	}

	return img, nil
}
