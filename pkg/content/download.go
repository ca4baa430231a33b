package content

import (
	"context"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// Register the decoders used for downloaded images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

// CachePolicy tells the download engine how to use a provider.
type CachePolicy int

const (
	// AlwaysFetchWithConditionalHeader always hits the network, sending the
	// provider's validators so the server can answer 304.
	AlwaysFetchWithConditionalHeader CachePolicy = iota
	// BypassNetworkOnHit returns a cached item without any network call.
	BypassNetworkOnHit
)

func (p CachePolicy) String() string {
	if p == BypassNetworkOnHit {
		return "bypass-network-on-hit"
	}

	return "always-fetch-with-conditional-header"
}

// CacheProvider caches downloaded files and hands back URLs to them.
type CacheProvider interface {
	CachePolicy() CachePolicy
	// HeaderValues returns the conditional request headers for key.
	HeaderValues(ctx context.Context, key string) http.Header
	// Find is a local lookup with no side effects.
	Find(ctx context.Context, key string) (*url.URL, bool)
	// CachedItem returns the stored item after a 304. It must fail if it has none.
	CachedItem(ctx context.Context, key string) (*url.URL, error)
	// Store records a fresh download. It must copy what it keeps: the file is
	// removed once Store returns. Its failure fails the download.
	Store(ctx context.Context, file *url.URL, key string, header http.Header) (*url.URL, error)
}

// ImageProvider caches downloaded images in decoded form.
type ImageProvider interface {
	CachePolicy() CachePolicy
	HeaderValues(ctx context.Context, key string) http.Header
	Find(ctx context.Context, key string) (image.Image, bool)
	CachedItem(ctx context.Context, key string) (image.Image, error)
	Store(ctx context.Context, file *url.URL, key string, header http.Header) (image.Image, error)
}

// provider is the shape shared by both provider flavors.
type provider[T any] interface {
	CachePolicy() CachePolicy
	HeaderValues(ctx context.Context, key string) http.Header
	Find(ctx context.Context, key string) (T, bool)
	CachedItem(ctx context.Context, key string) (T, error)
	Store(ctx context.Context, file *url.URL, key string, header http.Header) (T, error)
}

type providerKinds struct {
	noItem      ErrorKind
	storeFailed ErrorKind
}

var (
	urlProviderKinds   = providerKinds{noItem: KindCacheProviderNoURLAvailable, storeFailed: KindCouldNotStoreDownload}
	imageProviderKinds = providerKinds{noItem: KindImageProviderNoImageAvailable, storeFailed: KindImageProviderCouldNotStoreImage}
)

// DownloadResult is a fresh download moved to the engine's download directory.
type DownloadResult struct {
	URL        *url.URL
	Path       string
	StatusCode int
	Header     http.Header
}

// Downloader fetches binary content, optionally through a cache provider.
type Downloader struct {
	engine *Engine
	params *RequestParameters
}

// NewDownloader returns a downloader for p.
func NewDownloader(e *Engine, p *RequestParameters) Downloader {
	return Downloader{engine: e, params: p}
}

// Parameters returns the underlying request parameters.
func (d *Downloader) Parameters() *RequestParameters { return d.params }

// Download fetches the binary with no cache. A 304 fails with KindNotModified.
func (d *Downloader) Download(ctx context.Context) (*DownloadResult, error) {
	resp, err := d.fetch(ctx, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified {
		return nil, StatusError(resp.StatusCode, nil)
	}

	return d.persist(resp)
}

// DownloadWithCache fetches the binary through p.
func (d *Downloader) DownloadWithCache(ctx context.Context, p CacheProvider) (*url.URL, error) {
	if p == nil {
		return nil, newError(KindMissingCacheProvider, "no cache provider supplied")
	}

	return runCached[*url.URL](ctx, d, p, urlProviderKinds)
}

// DownloadImage fetches and decodes an image with no cache.
func (d *Downloader) DownloadImage(ctx context.Context) (image.Image, error) {
	result, err := d.Download(ctx)
	if err != nil {
		return nil, err
	}

	return DecodeImageFile(result.Path)
}

// DownloadImageWithCache fetches an image through p.
func (d *Downloader) DownloadImageWithCache(ctx context.Context, p ImageProvider) (image.Image, error) {
	if p == nil {
		return nil, newError(KindMissingImageProvider, "no image provider supplied")
	}

	return runCached[image.Image](ctx, d, p, imageProviderKinds)
}

// DownloadFunc runs Download on a worker goroutine.
func (d *Downloader) DownloadFunc(ctx context.Context, cb func(*DownloadResult, error)) *Operation {
	return Go(ctx, d.engine.dispatcher, d.Download, cb)
}

// DownloadFuture returns a cold future for Download.
func (d *Downloader) DownloadFuture(ctx context.Context) *Future[*DownloadResult] {
	return NewFuture(ctx, d.engine.dispatcher, d.Download)
}

// DownloadWithCacheFunc runs DownloadWithCache on a worker goroutine.
func (d *Downloader) DownloadWithCacheFunc(ctx context.Context, p CacheProvider, cb func(*url.URL, error)) *Operation {
	return Go(ctx, d.engine.dispatcher, func(ctx context.Context) (*url.URL, error) {
		return d.DownloadWithCache(ctx, p)
	}, cb)
}

// DownloadWithCacheFuture returns a cold future for DownloadWithCache.
func (d *Downloader) DownloadWithCacheFuture(ctx context.Context, p CacheProvider) *Future[*url.URL] {
	return NewFuture(ctx, d.engine.dispatcher, func(ctx context.Context) (*url.URL, error) {
		return d.DownloadWithCache(ctx, p)
	})
}

// DownloadImageFunc runs DownloadImage on a worker goroutine.
func (d *Downloader) DownloadImageFunc(ctx context.Context, cb func(image.Image, error)) *Operation {
	return Go(ctx, d.engine.dispatcher, d.DownloadImage, cb)
}

// DownloadImageFuture returns a cold future for DownloadImage.
func (d *Downloader) DownloadImageFuture(ctx context.Context) *Future[image.Image] {
	return NewFuture(ctx, d.engine.dispatcher, d.DownloadImage)
}

// DownloadImageWithCacheFunc runs DownloadImageWithCache on a worker goroutine.
func (d *Downloader) DownloadImageWithCacheFunc(ctx context.Context, p ImageProvider, cb func(image.Image, error)) *Operation {
	return Go(ctx, d.engine.dispatcher, func(ctx context.Context) (image.Image, error) {
		return d.DownloadImageWithCache(ctx, p)
	}, cb)
}

// DownloadImageWithCacheFuture returns a cold future for DownloadImageWithCache.
func (d *Downloader) DownloadImageWithCacheFuture(ctx context.Context, p ImageProvider) *Future[image.Image] {
	return NewFuture(ctx, d.engine.dispatcher, func(ctx context.Context) (image.Image, error) {
		return d.DownloadImageWithCache(ctx, p)
	})
}

func runCached[T any](ctx context.Context, d *Downloader, p provider[T], kinds providerKinds) (T, error) {
	var zero T

	key := d.params.CacheKey()
	policy := p.CachePolicy()

	var conditional http.Header

	switch policy {
	case BypassNetworkOnHit:
		if item, ok := p.Find(ctx, key); ok {
			d.engine.logger.Debug("Cache hit", map[string]interface{}{"key": key, "policy": policy.String()})
			return item, nil
		}
	case AlwaysFetchWithConditionalHeader:
		conditional = p.HeaderValues(ctx, key)
	}

	resp, err := d.fetch(ctx, conditional)
	if err != nil {
		return zero, err
	}

	if resp.StatusCode == http.StatusNotModified {
		item, err := p.CachedItem(ctx, key)
		if err != nil {
			return zero, wrapError(kinds.noItem, err, "not modified but no cached item for "+key)
		}

		d.engine.logger.Debug("Not modified", map[string]interface{}{"key": key})

		return item, nil
	}

	result, err := d.persist(resp)
	if err != nil {
		return zero, err
	}

	defer d.discard(result.Path)

	item, err := p.Store(ctx, result.URL, key, resp.Header)
	if err != nil {
		return zero, wrapError(kinds.storeFailed, err, "failed to store "+key)
	}

	return item, nil
}

// fetch runs the download and classifies every status except 2xx and 304.
func (d *Downloader) fetch(ctx context.Context, conditional http.Header) (*TransportResponse, error) {
	req, transport, err := d.engine.Build(ctx, d.params)
	if err != nil {
		return nil, err
	}

	mergeHeader(req.Header, conditional)

	resp, err := d.engine.roundTrip(ctx, transport.Download, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified {
		return resp, nil
	}

	if err := StatusError(resp.StatusCode, resp.Body); err != nil {
		return nil, err
	}

	return resp, nil
}

// persist moves a downloaded temp file into the download directory under a
// fresh name.
func (d *Downloader) persist(resp *TransportResponse) (*DownloadResult, error) {
	if resp.FilePath == "" {
		return nil, newError(KindNoURLReturned, "transport returned no file")
	}

	if err := os.MkdirAll(d.engine.downloadDir, 0o750); err != nil {
		return nil, wrapError(KindCouldNotStoreDownload, err, "failed to create download directory")
	}

	ext := filepath.Ext(strings.TrimSuffix(d.params.Suffix(), "/"))
	if ext == "" {
		ext = filepath.Ext(resp.FilePath)
	}

	dest := filepath.Join(d.engine.downloadDir, uuid.NewString()+ext)

	if err := moveFile(resp.FilePath, dest); err != nil {
		return nil, wrapError(KindCouldNotStoreDownload, err, "failed to move download")
	}

	return &DownloadResult{
		URL:        &url.URL{Scheme: "file", Path: dest},
		Path:       dest,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}, nil
}

// discard removes a download the cache provider has taken a copy of.
func (d *Downloader) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.engine.logger.Warn("Failed to remove download", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

// DecodeImageFile decodes a png, jpeg or gif file.
func DecodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindCouldNotCreateImageFromURL, err, "failed to open "+path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrapError(KindCouldNotCreateImageFromURL, err, "failed to decode "+path)
	}

	return img, nil
}
