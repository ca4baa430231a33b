package content

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCacheProvider struct {
	mock.Mock
}

func (m *mockCacheProvider) CachePolicy() CachePolicy {
	return m.Called().Get(0).(CachePolicy)
}

func (m *mockCacheProvider) HeaderValues(ctx context.Context, key string) http.Header {
	h, _ := m.Called(ctx, key).Get(0).(http.Header)
	return h
}

func (m *mockCacheProvider) Find(ctx context.Context, key string) (*url.URL, bool) {
	args := m.Called(ctx, key)
	u, _ := args.Get(0).(*url.URL)

	return u, args.Bool(1)
}

func (m *mockCacheProvider) CachedItem(ctx context.Context, key string) (*url.URL, error) {
	args := m.Called(ctx, key)
	u, _ := args.Get(0).(*url.URL)

	return u, args.Error(1)
}

func (m *mockCacheProvider) Store(ctx context.Context, file *url.URL, key string, header http.Header) (*url.URL, error) {
	args := m.Called(ctx, file, key, header)
	u, _ := args.Get(0).(*url.URL)

	return u, args.Error(1)
}

type mockImageProvider struct {
	mock.Mock
}

func (m *mockImageProvider) CachePolicy() CachePolicy {
	return m.Called().Get(0).(CachePolicy)
}

func (m *mockImageProvider) HeaderValues(ctx context.Context, key string) http.Header {
	h, _ := m.Called(ctx, key).Get(0).(http.Header)
	return h
}

func (m *mockImageProvider) Find(ctx context.Context, key string) (image.Image, bool) {
	args := m.Called(ctx, key)
	img, _ := args.Get(0).(image.Image)

	return img, args.Bool(1)
}

func (m *mockImageProvider) CachedItem(ctx context.Context, key string) (image.Image, error) {
	args := m.Called(ctx, key)
	img, _ := args.Get(0).(image.Image)

	return img, args.Error(1)
}

func (m *mockImageProvider) Store(ctx context.Context, file *url.URL, key string, header http.Header) (image.Image, error) {
	args := m.Called(ctx, file, key, header)
	img, _ := args.Get(0).(image.Image)

	return img, args.Error(1)
}

func newTestDownloader(t *testing.T, transport Transport) *Downloader {
	t.Helper()

	e := newTestEngine(t, transport)
	p := NewRequestParameters("/content/published/api/v1.1/", "").UseDefaultChannelToken()
	require.NoError(t, NativeRendition().Apply(p, "assets", "CONT1"))

	d := NewDownloader(e, p)

	return &d
}

const testKey = "assets/CONT1/native"

func TestDownload_ConditionalNotModified(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(req *TransportRequest) (*TransportResponse, error) {
		assert.Equal(t, `"abc"`, req.Header.Get("If-None-Match"))
		return &TransportResponse{StatusCode: http.StatusNotModified}, nil
	})
	d := newTestDownloader(t, transport)

	cached := &url.URL{Scheme: "file", Path: "/cache/CONT1"}

	p := &mockCacheProvider{}
	p.On("CachePolicy").Return(AlwaysFetchWithConditionalHeader)
	p.On("HeaderValues", mock.Anything, testKey).Return(http.Header{"If-None-Match": []string{`"abc"`}})
	p.On("CachedItem", mock.Anything, testKey).Return(cached, nil)

	got, err := d.DownloadWithCache(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.Equal(t, 1, transport.calls())
	p.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p.AssertExpectations(t)
}

func TestDownload_NotModifiedWithoutCachedItem(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
		return &TransportResponse{StatusCode: http.StatusNotModified}, nil
	})

	t.Run("url provider", func(t *testing.T) {
		t.Parallel()

		p := &mockCacheProvider{}
		p.On("CachePolicy").Return(AlwaysFetchWithConditionalHeader)
		p.On("HeaderValues", mock.Anything, testKey).Return(http.Header{"If-None-Match": []string{`"abc"`}})
		p.On("CachedItem", mock.Anything, testKey).Return(nil, errors.New("cached item not found"))

		_, err := newTestDownloader(t, transport).DownloadWithCache(context.Background(), p)
		assert.ErrorIs(t, err, ErrCacheProviderNoURLAvailable)
	})

	t.Run("image provider", func(t *testing.T) {
		t.Parallel()

		p := &mockImageProvider{}
		p.On("CachePolicy").Return(AlwaysFetchWithConditionalHeader)
		p.On("HeaderValues", mock.Anything, testKey).Return(http.Header{})
		p.On("CachedItem", mock.Anything, testKey).Return(nil, errors.New("cached item not found"))

		_, err := newTestDownloader(t, transport).DownloadImageWithCache(context.Background(), p)
		assert.ErrorIs(t, err, ErrImageProviderNoImageAvailable)
	})
}

func TestDownload_BypassOnHit(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
		t.Fatal("no network call expected")
		return nil, nil
	})
	d := newTestDownloader(t, transport)

	hit := &url.URL{Scheme: "file", Path: "/cache/hit"}

	p := &mockCacheProvider{}
	p.On("CachePolicy").Return(BypassNetworkOnHit)
	p.On("Find", mock.Anything, testKey).Return(hit, true)

	got, err := d.DownloadWithCache(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, hit, got)
	assert.Equal(t, 0, transport.calls())
	p.AssertNotCalled(t, "HeaderValues", mock.Anything, mock.Anything)
}

func TestDownload_BypassMissStoresFreshFile(t *testing.T) {
	t.Parallel()

	payload := []byte("binary payload")
	transport := newFakeTransport(func(req *TransportRequest) (*TransportResponse, error) {
		assert.Empty(t, req.Header.Get("If-None-Match"))
		return &TransportResponse{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Etag": []string{`"v2"`}},
			FilePath:   tempDownload(t, payload),
		}, nil
	})
	d := newTestDownloader(t, transport)

	stored := &url.URL{Scheme: "file", Path: "/cache/stored"}

	p := &mockCacheProvider{}
	p.On("CachePolicy").Return(BypassNetworkOnHit)
	p.On("Find", mock.Anything, testKey).Return(nil, false)
	p.On("Store", mock.Anything, mock.MatchedBy(func(u *url.URL) bool {
		data, err := os.ReadFile(u.Path)
		return err == nil && bytes.Equal(data, payload)
	}), testKey, mock.MatchedBy(func(h http.Header) bool {
		return h.Get("ETag") == `"v2"`
	})).Return(stored, nil)

	got, err := d.DownloadWithCache(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	p.AssertExpectations(t)

	left, err := os.ReadDir(d.engine.downloadDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDownload_StoreFailureAborts(t *testing.T) {
	t.Parallel()

	freshDownload := func(t *testing.T) *fakeTransport {
		return newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
			return &TransportResponse{StatusCode: http.StatusOK, FilePath: tempDownload(t, []byte("x"))}, nil
		})
	}

	t.Run("url provider", func(t *testing.T) {
		t.Parallel()

		p := &mockCacheProvider{}
		p.On("CachePolicy").Return(AlwaysFetchWithConditionalHeader)
		p.On("HeaderValues", mock.Anything, testKey).Return(nil)
		p.On("Store", mock.Anything, mock.Anything, testKey, mock.Anything).Return(nil, errors.New("disk full"))

		_, err := newTestDownloader(t, freshDownload(t)).DownloadWithCache(context.Background(), p)
		assert.ErrorIs(t, err, ErrCouldNotStoreDownload)
	})

	t.Run("image provider", func(t *testing.T) {
		t.Parallel()

		p := &mockImageProvider{}
		p.On("CachePolicy").Return(AlwaysFetchWithConditionalHeader)
		p.On("HeaderValues", mock.Anything, testKey).Return(nil)
		p.On("Store", mock.Anything, mock.Anything, testKey, mock.Anything).Return(nil, errors.New("not an image"))

		_, err := newTestDownloader(t, freshDownload(t)).DownloadImageWithCache(context.Background(), p)
		assert.ErrorIs(t, err, ErrImageProviderCouldNotStoreImage)
	})
}

func TestDownload_MissingProviders(t *testing.T) {
	t.Parallel()

	d := newTestDownloader(t, newFakeTransport(nil))

	_, err := d.DownloadWithCache(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingCacheProvider)

	_, err = d.DownloadImageWithCache(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingImageProvider)
}

func TestDownload_Plain(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(req *TransportRequest) (*TransportResponse, error) {
		assert.Equal(t, "/content/published/api/v1.1/assets/CONT1/native", req.URL.Path)
		return &TransportResponse{StatusCode: http.StatusOK, FilePath: tempDownload(t, []byte("hello"))}, nil
	})
	d := newTestDownloader(t, transport)

	result, err := d.Download(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "file", result.URL.Scheme)
}

func TestDownload_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response *TransportResponse
		sentinel *Error
	}{
		{"not found", jsonResponse(http.StatusNotFound, `{"detail":"gone"}`), ErrNotFound},
		{"not modified without cache", &TransportResponse{StatusCode: http.StatusNotModified}, ErrNotModified},
		{"no file", &TransportResponse{StatusCode: http.StatusOK}, ErrNoURLReturned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
				return tt.response, nil
			})

			_, err := newTestDownloader(t, transport).Download(context.Background())
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestDownload_Image(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	transport := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
		return &TransportResponse{StatusCode: http.StatusOK, FilePath: tempDownload(t, buf.Bytes())}, nil
	})

	got, err := newTestDownloader(t, transport).DownloadImage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 3), got.Bounds())

	bad := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
		return &TransportResponse{StatusCode: http.StatusOK, FilePath: tempDownload(t, []byte("not an image"))}, nil
	})

	_, err = newTestDownloader(t, bad).DownloadImage(context.Background())
	assert.ErrorIs(t, err, ErrCouldNotCreateImageFromURL)
}

func TestDownload_FutureStyle(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(*TransportRequest) (*TransportResponse, error) {
		return &TransportResponse{StatusCode: http.StatusOK, FilePath: tempDownload(t, []byte("f"))}, nil
	})

	result, err := newTestDownloader(t, transport).DownloadFuture(context.Background()).Await(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, result.Path)
}
