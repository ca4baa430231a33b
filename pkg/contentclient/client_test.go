package contentclient_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/testutil"
	"github.com/fivetwenty-io/content-sdk/pkg/cache"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/fivetwenty-io/content-sdk/pkg/contentclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *testutil.Server, opts ...func(*contentclient.Config)) *contentclient.Client {
	t.Helper()

	config := &contentclient.Config{
		Config: content.Config{
			Credentials: &content.StaticCredentials{
				URL:     server.URL,
				Token:   server.Token,
				Channel: server.Channel,
			},
			DownloadDir:  t.TempDir(),
			PollInterval: time.Millisecond,
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	client, err := contentclient.New(config)
	require.NoError(t, err)

	return client
}

func pngFixture(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func imageAsset(id string) testutil.Object {
	return testutil.Object{
		"id":   id,
		"type": "Image",
		"name": id + ".png",
		"fields": testutil.Object{
			"fileGroup": "Images",
			"mimeType":  "image/png",
			"fileType":  "png",
			"size":      1234,
		},
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := contentclient.New(nil)
	require.ErrorIs(t, err, content.ErrCouldNotCreateService)

	_, err = contentclient.New(&contentclient.Config{})
	require.ErrorIs(t, err, content.ErrCouldNotCreateService)

	_, err = contentclient.New(&contentclient.Config{
		Config:   content.Config{Credentials: &content.StaticCredentials{URL: "https://example.com"}},
		RetryMax: 11,
	})
	require.ErrorIs(t, err, content.ErrCouldNotCreateService)

	_, err = contentclient.New(&contentclient.Config{
		Config: content.Config{
			Credentials: &content.StaticCredentials{URL: "https://example.com"},
			APIVersion:  "1.1",
		},
	})
	require.ErrorIs(t, err, content.ErrInvalidVersion)
}

func TestItems_ListPaging(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	for _, id := range []string{"i1", "i2", "i3", "i4", "i5"} {
		server.AddItem(testutil.Object{"id": id, "type": "Article", "name": "Item " + id})
	}

	client := newTestClient(t, server)
	ctx := context.Background()

	list := client.ListItems().Limit(2).TotalResults(true)

	page, err := list.FetchNext(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, uint(5), page.TotalResults)
	assert.Equal(t, "i1", page.Items[0].ID)
	assert.Equal(t, "und", page.Items[0].Language)

	items, err := list.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 3, list.Pages())
	assert.False(t, list.HasMore())

	_, err = list.FetchNext(ctx)
	require.ErrorIs(t, err, content.ErrNoMoreData)

	requests := server.Requests()
	require.Len(t, requests, 3)
	assert.Contains(t, requests[0], "limit=2")
	assert.Contains(t, requests[0], "channelToken=test-channel")
	assert.Contains(t, requests[1], "offset=2")
	assert.Contains(t, requests[2], "offset=4")
}

func TestItems_Query(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddItem(testutil.Object{"id": "a1", "type": "Article", "name": "First"})
	server.AddItem(testutil.Object{"id": "b1", "type": "Blog", "name": "Second"})
	server.AddItem(testutil.Object{"id": "a2", "type": "Article", "name": "Third"})

	client := newTestClient(t, server)

	items, err := client.ListItems().
		Query(`type eq "Article"`).
		OrderBy(content.SortClause{Field: "name"}).
		FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, "a2", items[1].ID)

	assert.Contains(t, server.Requests()[0], "orderBy=name%3Aasc")
}

func TestItems_Read(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddItem(testutil.Object{
		"id":       "CORE1",
		"type":     "Article",
		"name":     "Hello",
		"slug":     "hello-world",
		"language": "en-US",
		"fields":   testutil.Object{"title": "Hello", "rank": 3},
	})

	client := newTestClient(t, server)
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		t.Parallel()

		item, err := client.ReadItem("CORE1").Fields("title").Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Hello", item.Name)
		assert.Equal(t, "en-US", item.Language)

		title, ok := item.Field("title").AsString()
		assert.True(t, ok)
		assert.Equal(t, "Hello", title)
	})

	t.Run("by slug", func(t *testing.T) {
		t.Parallel()

		item, err := client.ReadItemBySlug("hello-world").Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "CORE1", item.ID)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, err := client.ReadItem("missing").Fetch(ctx)
		require.Error(t, err)
		assert.True(t, content.IsNotFound(err))
		assert.Equal(t, 404, content.StatusCode(err))
		assert.Equal(t, "no item missing", content.AsError(err).Detail())
	})
}

func TestItems_EmptyIDSendsNothing(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server)

	_, err := client.ReadItem("").Fetch(context.Background())
	require.ErrorIs(t, err, content.ErrInvalidURL)

	_, err = client.ReadItemBySlug(" ").Fetch(context.Background())
	require.ErrorIs(t, err, content.ErrInvalidURL)

	assert.Equal(t, 0, server.RequestCount())
}

func TestItems_ChannelTokenOverride(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddItem(testutil.Object{"id": "i1", "type": "Article", "name": "One"})

	client := newTestClient(t, server)

	_, err := client.ListItems().ChannelToken("other-channel").FetchNext(context.Background())
	require.Error(t, err)
	assert.True(t, content.IsForbidden(err))
	assert.Contains(t, server.Requests()[0], "channelToken=other-channel")
	assert.NotContains(t, server.Requests()[0], "test-channel")
}

func TestClient_Unauthorized(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server, func(c *contentclient.Config) {
		c.Credentials = &content.StaticCredentials{URL: server.URL, Token: "wrong", Channel: server.Channel}
	})

	_, err := client.ListItems().FetchNext(context.Background())
	require.Error(t, err)
	assert.True(t, content.IsUnauthorized(err))
}

func TestAssets_Read(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddAsset(imageAsset("CONT1"), nil)

	client := newTestClient(t, server)

	asset, err := client.ReadAsset("CONT1").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Images", asset.FileGroup)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "png", asset.FileExtension)
	assert.Equal(t, int64(1234), asset.Size)
}

func TestDownload_Native(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddAsset(imageAsset("CONT1"), map[string][]byte{"native": []byte("original bytes")})

	client := newTestClient(t, server)

	result, err := client.DownloadNative("CONT1").Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("original bytes"), data)
	assert.Equal(t, testutil.ETag(data), result.Header.Get("ETag"))
}

func TestDownload_RenditionWithFormat(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddAsset(imageAsset("CONT1"), map[string][]byte{"Large.webp": []byte("webp bytes")})

	client := newTestClient(t, server)

	result, err := client.DownloadRendition("CONT1", "Large", "webp", "").Download(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("webp bytes"), data)
	assert.Contains(t, server.Requests()[0], "/assets/CONT1/Large?format=webp")
}

func TestDownload_InvalidRendition(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server)
	ctx := context.Background()

	_, err := client.DownloadRendition("CONT1", "", "", "").Download(ctx)
	require.ErrorIs(t, err, content.ErrInvalidRequest)

	_, err = client.DownloadNative("").Download(ctx)
	require.ErrorIs(t, err, content.ErrInvalidURL)

	_, err = client.DownloadThumbnail(nil).Download(ctx)
	require.ErrorIs(t, err, content.ErrInvalidRequest)

	_, err = client.DownloadThumbnail(&content.Asset{ID: "x", FileGroup: "Files"}).Download(ctx)
	require.ErrorIs(t, err, content.ErrInvalidRequest)

	assert.Equal(t, 0, server.RequestCount())
}

func TestDownload_Thumbnail(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	thumb := pngFixture(t)
	server.AddAsset(imageAsset("CONT1"), map[string][]byte{"thumbnail": thumb})
	server.AddExternal("video-thumb.png", thumb)

	client := newTestClient(t, server)
	ctx := context.Background()

	t.Run("image", func(t *testing.T) {
		t.Parallel()

		asset, err := client.ReadAsset("CONT1").Fetch(ctx)
		require.NoError(t, err)

		img, err := client.DownloadThumbnail(asset).DownloadImage(ctx)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	})

	t.Run("video with external thumbnail", func(t *testing.T) {
		t.Parallel()

		asset := &content.Asset{
			ID:        "VIDEO1",
			FileGroup: "Videos",
			AdvancedVideoInfo: &content.AdvancedVideoInfo{
				Provider: "kaltura",
				Properties: content.AdvancedVideoInfoProperties{
					ThumbnailURL: server.URL + "/external/video-thumb.png",
				},
			},
		}

		img, err := client.DownloadThumbnail(asset).DownloadImage(ctx)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	})
}

func TestDownload_WithURLCache(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	data := []byte("cached document")
	server.AddAsset(imageAsset("CONT1"), map[string][]byte{"native": data})

	client := newTestClient(t, server)
	ctx := context.Background()

	store, err := cache.NewMemoryStore(10)
	require.NoError(t, err)

	provider, err := cache.NewURLCache(store, t.TempDir())
	require.NoError(t, err)

	first, err := client.DownloadNative("CONT1").DownloadWithCache(ctx, provider)
	require.NoError(t, err)

	second, err := client.DownloadNative("CONT1").DownloadWithCache(ctx, provider)
	require.NoError(t, err)
	assert.Equal(t, first.Path, second.Path)

	cached, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, data, cached)

	// Both calls hit the network; the second is answered with 304.
	assert.Equal(t, 2, server.RequestCount())
	assert.Equal(t, int64(1), provider.Stats().Stores)
}

func TestDownload_WithImageCacheBypass(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddAsset(imageAsset("CONT1"), map[string][]byte{"Small": pngFixture(t)})

	client := newTestClient(t, server)
	ctx := context.Background()

	store, err := cache.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	provider, err := cache.NewImageCache(store, 8, cache.WithPolicy(content.BypassNetworkOnHit))
	require.NoError(t, err)

	for range 3 {
		img, err := client.DownloadRendition("CONT1", "Small", "", "").DownloadImageWithCache(ctx, provider)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	}

	assert.Equal(t, 1, server.RequestCount())
}

func TestDownload_MissingProvider(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server)

	_, err := client.DownloadNative("CONT1").DownloadWithCache(context.Background(), nil)
	require.ErrorIs(t, err, content.ErrMissingCacheProvider)

	_, err = client.DownloadNative("CONT1").DownloadImageWithCache(context.Background(), nil)
	require.ErrorIs(t, err, content.ErrMissingImageProvider)
}

func TestTaxonomies(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddTaxonomy(
		testutil.Object{"id": "TAX1", "name": "Regions", "shortName": "REG", "isPublishable": true},
		testutil.Object{"id": "CAT1", "name": "Europe", "apiName": "europe", "position": 0},
		testutil.Object{"id": "CAT2", "name": "Asia", "apiName": "asia", "position": 1},
	)

	client := newTestClient(t, server)
	ctx := context.Background()

	taxonomies, err := client.ListTaxonomies().FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, taxonomies, 1)
	assert.Equal(t, "REG", taxonomies[0].ShortName)

	taxonomy, err := client.ReadTaxonomy("TAX1").Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, taxonomy.IsPublishable)

	var names []string

	err = client.ListTaxonomyCategories("TAX1").Limit(1).ForEach(ctx, func(c content.Category) error {
		names = append(names, c.Name)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Europe", "Asia"}, names)

	_, err = client.ListTaxonomyCategories("TAX9").FetchNext(ctx)
	assert.True(t, content.IsNotFound(err))
}

func TestBulk_PublishItems(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.PollsUntilComplete = 3

	client := newTestClient(t, server)

	status, err := client.PublishItems([]string{"CHAN1"}, "i1", "i2").Run(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.True(t, status.Succeeded())
	assert.Equal(t, "job-1", status.ID)

	requests := server.Requests()
	require.Len(t, requests, 4)
	assert.True(t, strings.HasPrefix(requests[0], "POST "))
	assert.Contains(t, requests[3], "/bulkItemsOperations/job-1")
	assert.NotContains(t, requests[0], "channelToken")
}

func TestBulk_UnpublishFuture(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server)
	ctx := context.Background()

	future := client.UnpublishItems([]string{"CHAN1"}, "i1").RunFuture(ctx, client.Engine().Dispatcher())

	status, err := future.Await(ctx)
	require.NoError(t, err)
	assert.True(t, status.Completed)
}

func TestBulk_Validation(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	client := newTestClient(t, server)
	ctx := context.Background()

	_, err := client.PublishItems([]string{"CHAN1"}).Run(ctx)
	require.ErrorIs(t, err, content.ErrInvalidRequest)

	_, err = client.PublishItems(nil, "i1").Run(ctx)
	require.ErrorIs(t, err, content.ErrInvalidRequest)

	_, err = client.BulkOperationStatus("").Fetch(ctx)
	require.ErrorIs(t, err, content.ErrInvalidURL)

	assert.Equal(t, 0, server.RequestCount())
}

func TestClient_Metrics(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	server.AddItem(testutil.Object{"id": "i1", "type": "Article", "name": "One"})

	reg := prometheus.NewRegistry()
	client := newTestClient(t, server, func(c *contentclient.Config) {
		c.MetricsRegisterer = reg
	})

	_, err := client.ReadItem("i1").Fetch(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool

	for _, family := range families {
		if family.GetName() == "content_http_requests_total" {
			found = true

			require.Len(t, family.GetMetric(), 1)
			assert.InDelta(t, 1.0, family.GetMetric()[0].GetCounter().GetValue(), 0.0001)
		}
	}

	assert.True(t, found)
}
