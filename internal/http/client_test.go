package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contenthttp "github.com/fivetwenty-io/content-sdk/internal/http"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func newRequest(t *testing.T, method, rawURL string) *content.TransportRequest {
	t.Helper()

	u, err := url.Parse(rawURL)
	require.NoError(t, err)

	return &content.TransportRequest{Method: method, URL: u, Header: http.Header{}}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/content/published/api/v1.1/items", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "content-sdk-go", request.Header.Get("User-Agent"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "CORE1", "name": "test-item"})
		}))
		defer server.Close()

		client := contenthttp.NewClient()

		req := newRequest(t, "GET", server.URL+"/content/published/api/v1.1/items")
		req.Header.Set("Authorization", "Bearer test-token")

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "CORE1", result["id"])
		assert.Equal(t, "test-item", result["name"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "limit=10&offset=20", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := contenthttp.NewClient()

		resp, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/items?limit=10&offset=20"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "publish", body["operation"])

			writer.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		client := contenthttp.NewClient()

		req := newRequest(t, "POST", server.URL+"/bulkItemsOperations")
		req.Header.Set("Content-Type", "application/json")
		req.Body = []byte(`{"operation":"publish"}`)

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 202, resp.StatusCode)
	})

	t.Run("error response is returned, not classified", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"title":"Not Found","detail":"No item"}`))
		}))
		defer server.Close()

		client := contenthttp.NewClient()

		resp, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/items/missing"))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.JSONEq(t, `{"title":"Not Found","detail":"No item"}`, string(resp.Body))
	})

	t.Run("custom headers and user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "contentctl/1.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := contenthttp.NewClient(contenthttp.WithUserAgent("contentctl/1.0"))

		req := newRequest(t, "GET", server.URL+"/items")
		req.Header.Set("X-Custom-Header", "custom-value")

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := contenthttp.NewClient(contenthttp.WithLogger(logger), contenthttp.WithDebug(true))

		req := newRequest(t, "GET", server.URL+"/items")
		req.Header.Set("Authorization", "Bearer secret")

		_, err := client.Do(context.Background(), req)
		require.NoError(t, err)

		// Should have logged request and response
		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])

		fields, ok := logger.logs[0]["fields"].(map[string]interface{})
		require.True(t, ok)
		headers, ok := fields["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "[REDACTED]", headers["Authorization"])
	})

	t.Run("missing request", func(t *testing.T) {
		t.Parallel()

		_, err := contenthttp.NewClient().Do(context.Background(), nil)
		require.ErrorIs(t, err, contenthttp.ErrNoRequest)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := contenthttp.NewClient().Do(ctx, newRequest(t, "GET", server.URL))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	t.Run("streams success to a temp file", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("ETag", `"v1"`)
			_, _ = writer.Write([]byte("binary-payload"))
		}))
		defer server.Close()

		resp, err := contenthttp.NewClient().Download(context.Background(), newRequest(t, "GET", server.URL+"/assets/CONT1/native"))
		require.NoError(t, err)

		t.Cleanup(func() { _ = os.Remove(resp.FilePath) })

		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, `"v1"`, resp.Header.Get("ETag"))
		assert.Empty(t, resp.Body)
		assert.True(t, strings.Contains(resp.FilePath, "content-download-"))

		data, err := os.ReadFile(resp.FilePath)
		require.NoError(t, err)
		assert.Equal(t, "binary-payload", string(data))
	})

	t.Run("not modified carries no file", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, `"v1"`, request.Header.Get("If-None-Match"))
			writer.WriteHeader(http.StatusNotModified)
		}))
		defer server.Close()

		req := newRequest(t, "GET", server.URL+"/assets/CONT1/native")
		req.Header.Set("If-None-Match", `"v1"`)

		resp, err := contenthttp.NewClient().Download(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 304, resp.StatusCode)
		assert.Empty(t, resp.FilePath)
	})

	t.Run("error body is buffered", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusForbidden)
			_, _ = writer.Write([]byte(`{"title":"Forbidden"}`))
		}))
		defer server.Close()

		resp, err := contenthttp.NewClient().Download(context.Background(), newRequest(t, "GET", server.URL))
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
		assert.Empty(t, resp.FilePath)
		assert.JSONEq(t, `{"title":"Forbidden"}`, string(resp.Body))
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := contenthttp.NewClient(contenthttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/test"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := contenthttp.NewClient(contenthttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/test"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := contenthttp.NewClient(contenthttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/test"))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load()) // Should not retry
	})

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		resp, err := contenthttp.NewClient().Do(context.Background(), newRequest(t, "GET", server.URL+"/test"))
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_Metrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/missing" {
			writer.WriteHeader(http.StatusNotFound)

			return
		}

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	client := contenthttp.NewClient(contenthttp.WithMetrics(reg))

	// A second client on the same registry shares the collectors.
	other := contenthttp.NewClient(contenthttp.WithMetrics(reg))

	_, err := client.Do(context.Background(), newRequest(t, "GET", server.URL+"/ok"))
	require.NoError(t, err)
	_, err = other.Do(context.Background(), newRequest(t, "GET", server.URL+"/ok"))
	require.NoError(t, err)
	_, err = client.Do(context.Background(), newRequest(t, "GET", server.URL+"/missing"))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}

	for _, family := range families {
		if family.GetName() != "content_http_requests_total" {
			continue
		}

		for _, metric := range family.GetMetric() {
			var code string

			for _, label := range metric.GetLabel() {
				if label.GetName() == "code" {
					code = label.GetValue()
				}
			}

			counts[code] = metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, map[string]float64{"200": 2, "404": 1}, counts)
}
