package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoRequest is returned when Do or Download is called without a request.
var ErrNoRequest = errors.New("no request given")

// Client is the default content.Transport. It sends requests through a
// retrying HTTP client and streams downloads to temporary files.
type Client struct {
	httpClient *retryablehttp.Client
	logger     content.Logger
	userAgent  string
	debug      bool
	metrics    *Metrics
}

var _ content.Transport = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger content.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent sent when a request does not carry one.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the overall timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// WithMetrics records request counts and latencies on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = NewMetrics(reg)
		}
	}
}

// NewClient creates a new HTTP transport.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		httpClient: retryClient,
		logger:     content.NopLogger{},
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.Logger = &leveledLogger{logger: client.logger}

	return client
}

// Do performs the request and buffers the response body.
func (c *Client) Do(ctx context.Context, req *content.TransportRequest) (*content.TransportResponse, error) {
	resp, start, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logResponse(req, resp, start, int64(len(body)))

	return &content.TransportResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Download performs the request and streams a 2xx body into a temporary file.
// Other bodies are buffered so the caller can classify them.
func (c *Client) Download(ctx context.Context, req *content.TransportRequest) (*content.TransportResponse, error) {
	resp, start, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	out := &content.TransportResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		out.Body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		c.logResponse(req, resp, start, int64(len(out.Body)))

		return out, nil
	}

	file, err := os.CreateTemp("", constants.DownloadFilePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create download file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)

	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(file.Name())

		return nil, fmt.Errorf("failed to write download file: %w", err)
	}

	c.logResponse(req, resp, start, written)

	out.FilePath = file.Name()

	return out, nil
}

func (c *Client) send(ctx context.Context, req *content.TransportRequest) (*http.Response, time.Time, error) {
	if req == nil || req.URL == nil {
		return nil, time.Time{}, ErrNoRequest
	}

	var body interface{}
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if httpReq.Header.Get(constants.HeaderUserAgent) == "" {
		httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)
	}

	if httpReq.Header.Get(constants.HeaderAccept) == "" {
		httpReq.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL.String(),
			"headers": redactHeaders(httpReq.Header),
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.Method, "error", time.Since(start))
		c.logger.Error("HTTP request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
			"error":  err.Error(),
		})

		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		return nil, start, fmt.Errorf("request failed: %w", err)
	}

	c.metrics.observe(req.Method, strconv.Itoa(resp.StatusCode), time.Since(start))

	return resp, start, nil
}

func (c *Client) logResponse(req *content.TransportRequest, resp *http.Response, start time.Time, size int64) {
	if !c.debug {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
		"bytes":    size,
	})
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))

	for key := range h {
		if key == constants.HeaderAuthorization {
			out[key] = "[REDACTED]"

			continue
		}

		out[key] = h.Get(key)
	}

	return out
}
