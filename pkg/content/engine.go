package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
)

// Engine builds and executes requests for services. It is safe for concurrent
// use; the services it creates are not.
type Engine struct {
	credentials  CredentialProvider
	transport    Transport
	logger       Logger
	dispatcher   Dispatcher
	apiVersion   string
	downloadDir  string
	pageSize     uint
	pollInterval time.Duration
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		credentials:  cfg.Credentials,
		transport:    cfg.Transport,
		logger:       NopLogger{},
		dispatcher:   InlineDispatcher{},
		apiVersion:   cfg.APIVersion,
		downloadDir:  cfg.DownloadDir,
		pageSize:     cfg.PageSize,
		pollInterval: cfg.PollInterval,
	}

	if cfg.Logger != nil {
		e.logger = safeLogger{next: cfg.Logger}
	}

	if cfg.Dispatcher != nil {
		e.dispatcher = cfg.Dispatcher
	}

	if e.apiVersion == "" {
		e.apiVersion = constants.APIVersion
	}

	if e.downloadDir == "" {
		e.downloadDir = os.TempDir()
	}

	if e.pageSize == 0 {
		e.pageSize = constants.DefaultPageSize
	}

	if e.pollInterval <= 0 {
		e.pollInterval = constants.DefaultPollInterval
	}

	return e, nil
}

// APIVersion returns the configured API version.
func (e *Engine) APIVersion() string { return e.apiVersion }

// PageSize returns the default list limit.
func (e *Engine) PageSize() uint { return e.pageSize }

// PollInterval returns the default job polling interval.
func (e *Engine) PollInterval() time.Duration { return e.pollInterval }

// Logger returns the engine logger.
func (e *Engine) Logger() Logger { return e.logger }

// Dispatcher returns the completion dispatcher.
func (e *Engine) Dispatcher() Dispatcher { return e.dispatcher }

// Build turns p into a transport request and picks the transport to run it on.
// Validation failures recorded by builder methods surface here.
func (e *Engine) Build(ctx context.Context, p *RequestParameters) (*TransportRequest, Transport, error) {
	if err := p.Err(); err != nil {
		return nil, nil, err
	}

	for _, r := range p.required {
		if strings.TrimSpace(r.value) == "" {
			return nil, nil, newError(KindInvalidURL, "%s must not be empty", r.name)
		}
	}

	u, err := e.requestURL(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	header, err := e.requestHeader(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	body, err := encodeBody(p.body)
	if err != nil {
		return nil, nil, err
	}

	transport := p.transport
	if transport == nil {
		transport = e.transport
	}

	if transport == nil {
		return nil, nil, newError(KindInvalidTransportSession, "no transport configured")
	}

	return &TransportRequest{Method: p.method, URL: u, Header: header, Body: body}, transport, nil
}

func (e *Engine) requestURL(ctx context.Context, p *RequestParameters) (*url.URL, error) {
	base := p.overrideURL
	if base == "" {
		if e.credentials == nil {
			return nil, newError(KindInvalidURL, "no base URL configured")
		}

		var err error
		if base, err = e.credentials.BaseURL(ctx); err != nil {
			return nil, AsError(err)
		}
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, Message: "invalid base URL " + base, Err: err}
	}

	if p.basePath != "" || p.suffix != "" {
		u.Path = path.Join("/", u.Path, p.basePath, p.suffix)
		u.RawPath = ""
	}

	query := p.QueryItems()

	if p.defaultChannel && e.credentials != nil {
		if _, ok := p.Query("channelToken"); !ok {
			if token := e.credentials.ChannelToken(ctx); token != "" {
				query = append(query, QueryItem{Key: "channelToken", Value: token})
			}
		}
	}

	if len(query) > 0 {
		if u.RawQuery != "" {
			u.RawQuery += "&" + encodeQuery(query)
		} else {
			u.RawQuery = encodeQuery(query)
		}
	}

	return u, nil
}

func (e *Engine) requestHeader(ctx context.Context, p *RequestParameters) (http.Header, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Requested-With", "XMLHttpRequest")

	if p.requiresAuth && e.credentials != nil {
		auth, err := e.credentials.Headers(ctx)
		if err != nil {
			return nil, wrapError(KindInvalidRequest, err, "failed to obtain credentials")
		}

		mergeHeader(h, auth)
	}

	mergeHeader(h, p.header)
	mergeHeader(h, p.overrideHeader)

	return h, nil
}

func mergeHeader(dst, src http.Header) {
	for k, vs := range src {
		dst.Del(k)

		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, wrapError(KindInvalidPostBody, err, "failed to encode request body")
		}

		return data, nil
	}
}

// Send builds and executes p, returning the response only for 2xx statuses.
func (e *Engine) Send(ctx context.Context, p *RequestParameters) (*TransportResponse, error) {
	req, transport, err := e.Build(ctx, p)
	if err != nil {
		return nil, err
	}

	resp, err := e.roundTrip(ctx, transport.Do, req)
	if err != nil {
		return nil, err
	}

	if err := StatusError(resp.StatusCode, resp.Body); err != nil {
		return nil, err
	}

	return resp, nil
}

type transportFunc func(context.Context, *TransportRequest) (*TransportResponse, error)

func (e *Engine) roundTrip(ctx context.Context, do transportFunc, req *TransportRequest) (*TransportResponse, error) {
	start := time.Now()

	e.logger.Debug("Outgoing request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := do(ctx, req)
	if err != nil {
		e.logger.Error("Request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
			"error":  err.Error(),
		})

		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = ctxErr
		}

		return nil, AsError(err)
	}

	e.logger.Debug("Incoming response", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
		"bytes":    len(resp.Body),
	})

	return resp, nil
}

// decodeJSON decodes a successful response body into T.
func decodeJSON[T any](body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, wrapError(KindInvalidDataReturned, err, "failed to decode response")
	}

	return &out, nil
}
