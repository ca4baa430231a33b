package content

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// QueryItem is one query parameter. Order of insertion is preserved on the wire.
type QueryItem struct {
	Key   string
	Value string
}

type requirement struct {
	name  string
	value string
}

// RequestParameters accumulates everything needed to build one request. Each
// service owns one instance and its builder methods mutate it in place.
type RequestParameters struct {
	method   string
	basePath string
	suffix   string
	query    []QueryItem
	header   http.Header
	body     interface{}

	requiresAuth   bool
	defaultChannel bool
	required       []requirement
	invalid        []invalidation

	overrideURL    string
	overrideHeader http.Header
	transport      Transport

	cacheKey string
}

// NewRequestParameters returns GET parameters for basePath+suffix that require
// authorization.
func NewRequestParameters(basePath, suffix string) *RequestParameters {
	return &RequestParameters{
		method:       http.MethodGet,
		basePath:     basePath,
		suffix:       suffix,
		header:       http.Header{},
		requiresAuth: true,
	}
}

// Method returns the HTTP method.
func (p *RequestParameters) Method() string { return p.method }

// SetMethod sets the HTTP method.
func (p *RequestParameters) SetMethod(method string) *RequestParameters {
	p.method = method
	return p
}

// Suffix returns the path suffix below the base path.
func (p *RequestParameters) Suffix() string { return p.suffix }

// SetSuffix replaces the path suffix.
func (p *RequestParameters) SetSuffix(suffix string) *RequestParameters {
	p.suffix = suffix
	return p
}

// SetBody sets the request body. []byte is sent as is; anything else is
// encoded as JSON at build time.
func (p *RequestParameters) SetBody(body interface{}) *RequestParameters {
	p.body = body
	return p
}

// SetRequiresAuth controls whether credential headers are attached.
func (p *RequestParameters) SetRequiresAuth(required bool) *RequestParameters {
	p.requiresAuth = required
	return p
}

// UseDefaultChannelToken makes the build step add the provider's channel token
// when no explicit token was set.
func (p *RequestParameters) UseDefaultChannelToken() *RequestParameters {
	p.defaultChannel = true
	return p
}

// Require records an identifier that must be non-empty at build time.
func (p *RequestParameters) Require(name, value string) *RequestParameters {
	p.required = append(p.required, requirement{name: name, value: value})
	return p
}

type invalidation struct {
	key string
	err error
}

// Invalidate records a validation failure that no later call can clear.
func (p *RequestParameters) Invalidate(err error) {
	p.InvalidateKey("", err)
}

// InvalidateKey records a validation failure for the builder setting key. A
// later failure for the same key replaces it; Validate clears it.
func (p *RequestParameters) InvalidateKey(key string, err error) {
	for i := range p.invalid {
		if p.invalid[i].key == key {
			if key != "" {
				p.invalid[i].err = err
			}

			return
		}
	}

	p.invalid = append(p.invalid, invalidation{key: key, err: err})
}

// Validate drops the failure recorded for key, if any.
func (p *RequestParameters) Validate(key string) {
	if key == "" {
		return
	}

	for i := range p.invalid {
		if p.invalid[i].key == key {
			p.invalid = append(p.invalid[:i], p.invalid[i+1:]...)
			return
		}
	}
}

// Err returns the earliest validation failure still recorded, if any.
func (p *RequestParameters) Err() error {
	if len(p.invalid) == 0 {
		return nil
	}

	return p.invalid[0].err
}

// SetQuery sets key to value, replacing an earlier value in place.
func (p *RequestParameters) SetQuery(key, value string) *RequestParameters {
	for i := range p.query {
		if p.query[i].Key == key {
			p.query[i].Value = value
			return p
		}
	}

	p.query = append(p.query, QueryItem{Key: key, Value: value})

	return p
}

// SetQueryList sets key to the joined values, or removes it when values is empty.
func (p *RequestParameters) SetQueryList(key string, values []string, sep string) *RequestParameters {
	if len(values) == 0 {
		return p.DeleteQuery(key)
	}

	return p.SetQuery(key, strings.Join(values, sep))
}

// DeleteQuery removes key.
func (p *RequestParameters) DeleteQuery(key string) *RequestParameters {
	for i := range p.query {
		if p.query[i].Key == key {
			p.query = append(p.query[:i], p.query[i+1:]...)
			break
		}
	}

	return p
}

// Query returns the value set for key.
func (p *RequestParameters) Query(key string) (string, bool) {
	for _, item := range p.query {
		if item.Key == key {
			return item.Value, true
		}
	}

	return "", false
}

// QueryItems returns a copy of the query in wire order.
func (p *RequestParameters) QueryItems() []QueryItem {
	return append([]QueryItem(nil), p.query...)
}

func (p *RequestParameters) uintQuery(key string, def uint) uint {
	s, ok := p.Query(key)
	if !ok {
		return def
	}

	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return def
	}

	return uint(n)
}

// SetHeader sets an extra request header. Extra headers win over defaults.
func (p *RequestParameters) SetHeader(key, value string) *RequestParameters {
	p.header.Set(key, value)
	return p
}

// Header returns the extra headers.
func (p *RequestParameters) Header() http.Header { return p.header }

// OverrideURL sends the request to base instead of the provider's base URL and
// adds header on top of everything else.
func (p *RequestParameters) OverrideURL(base string, header http.Header) *RequestParameters {
	p.overrideURL = base
	p.overrideHeader = header

	return p
}

// OverrideTransport uses t for this request only.
func (p *RequestParameters) OverrideTransport(t Transport) *RequestParameters {
	p.transport = t
	return p
}

// SetCacheKey sets the key under which downloads are cached.
func (p *RequestParameters) SetCacheKey(key string) *RequestParameters {
	p.cacheKey = key
	return p
}

// CacheKey returns the download cache key, defaulting to the path suffix.
func (p *RequestParameters) CacheKey() string {
	if p.cacheKey != "" {
		return p.cacheKey
	}

	return strings.Trim(p.basePath+p.suffix, "/")
}

func encodeQuery(items []QueryItem) string {
	var b strings.Builder

	for i, item := range items {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(item.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(item.Value))
	}

	return b.String()
}
