package content

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Endpoint binds a service to its request parameters. Traits are defined on top
// of it and embedded by services, so every builder method mutates the shared
// parameters and returns the concrete service for chaining.
type Endpoint[S any] struct {
	self   *S
	params *RequestParameters
}

// NewEndpoint binds self to p.
func NewEndpoint[S any](self *S, p *RequestParameters) Endpoint[S] {
	return Endpoint[S]{self: self, params: p}
}

// ChannelScoped sets the publishing channel token.
type ChannelScoped[S any] Endpoint[S]

// ChannelToken scopes the request to a channel. An empty token reverts to the
// credential provider's default.
func (t ChannelScoped[S]) ChannelToken(token string) *S {
	if token == "" {
		t.params.DeleteQuery("channelToken")
		return t.self
	}

	t.params.SetQuery("channelToken", token)

	return t.self
}

// Pageable sets the list window.
type Pageable[S any] Endpoint[S]

// Limit sets the page size.
func (t Pageable[S]) Limit(n uint) *S {
	if n == 0 {
		t.params.InvalidateKey("limit", newError(KindInvalidRequest, "limit must be positive"))
		return t.self
	}

	t.params.Validate("limit")
	t.params.SetQuery("limit", strconv.FormatUint(uint64(n), 10))

	return t.self
}

// Offset sets the index of the first item.
func (t Pageable[S]) Offset(n uint) *S {
	t.params.SetQuery("offset", strconv.FormatUint(uint64(n), 10))
	return t.self
}

// Expandable selects related resources to inline.
type Expandable[S any] Endpoint[S]

// Expand inlines the named references. An empty list removes the parameter and
// "all" anywhere in the list behaves like ExpandAll.
func (t Expandable[S]) Expand(fields ...string) *S {
	for _, f := range fields {
		if f == "" || strings.ContainsAny(f, ", ") {
			t.params.InvalidateKey("expand", newError(KindInvalidRequest, "invalid expand field %q", f))
			return t.self
		}
	}

	t.params.Validate("expand")

	if current, ok := t.params.Query("expand"); ok && current == "all" {
		return t.self
	}

	if slices.Contains(fields, "all") {
		t.params.SetQuery("expand", "all")
		return t.self
	}

	t.params.SetQueryList("expand", fields, ",")

	return t.self
}

// ExpandAll inlines every reference. It wins over any specific list.
func (t Expandable[S]) ExpandAll() *S {
	t.params.Validate("expand")
	t.params.SetQuery("expand", "all")
	return t.self
}

// FieldSelectable restricts the returned fields.
type FieldSelectable[S any] Endpoint[S]

// Fields limits the response to the named fields. An empty list removes the
// parameter and "ALL" anywhere in the list behaves like AllFields.
func (t FieldSelectable[S]) Fields(names ...string) *S {
	for _, n := range names {
		if n == "" || strings.ContainsAny(n, ", ") {
			t.params.InvalidateKey("fields", newError(KindInvalidRequest, "invalid field %q", n))
			return t.self
		}
	}

	t.params.Validate("fields")

	if current, ok := t.params.Query("fields"); ok && current == "ALL" {
		return t.self
	}

	if slices.Contains(names, "ALL") {
		t.params.SetQuery("fields", "ALL")
		return t.self
	}

	t.params.SetQueryList("fields", names, ",")

	return t.self
}

// AllFields returns every field. It wins over any specific list.
func (t FieldSelectable[S]) AllFields() *S {
	t.params.Validate("fields")
	t.params.SetQuery("fields", "ALL")
	return t.self
}

// SortOrder is the direction of a sort clause.
type SortOrder string

// Sort orders.
const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SortClause is one orderBy term. User-defined fields are prefixed with "fields.".
type SortClause struct {
	Field       string
	Order       SortOrder
	UserDefined bool
}

func (c SortClause) encode() (string, error) {
	if c.Field == "" {
		return "", newError(KindInvalidRequest, "sort field must not be empty")
	}

	order := c.Order
	if order == "" {
		order = Ascending
	}

	if order != Ascending && order != Descending {
		return "", newError(KindInvalidRequest, "invalid sort order %q", c.Order)
	}

	field := c.Field
	if c.UserDefined && !strings.HasPrefix(field, "fields.") {
		field = "fields." + field
	}

	return fmt.Sprintf("%s:%s", field, order), nil
}

// Sortable orders list results.
type Sortable[S any] Endpoint[S]

// OrderBy replaces the sort clauses. An empty list removes the parameter.
func (t Sortable[S]) OrderBy(clauses ...SortClause) *S {
	encoded := make([]string, 0, len(clauses))

	for _, c := range clauses {
		s, err := c.encode()
		if err != nil {
			t.params.InvalidateKey("orderBy", err)
			return t.self
		}

		encoded = append(encoded, s)
	}

	t.params.Validate("orderBy")

	t.params.SetQueryList("orderBy", encoded, ";")

	return t.self
}

// LinkType names a hypermedia link kind.
type LinkType string

// Link types.
const (
	LinkSelf        LinkType = "self"
	LinkCanonical   LinkType = "canonical"
	LinkDescribedBy LinkType = "describedBy"
	LinkFirst       LinkType = "first"
	LinkLast        LinkType = "last"
	LinkNext        LinkType = "next"
	LinkPrev        LinkType = "prev"
)

var knownLinkTypes = map[LinkType]bool{
	LinkSelf: true, LinkCanonical: true, LinkDescribedBy: true,
	LinkFirst: true, LinkLast: true, LinkNext: true, LinkPrev: true,
}

// LinkSelectable chooses which hypermedia links the server returns.
type LinkSelectable[S any] Endpoint[S]

// Links requests the given link kinds. An empty list removes the parameter.
func (t LinkSelectable[S]) Links(types ...LinkType) *S {
	names := make([]string, 0, len(types))

	for _, lt := range types {
		if !knownLinkTypes[lt] {
			t.params.InvalidateKey("links", newError(KindInvalidRequest, "unknown link type %q", lt))
			return t.self
		}

		names = append(names, string(lt))
	}

	t.params.Validate("links")

	t.params.SetQueryList("links", names, ",")

	return t.self
}

// Countable asks the server for the total number of matches.
type Countable[S any] Endpoint[S]

// TotalResults toggles the total count in list responses.
func (t Countable[S]) TotalResults(enabled bool) *S {
	t.params.SetQuery("totalResults", strconv.FormatBool(enabled))
	return t.self
}

// PublishedChannel restricts management queries to a published channel.
type PublishedChannel[S any] Endpoint[S]

// IsPublishedChannel sets the isPublishedChannel flag.
func (t PublishedChannel[S]) IsPublishedChannel(enabled bool) *S {
	t.params.SetQuery("isPublishedChannel", strconv.FormatBool(enabled))
	return t.self
}

// Searchable filters with a query expression.
type Searchable[S any] Endpoint[S]

// Query sets the q expression. An empty expression removes it.
func (t Searchable[S]) Query(q string) *S {
	if q == "" {
		t.params.DeleteQuery("q")
		return t.self
	}

	t.params.SetQuery("q", q)

	return t.self
}

// Overridable allows per-call overrides of headers, base URL and transport.
type Overridable[S any] Endpoint[S]

// Header adds a header that wins over the defaults.
func (t Overridable[S]) Header(key, value string) *S {
	if err := validateHeader(key, value); err != nil {
		t.params.InvalidateKey("header:"+key, err)
		return t.self
	}

	t.params.Validate("header:" + key)
	t.params.SetHeader(key, value)

	return t.self
}

// Headers adds several headers.
func (t Overridable[S]) Headers(headers map[string]string) *S {
	for k, v := range headers {
		t.Header(k, v)
	}

	return t.self
}

// OverrideURL sends this call to base with extra headers.
func (t Overridable[S]) OverrideURL(base string, headers map[string]string) *S {
	h := http.Header{}

	for k, v := range headers {
		if err := validateHeader(k, v); err != nil {
			t.params.InvalidateKey("overrideURL", err)
			return t.self
		}

		h.Set(k, v)
	}

	t.params.Validate("overrideURL")

	t.params.OverrideURL(base, h)

	return t.self
}

// OverrideTransport sends this call through tr.
func (t Overridable[S]) OverrideTransport(tr Transport) *S {
	t.params.OverrideTransport(tr)
	return t.self
}

func validateHeader(key, value string) error {
	if key == "" || strings.ContainsAny(key, " :\r\n") {
		return newError(KindInvalidRequest, "invalid header name %q", key)
	}

	if strings.ContainsAny(value, "\r\n") {
		return newError(KindInvalidRequest, "invalid value for header %q", key)
	}

	return nil
}
