// Package testutil provides a fake content server for tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Object is a JSON object fixture.
type Object = map[string]interface{}

// Server is an in-memory content API served over httptest.
type Server struct {
	*httptest.Server

	// Token is the bearer token every request must carry. Empty disables auth.
	Token string
	// Channel is the channel token delivery requests must carry.
	Channel string
	// PollsUntilComplete is how many status reads a bulk job takes to finish.
	PollsUntilComplete int

	mu         sync.Mutex
	items      []Object
	assets     map[string]Object
	binaries   map[string][]byte
	taxonomies []Object
	categories map[string][]Object
	jobs       map[string]*bulkJob
	requests   []string
}

type bulkJob struct {
	body  Object
	polls int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		Token:              "test-token",
		Channel:            "test-channel",
		PollsUntilComplete: 2,
		assets:             map[string]Object{},
		binaries:           map[string][]byte{},
		categories:         map[string][]Object{},
		jobs:               map[string]*bulkJob{},
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.authorize)

	r.Route(strings.TrimSuffix(constants.DeliveryAPIPath, "/")+"/"+constants.APIVersion, func(r chi.Router) {
		r.Use(s.requireChannel)
		r.Get("/items", s.handleListItems)
		r.Get("/items/.by.slug/{slug}", s.handleGetItemBySlug)
		r.Get("/items/{id}", s.handleGetItem)
		r.Get("/assets/{id}", s.handleGetAsset)
		r.Get("/assets/{id}/{rendition}", s.handleGetBinary)
		r.Get("/taxonomies", s.handleListTaxonomies)
		r.Get("/taxonomies/{id}", s.handleGetTaxonomy)
		r.Get("/taxonomies/{id}/categories", s.handleListCategories)
	})

	r.Route(strings.TrimSuffix(constants.ManagementAPIPath, "/")+"/"+constants.APIVersion, func(r chi.Router) {
		r.Post("/bulkItemsOperations", s.handleCreateBulkOperation)
		r.Get("/bulkItemsOperations/{id}", s.handleGetBulkOperation)
	})

	// Binaries addressed by absolute URL, e.g. video thumbnails.
	r.Get("/external/{name}", s.handleExternal)

	return r
}

// AddItem registers an item fixture. It must carry an "id".
func (s *Server) AddItem(item Object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
}

// AddAsset registers an asset and its binaries keyed by rendition name.
func (s *Server) AddAsset(asset Object, binaries map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprint(asset["id"])
	s.assets[id] = asset

	for name, data := range binaries {
		s.binaries[id+"/"+name] = data
	}
}

// AddExternal registers a binary served at /external/{name}.
func (s *Server) AddExternal(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.binaries["external/"+name] = data
}

// AddTaxonomy registers a taxonomy and its categories.
func (s *Server) AddTaxonomy(taxonomy Object, categories ...Object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprint(taxonomy["id"])
	s.taxonomies = append(s.taxonomies, taxonomy)
	s.categories[id] = append(s.categories[id], categories...)
}

// Requests returns "METHOD path?query" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// ETag returns the entity tag served for a binary.
func ETag(data []byte) string {
	sum := sha256.Sum256(data)

	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		entry := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		s.requests = append(s.requests, entry)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && !strings.HasPrefix(r.URL.Path, "/external/") &&
			r.Header.Get(constants.HeaderAuthorization) != constants.BearerPrefix+s.Token {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid bearer token")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireChannel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Channel != "" && r.URL.Query().Get(constants.QueryChannelToken) != s.Channel {
			writeProblem(w, http.StatusForbidden, "Forbidden", "unknown channel token")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := filterItems(s.items, r.URL.Query().Get(constants.QueryQ))
	s.mu.Unlock()

	writePage(w, r, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for _, item := range s.items {
		if fmt.Sprint(item["id"]) == id {
			writeJSON(w, http.StatusOK, item)

			return
		}
	}

	writeProblem(w, http.StatusNotFound, "Not Found", "no item "+id)
}

func (s *Server) handleGetItemBySlug(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := chi.URLParam(r, "slug")
	for _, item := range s.items {
		if fmt.Sprint(item["slug"]) == slug {
			writeJSON(w, http.StatusOK, item)

			return
		}
	}

	writeProblem(w, http.StatusNotFound, "Not Found", "no item with slug "+slug)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	if asset, ok := s.assets[id]; ok {
		writeJSON(w, http.StatusOK, asset)

		return
	}

	writeProblem(w, http.StatusNotFound, "Not Found", "no asset "+id)
}

func (s *Server) handleGetBinary(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id") + "/" + chi.URLParam(r, "rendition")
	if format := r.URL.Query().Get(constants.QueryFormat); format != "" {
		key += "." + format
	}

	s.serveBinary(w, r, key)
}

func (s *Server) handleExternal(w http.ResponseWriter, r *http.Request) {
	s.serveBinary(w, r, "external/"+chi.URLParam(r, "name"))
}

func (s *Server) serveBinary(w http.ResponseWriter, r *http.Request, key string) {
	s.mu.Lock()
	data, ok := s.binaries[key]
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no binary "+key)

		return
	}

	etag := ETag(data)
	if r.Header.Get(constants.HeaderIfNoneMatch) == etag {
		w.WriteHeader(http.StatusNotModified)

		return
	}

	w.Header().Set(constants.HeaderETag, etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set(constants.HeaderContentType, http.DetectContentType(data))
	_, _ = w.Write(data)
}

func (s *Server) handleListTaxonomies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	taxonomies := append([]Object(nil), s.taxonomies...)
	s.mu.Unlock()

	writePage(w, r, taxonomies)
}

func (s *Server) handleGetTaxonomy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for _, taxonomy := range s.taxonomies {
		if fmt.Sprint(taxonomy["id"]) == id {
			writeJSON(w, http.StatusOK, taxonomy)

			return
		}
	}

	writeProblem(w, http.StatusNotFound, "Not Found", "no taxonomy "+id)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	categories, ok := s.categories[chi.URLParam(r, "id")]
	categories = append([]Object(nil), categories...)
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no taxonomy "+chi.URLParam(r, "id"))

		return
	}

	writePage(w, r, categories)
}

func (s *Server) handleCreateBulkOperation(w http.ResponseWriter, r *http.Request) {
	var body Object
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())

		return
	}

	if _, ok := body["operations"]; !ok {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "operations are required")

		return
	}

	s.mu.Lock()
	id := "job-" + strconv.Itoa(len(s.jobs)+1)
	s.jobs[id] = &bulkJob{body: body}
	s.mu.Unlock()

	w.Header().Set(constants.HeaderLocation, r.URL.Path+"/"+id)
	writeJSON(w, http.StatusAccepted, Object{
		"id":                  id,
		"completed":           false,
		"progress":            "processing",
		"completedPercentage": 0,
	})
}

func (s *Server) handleGetBulkOperation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")

	job, ok := s.jobs[id]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no job "+id)

		return
	}

	job.polls++

	status := Object{"id": id, "completed": false, "progress": "processing"}

	if job.polls >= s.PollsUntilComplete {
		status["completed"] = true
		status["progress"] = "succeeded"
		status["completedPercentage"] = 100
		status["result"] = Object{"body": job.body}
	} else {
		status["completedPercentage"] = 100 * job.polls / s.PollsUntilComplete
	}

	writeJSON(w, http.StatusOK, status)
}

// filterItems understands the `type eq "X"` and `name co "X"` expressions.
func filterItems(items []Object, q string) []Object {
	if q == "" {
		return append([]Object(nil), items...)
	}

	field, op, value, ok := parseExpression(q)
	if !ok {
		return nil
	}

	var out []Object

	for _, item := range items {
		actual := fmt.Sprint(item[field])

		switch op {
		case "eq":
			if actual == value {
				out = append(out, item)
			}
		case "co":
			if strings.Contains(strings.ToLower(actual), strings.ToLower(value)) {
				out = append(out, item)
			}
		}
	}

	return out
}

func parseExpression(q string) (string, string, string, bool) {
	q = strings.Trim(strings.TrimSpace(q), "()")

	parts := strings.SplitN(q, " ", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}

	return parts[0], parts[1], strings.Trim(parts[2], `"`), true
}

func writePage(w http.ResponseWriter, r *http.Request, all []Object) {
	query := r.URL.Query()

	offset, _ := strconv.Atoi(query.Get(constants.QueryOffset))

	limit, err := strconv.Atoi(query.Get(constants.QueryLimit))
	if err != nil || limit <= 0 {
		limit = constants.DefaultPageSize
	}

	if offset > len(all) {
		offset = len(all)
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	page := Object{
		"hasMore": end < len(all),
		"offset":  offset,
		"count":   end - offset,
		"limit":   limit,
		"items":   all[offset:end],
	}

	if query.Get(constants.QueryTotalResults) == "true" {
		page["totalResults"] = len(all)
	}

	writeJSON(w, http.StatusOK, page)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, Object{
		"type":        "https://tools.ietf.org/html/rfc7231#section-6.5",
		"title":       title,
		"status":      status,
		"detail":      detail,
		"o:errorCode": "OCE-" + strconv.Itoa(status),
	})
}
