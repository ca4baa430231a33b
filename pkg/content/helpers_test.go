package content

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTransport records requests and answers them from a handler.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*TransportRequest
	handler  func(req *TransportRequest) (*TransportResponse, error)
}

func newFakeTransport(handler func(req *TransportRequest) (*TransportResponse, error)) *fakeTransport {
	return &fakeTransport{handler: handler}
}

func (f *fakeTransport) record(req *TransportRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
}

func (f *fakeTransport) Do(_ context.Context, req *TransportRequest) (*TransportResponse, error) {
	f.record(req)
	return f.handler(req)
}

func (f *fakeTransport) Download(_ context.Context, req *TransportRequest) (*TransportResponse, error) {
	f.record(req)
	return f.handler(req)
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

func (f *fakeTransport) last() *TransportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.requests) == 0 {
		return nil
	}

	return f.requests[len(f.requests)-1]
}

func jsonResponse(status int, body string) *TransportResponse {
	return &TransportResponse{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

func newTestEngine(t *testing.T, transport Transport) *Engine {
	t.Helper()

	e, err := NewEngine(&Config{
		Credentials: &StaticCredentials{URL: "https://content.example.com", Token: "secret", Channel: "default-channel"},
		Transport:   transport,
		DownloadDir: t.TempDir(),
	})
	require.NoError(t, err)

	return e
}

// tempDownload writes data to a temp file the way a transport would.
func tempDownload(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "download.tmp")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

// testService exercises every trait the way catalog services do.
type testService struct {
	Fetcher[Item]
	ChannelScoped[testService]
	Pageable[testService]
	Expandable[testService]
	FieldSelectable[testService]
	Sortable[testService]
	LinkSelectable[testService]
	Countable[testService]
	Searchable[testService]
	Overridable[testService]
}

func newTestService(e *Engine, p *RequestParameters) *testService {
	s := &testService{Fetcher: NewFetcher[Item](e, p)}
	ep := NewEndpoint(s, p)
	s.ChannelScoped = ChannelScoped[testService](ep)
	s.Pageable = Pageable[testService](ep)
	s.Expandable = Expandable[testService](ep)
	s.FieldSelectable = FieldSelectable[testService](ep)
	s.Sortable = Sortable[testService](ep)
	s.LinkSelectable = LinkSelectable[testService](ep)
	s.Countable = Countable[testService](ep)
	s.Searchable = Searchable[testService](ep)
	s.Overridable = Overridable[testService](ep)

	return s
}
