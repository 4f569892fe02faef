// Package backendtest provides an in-process fake of the clustering backend
// for tests of the gateway, controller, reconciler and HTTP surface.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/segmentlens/internal/gateway"
)

// Backend is a scriptable fake backend. Unregistered routes answer 404 with
// the backend's usual {"error": ...} body.
type Backend struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	server   *httptest.Server
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.HandleFunc("/*", b.dispatch)
	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string { return b.server.URL }

// Client returns a gateway client pointed at the fake.
func (b *Backend) Client() *gateway.HTTPClient {
	return gateway.NewHTTPClient(b.server.URL, 5*time.Second)
}

// Close stops the server early, making every later call a network failure.
func (b *Backend) Close() { b.server.Close() }

// Handle registers a raw handler for ep.
func (b *Backend) Handle(ep gateway.Endpoint, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[ep.String()] = h
}

// Reply registers a fixed JSON response for ep.
func (b *Backend) Reply(ep gateway.Endpoint, status int, body any) {
	b.Handle(ep, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// OK registers a 200 success envelope carrying fields.
func (b *Backend) OK(ep gateway.Endpoint, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	b.Reply(ep, http.StatusOK, body)
}

// Fail registers a failure envelope with the given status.
func (b *Backend) Fail(ep gateway.Endpoint, status int, msg string) {
	b.Reply(ep, status, map[string]any{"success": false, "error": msg})
}

// Calls returns how many times ep was hit.
func (b *Backend) Calls(ep gateway.Endpoint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[ep.String()]
}

// TotalCalls returns the number of requests received on any route.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *Backend) dispatch(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.calls[key]++
	h, ok := b.handlers[key]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Resource not found"})
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
