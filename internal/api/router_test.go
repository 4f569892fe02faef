package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/segmentlens/internal/api"
	mw "github.com/kiranshivaraju/segmentlens/internal/api/middleware"
	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub cache that counts rate limit hits ---

type stubCache struct {
	count int64
}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *stubCache) Ping(_ context.Context) error                                      { return nil }
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	c.count++
	return c.count, nil
}

// --- router tests ---

func echoTab(w http.ResponseWriter, r *http.Request) {
	tabID, _ := mw.GetTabID(r)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"tab_id": tabID})
}

func newTestRouter(c *stubCache) http.Handler {
	return api.NewRouter(api.Dependencies{
		Identify:  mw.NewIdentify(false),
		RateLimit: mw.NewRateLimit(c, 60),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
		StateHandler:   echoTab,
		ClusterHandler: echoTab,
	})
}

func TestRouter_HealthEndpoint_NoCookies(t *testing.T) {
	router := newTestRouter(&stubCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestRouter_PageRoutesAreIdentified(t *testing.T) {
	router := newTestRouter(&stubCache{})

	req := httptest.NewRequest("GET", "/app/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["tab_id"])

	names := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[mw.TabCookie])
	assert.True(t, names[mw.ClientCookie])
}

func TestRouter_ActionsAreRateLimited(t *testing.T) {
	c := &stubCache{}
	router := newTestRouter(c)

	req := httptest.NewRequest("POST", "/app/cluster", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.EqualValues(t, 1, c.count)

	// reads are not counted
	req = httptest.NewRequest("GET", "/app/state", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.EqualValues(t, 1, c.count)
}

func TestRouter_RateLimitIgnoresMissingCookies(t *testing.T) {
	hits := 0
	router := api.NewRouter(api.Dependencies{
		Identify:  mw.NewIdentify(false),
		RateLimit: mw.NewRateLimit(cache.NewMemoryCache(time.Minute, time.Minute), 1),
		SampleHandler: func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusOK)
		},
	})

	var codes []int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/app/sample", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
	assert.Equal(t, 1, hits)
}

func TestRouter_TrustProxyKeysOnForwardedAddress(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		Identify:   mw.NewIdentify(false),
		RateLimit:  mw.NewRateLimit(cache.NewMemoryCache(time.Minute, time.Minute), 1),
		TrustProxy: true,
		SampleHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})

	send := func(ip string) int {
		req := httptest.NewRequest("POST", "/app/sample", nil)
		req.Header.Set("X-Real-IP", ip)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	assert.Equal(t, http.StatusOK, send("203.0.113.8"))
}

func TestRouter_UnsetHandlers_NotImplemented(t *testing.T) {
	router := newTestRouter(&stubCache{})

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/app/open"},
		{"POST", "/app/upload"},
		{"POST", "/app/sample"},
		{"POST", "/app/optimal"},
		{"PUT", "/app/k"},
		{"POST", "/app/view-results"},
		{"POST", "/app/export"},
		{"POST", "/app/reset"},
		{"POST", "/app/save"},
		{"POST", "/app/restore"},
		{"GET", "/app/history"},
		{"GET", "/app/charts"},
		{"PUT", "/app/theme"},
		{"GET", "/app/themes"},
		{"GET", "/results"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotImplemented, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "NOT_IMPLEMENTED", errObj["code"])
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(&stubCache{})

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

var _ cache.Cache = (*stubCache)(nil)
