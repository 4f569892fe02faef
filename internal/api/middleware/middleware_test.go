package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/segmentlens/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Cache ---

type mockCache struct {
	counter int64
	keys    []string
	err     error
}

func (m *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (m *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (m *mockCache) Delete(_ context.Context, _ string) error                          { return nil }
func (m *mockCache) Ping(_ context.Context) error                                      { return nil }
func (m *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.keys = append(m.keys, key)
	m.counter++
	return m.counter, nil
}

// --- Helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object in response")
	return errObj
}

func withTab(r *http.Request, tabID string) *http.Request {
	return r.WithContext(mw.SetTabID(r.Context(), tabID))
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ========================================
// Identify Middleware Tests
// ========================================

func TestIdentify_IssuesCookies(t *testing.T) {
	var tabID, clientID string
	handler := mw.NewIdentify(false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tabID, _ = mw.GetTabID(r)
		clientID, _ = mw.GetClientID(r)
	}))

	req := httptest.NewRequest("GET", "/app/state", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	tab := cookieByName(w, mw.TabCookie)
	require.NotNil(t, tab)
	assert.Equal(t, tabID, tab.Value)
	assert.Zero(t, tab.MaxAge, "tab cookie must be a session cookie")
	assert.True(t, tab.HttpOnly)

	client := cookieByName(w, mw.ClientCookie)
	require.NotNil(t, client)
	assert.Equal(t, clientID, client.Value)
	assert.Positive(t, client.MaxAge)

	_, err := uuid.Parse(tabID)
	assert.NoError(t, err)
	assert.NotEqual(t, tabID, clientID)
}

func TestIdentify_ReusesCookies(t *testing.T) {
	tab := uuid.NewString()
	client := uuid.NewString()

	var gotTab, gotClient string
	handler := mw.NewIdentify(true).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTab, _ = mw.GetTabID(r)
		gotClient, _ = mw.GetClientID(r)
	}))

	req := httptest.NewRequest("GET", "/app/state", nil)
	req.AddCookie(&http.Cookie{Name: mw.TabCookie, Value: tab})
	req.AddCookie(&http.Cookie{Name: mw.ClientCookie, Value: client})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, tab, gotTab)
	assert.Equal(t, client, gotClient)
	assert.Empty(t, w.Result().Cookies())
}

func TestIdentify_HeaderWinsOverCookie(t *testing.T) {
	header := uuid.NewString()

	var got string
	handler := mw.NewIdentify(false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = mw.GetTabID(r)
	}))

	req := httptest.NewRequest("GET", "/results", nil)
	req.Header.Set(mw.TabHeader, header)
	req.AddCookie(&http.Cookie{Name: mw.TabCookie, Value: uuid.NewString()})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, header, got)
}

func TestIdentify_ReplacesInvalidCookie(t *testing.T) {
	handler := mw.NewIdentify(false).Handler(okHandler())

	req := httptest.NewRequest("GET", "/app/state", nil)
	req.AddCookie(&http.Cookie{Name: mw.TabCookie, Value: "../../etc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	tab := cookieByName(w, mw.TabCookie)
	require.NotNil(t, tab)
	assert.NotEqual(t, "../../etc", tab.Value)
}

func TestContext_MissingIDs(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	_, ok := mw.GetTabID(req)
	assert.False(t, ok)
	_, ok = mw.GetClientID(req)
	assert.False(t, ok)
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	mc := &mockCache{counter: 0}
	rl := mw.NewRateLimit(mc, 60)

	handler := rl.Limit(okHandler())

	req := withTab(httptest.NewRequest("POST", "/app/cluster", nil), "tab-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, []string{"ratelimit:ip:192.0.2.1"}, mc.keys)
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	mc := &mockCache{counter: 60} // next IncrWithExpiry will return 61
	rl := mw.NewRateLimit(mc, 60)

	handler := rl.Limit(okHandler())

	req := withTab(httptest.NewRequest("POST", "/app/cluster", nil), "tab-over")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_DefaultLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 0)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, withTab(httptest.NewRequest("GET", "/", nil), "t"))

	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_KeyedByAddressNotTab(t *testing.T) {
	mc := &mockCache{}
	handler := mw.NewRateLimit(mc, 60).Limit(okHandler())

	for _, tabID := range []string{"tab-1", "tab-2", ""} {
		req := httptest.NewRequest("POST", "/app/sample", nil)
		if tabID != "" {
			req = withTab(req, tabID)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	other := httptest.NewRequest("POST", "/app/sample", nil)
	other.RemoteAddr = "198.51.100.4:5555"
	handler.ServeHTTP(httptest.NewRecorder(), other)

	assert.Equal(t, []string{
		"ratelimit:ip:192.0.2.1",
		"ratelimit:ip:192.0.2.1",
		"ratelimit:ip:192.0.2.1",
		"ratelimit:ip:198.51.100.4",
	}, mc.keys)
}

func TestRateLimit_RemoteAddrWithoutPort(t *testing.T) {
	mc := &mockCache{}
	req := httptest.NewRequest("POST", "/app/sample", nil)
	req.RemoteAddr = "10.0.0.9"

	mw.NewRateLimit(mc, 60).Limit(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"ratelimit:ip:10.0.0.9"}, mc.keys)
}

func TestRateLimit_CacheError_FailsOpen(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{err: errors.New("redis down")}, 1)

	req := withTab(httptest.NewRequest("GET", "/test", nil), "tab-1")
	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	handler := mw.Recovery(panicking)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := mw.Recovery(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	handler := mw.Logger(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogger_PassesErrorStatus(t *testing.T) {
	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: mw.TabCookie, Value: "tab-1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
