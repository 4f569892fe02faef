package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/segmentlens/internal/backendtest"
	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/config"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/store"
	"github.com/kiranshivaraju/segmentlens/internal/tab"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) GetPreference(_ context.Context, _, _ string) (*models.Preference, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) SetPreference(_ context.Context, _ *models.Preference) error { return nil }
func (s *testStore) DeletePreference(_ context.Context, _, _ string) error       { return nil }

var _ store.PreferenceStore = (*testStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *testCache) Ping(_ context.Context) error                                      { return c.pingErr }
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// ─── health handler tests ───────────────────────────────────────────────────

func healthyBackend(t *testing.T) *backendtest.Backend {
	t.Helper()
	b := backendtest.New(t)
	b.Reply(gateway.Status, http.StatusOK, map[string]any{"data_loaded": false, "clusters_performed": false})
	return b
}

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{}, healthyBackend(t).Client())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])
	assert.Equal(t, "ok", services["backend"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{}, healthyBackend(t).Client())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "degraded", details["database"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")}, healthyBackend(t).Client())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler_BackendDegraded(t *testing.T) {
	b := backendtest.New(t)
	b.Fail(gateway.Status, http.StatusInternalServerError, "down")
	h := healthHandler(&testStore{}, &testCache{}, b.Client())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── cache selection ────────────────────────────────────────────────────────

func TestOpenCache_InMemoryWithoutRedis(t *testing.T) {
	cfg := &config.Config{Session: config.SessionConfig{TTL: time.Minute, PurgeInterval: time.Minute}}

	c, closeFn, err := openCache(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &cache.MemoryCache{}, c)
}

func TestOpenCache_InvalidRedisURL(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{URL: "not-a-redis-url"}}

	_, _, err := openCache(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create redis cache")
}

// ─── tab sweeping ───────────────────────────────────────────────────────────

func TestSweepTabs_StopsWithContext(t *testing.T) {
	tabs := tab.NewRegistry(tab.Deps{Cache: cache.NewMemoryCache(time.Minute, time.Minute)})
	tabs.Open(context.Background(), "tab-1", "client-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepTabs(ctx, tabs, 5*time.Millisecond, time.Nanosecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return tabs.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "BACKEND_BASE_URL"} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("BACKEND_BASE_URL", "http://localhost:5000")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
