package reconcile

import (
	"context"
	"log/slog"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// Source supplies the textual cluster results. Sources are tried in order
// and the first one that succeeds is authoritative.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (models.ClusterResult, error)
}

// LiveSource reads the combined cluster-data endpoint. On success it
// re-primes the session cache with every non-empty field.
type LiveSource struct {
	caller gateway.Caller
	cache  *cache.SessionCache
	logger *slog.Logger
}

func NewLiveSource(caller gateway.Caller, sc *cache.SessionCache, logger *slog.Logger) *LiveSource {
	return &LiveSource{caller: caller, cache: sc, logger: logger}
}

func (s *LiveSource) Name() string { return "live" }

func (s *LiveSource) Fetch(ctx context.Context) (models.ClusterResult, error) {
	r := gateway.Call[models.ClusterEnvelope](ctx, s.caller, gateway.Request{Endpoint: gateway.ClusterData})
	if !r.OK() {
		return models.ClusterResult{}, r.Err
	}
	res := r.Value.Result()
	if s.cache != nil {
		if err := s.cache.StoreResult(ctx, &res); err != nil {
			s.logger.Warn("re-priming session cache failed", "tab_id", s.cache.TabID(), "error", err)
		}
	}
	return res, nil
}

// CacheSource reads each field independently from the session cache. It
// never fails; missing fields are simply absent.
type CacheSource struct {
	cache *cache.SessionCache
}

func NewCacheSource(sc *cache.SessionCache) *CacheSource {
	return &CacheSource{cache: sc}
}

func (s *CacheSource) Name() string { return "cache" }

func (s *CacheSource) Fetch(ctx context.Context) (models.ClusterResult, error) {
	return s.cache.Snapshot(ctx), nil
}

var (
	_ Source = (*LiveSource)(nil)
	_ Source = (*CacheSource)(nil)
)
