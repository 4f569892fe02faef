package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// Field is a logical SessionCache key.
type Field string

const (
	FieldClusterAnalysis Field = "clusterAnalysis"
	FieldRecommendations Field = "recommendations"
	FieldMetrics         Field = "metrics"
	FieldClusterProfiles Field = "clusterProfiles"
	FieldCentroids       Field = "centroids"
)

// Fields lists every SessionCache field.
var Fields = []Field{
	FieldClusterAnalysis,
	FieldRecommendations,
	FieldMetrics,
	FieldClusterProfiles,
	FieldCentroids,
}

var emptyObject = json.RawMessage(`{}`)

// SessionCache holds the last successful analysis of one browser tab. Every
// field is stored under its own key so a partial write stays recoverable
// field by field. Entries live for the tab's TTL, refreshed on write.
type SessionCache struct {
	backend Cache
	tabID   string
	ttl     time.Duration
}

// NewSessionCache creates a SessionCache scoped to tabID.
func NewSessionCache(backend Cache, tabID string, ttl time.Duration) *SessionCache {
	return &SessionCache{backend: backend, tabID: tabID, ttl: ttl}
}

// TabID returns the tab this cache is scoped to.
func (s *SessionCache) TabID() string { return s.tabID }

// Lookup returns the raw value of f and whether it was present. Backend
// failures are logged and reported as a miss.
func (s *SessionCache) Lookup(ctx context.Context, f Field) (json.RawMessage, bool) {
	raw, found, err := s.backend.Get(ctx, SessionFieldKey(s.tabID, string(f)))
	if err != nil {
		slog.Warn("session cache read failed", "tab_id", s.tabID, "field", f, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Get returns the raw value of f, or the empty object when absent.
func (s *SessionCache) Get(ctx context.Context, f Field) json.RawMessage {
	if raw, ok := s.Lookup(ctx, f); ok {
		return raw
	}
	return emptyObject
}

// Set serializes v and stores it under f.
func (s *SessionCache) Set(ctx context.Context, f Field, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}
	if err := s.backend.Set(ctx, SessionFieldKey(s.tabID, string(f)), b, s.ttl); err != nil {
		return fmt.Errorf("writing %s: %w", f, err)
	}
	return nil
}

// Remove deletes f.
func (s *SessionCache) Remove(ctx context.Context, f Field) error {
	return s.backend.Delete(ctx, SessionFieldKey(s.tabID, string(f)))
}

// StoreResult decomposes r into its fields and writes each present field
// independently. Absent fields leave earlier values untouched.
func (s *SessionCache) StoreResult(ctx context.Context, r *models.ClusterResult) error {
	return s.store(ctx, r, false)
}

// ReplaceResult stores a fresh clustering run. Fields r does not carry are
// removed so the cache never mixes two runs.
func (s *SessionCache) ReplaceResult(ctx context.Context, r *models.ClusterResult) error {
	return s.store(ctx, r, true)
}

func (s *SessionCache) store(ctx context.Context, r *models.ClusterResult, replace bool) error {
	if r == nil {
		return nil
	}
	var errs []error
	write := func(f Field, present bool, v any) {
		var err error
		switch {
		case present:
			err = s.Set(ctx, f, v)
		case replace:
			err = s.Remove(ctx, f)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	write(FieldMetrics, !r.Metrics.Empty(), r.Metrics)
	write(FieldClusterAnalysis, len(r.ClusterAnalysis) > 0, r.ClusterAnalysis)
	write(FieldRecommendations, len(r.Recommendations) > 0, r.Recommendations)
	write(FieldClusterProfiles, len(r.ClusterProfiles) > 0, r.ClusterProfiles)
	write(FieldCentroids, len(r.Centroids) > 0, r.Centroids)
	return errors.Join(errs...)
}

// Metrics returns the cached metrics, if any.
func (s *SessionCache) Metrics(ctx context.Context) (*models.Metrics, bool) {
	m, ok := read[models.Metrics](ctx, s, FieldMetrics)
	if !ok {
		return nil, false
	}
	return &m, true
}

// ClusterAnalysis returns the cached per-cluster sizes, if any.
func (s *SessionCache) ClusterAnalysis(ctx context.Context) (map[string]models.ClusterStat, bool) {
	return read[map[string]models.ClusterStat](ctx, s, FieldClusterAnalysis)
}

// Recommendations returns the cached recommendations, if any.
func (s *SessionCache) Recommendations(ctx context.Context) (map[string]string, bool) {
	return read[map[string]string](ctx, s, FieldRecommendations)
}

// ClusterProfiles returns the cached profiles, if any.
func (s *SessionCache) ClusterProfiles(ctx context.Context) (map[string]models.ClusterProfile, bool) {
	return read[map[string]models.ClusterProfile](ctx, s, FieldClusterProfiles)
}

// Centroids returns the cached centroids, if any.
func (s *SessionCache) Centroids(ctx context.Context) ([][]float64, bool) {
	return read[[][]float64](ctx, s, FieldCentroids)
}

// Snapshot reads every field independently into a ClusterResult.
func (s *SessionCache) Snapshot(ctx context.Context) models.ClusterResult {
	var r models.ClusterResult
	r.Metrics, _ = s.Metrics(ctx)
	r.ClusterAnalysis, _ = s.ClusterAnalysis(ctx)
	r.Recommendations, _ = s.Recommendations(ctx)
	r.ClusterProfiles, _ = s.ClusterProfiles(ctx)
	r.Centroids, _ = s.Centroids(ctx)
	return r
}

// read decodes field f into a T. Absent, empty or undecodable values are a miss.
func read[T any](ctx context.Context, s *SessionCache, f Field) (T, bool) {
	var v T
	raw, ok := s.Lookup(ctx, f)
	if !ok || IsEmptyJSON(raw) {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("session cache value undecodable", "tab_id", s.tabID, "field", f, "error", err)
		return v, false
	}
	return v, true
}

// IsEmptyJSON reports whether raw is missing, null, {} or [].
func IsEmptyJSON(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return true
	}
	var decoded any
	if err := json.Unmarshal(t, &decoded); err != nil {
		return false
	}
	switch v := decoded.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
