package models

import (
	"sort"
	"strconv"
)

// Metrics holds the clustering quality scores reported by the backend.
type Metrics struct {
	Silhouette    float64 `json:"silhouette_score"`
	DaviesBouldin float64 `json:"davies_bouldin_score"`
}

// Empty reports whether m carries no scores. A backend that answers
// "metrics": {} decodes to the zero value, which is treated as absent.
func (m *Metrics) Empty() bool {
	return m == nil || *m == Metrics{}
}

// ClusterStat is the per-cluster size summary shown in the cluster analysis list.
type ClusterStat struct {
	Size       int                           `json:"size"`
	Percentage float64                       `json:"percentage"`
	Statistics map[string]map[string]float64 `json:"statistics,omitempty"`
}

// ClusterProfile describes the feature means of one cluster.
type ClusterProfile struct {
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
	MeanValues map[string]float64 `json:"mean_values"`
}

// ClusterResult is the snapshot produced by a single clustering run.
// ClusterAnalysis, Recommendations and ClusterProfiles are keyed by cluster ID
// and share the same key set whenever all three are present. Any field may be
// absent; consumers degrade per field.
type ClusterResult struct {
	Metrics         *Metrics                  `json:"metrics,omitempty"`
	NClusters       int                       `json:"n_clusters,omitempty"`
	ClusterAnalysis map[string]ClusterStat    `json:"cluster_analysis,omitempty"`
	Recommendations map[string]string         `json:"recommendations,omitempty"`
	ClusterProfiles map[string]ClusterProfile `json:"cluster_profiles,omitempty"`
	Centroids       [][]float64               `json:"centroids,omitempty"`
}

// ClusterIDs returns the cluster IDs in display order: numeric IDs ascending,
// then any non-numeric IDs lexically.
func ClusterIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// ClusterEnvelope is a cluster result as the backend sends it. Older
// endpoints name the profile map "profiles" instead of "cluster_profiles".
type ClusterEnvelope struct {
	ClusterResult
	Profiles map[string]ClusterProfile `json:"profiles,omitempty"`
}

// Result returns the normalized ClusterResult.
func (e ClusterEnvelope) Result() ClusterResult {
	r := e.ClusterResult
	if r.Metrics.Empty() {
		r.Metrics = nil
	}
	if len(r.ClusterProfiles) == 0 && len(e.Profiles) > 0 {
		r.ClusterProfiles = e.Profiles
	}
	return r
}
