package reconcile

import (
	"strconv"

	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// RegionID names one independently degrading area of the results view.
type RegionID string

const (
	RegionMetrics         RegionID = "metrics"
	RegionClusterAnalysis RegionID = "cluster_analysis"
	RegionRecommendations RegionID = "recommendations"
	RegionProfiles        RegionID = "profiles"
	RegionCharts          RegionID = "charts"
	RegionHeatmap         RegionID = "heatmap"
)

// RegionOrder is the render order of the results view.
var RegionOrder = []RegionID{
	RegionMetrics,
	RegionClusterAnalysis,
	RegionRecommendations,
	RegionProfiles,
	RegionCharts,
	RegionHeatmap,
}

var placeholders = map[RegionID]string{
	RegionMetrics:         "No metrics available yet",
	RegionClusterAnalysis: "No cluster analysis available yet",
	RegionRecommendations: "No recommendations available yet",
	RegionProfiles:        "No cluster profiles available yet",
	RegionCharts:          "Visualizations unavailable",
	RegionHeatmap:         "Correlation heatmap unavailable",
}

// Placeholder returns the text shown when id has no content.
func Placeholder(id RegionID) string { return placeholders[id] }

type Status string

const (
	StatusReady       Status = "ready"
	StatusPlaceholder Status = "placeholder"
)

// Region is one rendered area. Content is set only when Status is ready.
type Region struct {
	ID          RegionID `json:"id"`
	Status      Status   `json:"status"`
	Placeholder string   `json:"placeholder,omitempty"`
	Content     any      `json:"content,omitempty"`
}

// Ready reports whether the region has content.
func (r Region) Ready() bool { return r.Status == StatusReady }

// View is the assembled results page.
type View struct {
	Source  string   `json:"source"`
	Regions []Region `json:"regions"`
}

// Region returns the region with the given id.
func (v View) Region(id RegionID) Region {
	for _, r := range v.Regions {
		if r.ID == id {
			return r
		}
	}
	return placeholder(id)
}

type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ClusterItem struct {
	ClusterID  string  `json:"cluster_id"`
	Size       int     `json:"size"`
	Percentage float64 `json:"percentage"`
}

type Recommendation struct {
	ClusterID string `json:"cluster_id"`
	Text      string `json:"text"`
}

type ProfileItem struct {
	ClusterID  string             `json:"cluster_id"`
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
	MeanValues map[string]float64 `json:"mean_values"`
}

func placeholder(id RegionID) Region {
	return Region{ID: id, Status: StatusPlaceholder, Placeholder: placeholders[id]}
}

func ready(id RegionID, content any) Region {
	return Region{ID: id, Status: StatusReady, Content: content}
}

// FormatMetric renders a metric value exactly as reported.
func FormatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func metricsRegion(m *models.Metrics) Region {
	if m.Empty() {
		return placeholder(RegionMetrics)
	}
	return ready(RegionMetrics, []MetricCard{
		{Label: "Silhouette Score", Value: FormatMetric(m.Silhouette)},
		{Label: "Davies-Bouldin Index", Value: FormatMetric(m.DaviesBouldin)},
	})
}

func analysisRegion(a map[string]models.ClusterStat) Region {
	if len(a) == 0 {
		return placeholder(RegionClusterAnalysis)
	}
	items := make([]ClusterItem, 0, len(a))
	for _, id := range models.ClusterIDs(a) {
		items = append(items, ClusterItem{ClusterID: id, Size: a[id].Size, Percentage: a[id].Percentage})
	}
	return ready(RegionClusterAnalysis, items)
}

func recommendationsRegion(recs map[string]string) Region {
	if len(recs) == 0 {
		return placeholder(RegionRecommendations)
	}
	items := make([]Recommendation, 0, len(recs))
	for _, id := range models.ClusterIDs(recs) {
		items = append(items, Recommendation{ClusterID: id, Text: recs[id]})
	}
	return ready(RegionRecommendations, items)
}

func profilesRegion(p map[string]models.ClusterProfile) Region {
	if len(p) == 0 {
		return placeholder(RegionProfiles)
	}
	items := make([]ProfileItem, 0, len(p))
	for _, id := range models.ClusterIDs(p) {
		items = append(items, ProfileItem{
			ClusterID:  id,
			Count:      p[id].Count,
			Percentage: p[id].Percentage,
			MeanValues: p[id].MeanValues,
		})
	}
	return ready(RegionProfiles, items)
}

func chartsRegion(specs []viz.Spec) Region {
	if len(specs) == 0 {
		return placeholder(RegionCharts)
	}
	return ready(RegionCharts, specs)
}

func heatmapRegion(spec *viz.Spec) Region {
	if spec == nil {
		return placeholder(RegionHeatmap)
	}
	return ready(RegionHeatmap, *spec)
}
