package viz

import (
	"encoding/json"
	"strconv"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// Chart identifiers, one per mounted chart region.
const (
	ChartScatter      = "scatterPlot"
	ChartDistribution = "distributionChart"
	ChartHeatmap      = "correlationHeatmap"
	ChartSilhouette   = "silhouetteChart"
)

var (
	ScatterDefaults      = Defaults{Title: "Customer Segments Visualization", XTitle: "Feature 1", YTitle: "Feature 2"}
	DistributionDefaults = Defaults{Title: "Cluster Distribution", XTitle: "Cluster ID", YTitle: "Number of Customers"}
	HeatmapDefaults      = Defaults{Title: "Feature Correlation Matrix", XTitle: "Features", YTitle: "Features"}
	SilhouetteDefaults   = Defaults{Title: "Silhouette Score vs Number of Clusters", XTitle: "Number of Clusters (k)", YTitle: "Silhouette Score"}
)

const (
	minHeatmapSize     = 500
	heatmapCellSize    = 50
	silhouetteColor    = "#2563eb"
	heatmapScaleLow    = "#667eea"
	heatmapScaleMiddle = "#f5f5f5"
	heatmapScaleHigh   = "#f093fb"
)

// HeatmapSize is the square canvas edge for a matrix of n features.
func HeatmapSize(n int) int {
	return max(minHeatmapSize, n*heatmapCellSize)
}

// FormatCell renders a correlation value for the text overlay.
func FormatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// HeatmapPayload builds the raw heatmap chart for a correlation matrix.
func HeatmapPayload(m models.CorrelationMatrix) (models.ChartPayload, error) {
	text := make([][]string, len(m.Matrix))
	for i, row := range m.Matrix {
		text[i] = make([]string, len(row))
		for j, v := range row {
			text[i][j] = FormatCell(v)
		}
	}

	trace := map[string]any{
		"type":         "heatmap",
		"z":            m.Matrix,
		"x":            m.Features,
		"y":            m.Features,
		"zmin":         -1,
		"zmax":         1,
		"text":         text,
		"texttemplate": "%{text}",
		"hoverongaps":  false,
		"showscale":    true,
		"colorscale":   [][]any{{0, heatmapScaleLow}, {0.5, heatmapScaleMiddle}, {1, heatmapScaleHigh}},
		"colorbar":     map[string]any{"thickness": 15, "len": 0.7},
	}
	data, err := json.Marshal([]any{trace})
	if err != nil {
		return models.ChartPayload{}, err
	}

	size := HeatmapSize(len(m.Features))
	return models.ChartPayload{
		Data: data,
		Layout: map[string]any{
			"title":  HeatmapDefaults.Title,
			"width":  size,
			"height": size,
			"xaxis":  map[string]any{"side": "bottom", "tickangle": -45},
			"yaxis":  map[string]any{"autorange": "reversed"},
		},
	}, nil
}

// SilhouettePayload builds the silhouette-score-per-k line chart.
func SilhouettePayload(o models.OptimalK) (models.ChartPayload, error) {
	trace := map[string]any{
		"x":      o.ChartData.X,
		"y":      o.ChartData.Y,
		"type":   "scatter",
		"mode":   "lines+markers",
		"name":   "Silhouette Score",
		"line":   map[string]any{"color": silhouetteColor, "width": 3},
		"marker": map[string]any{"size": 8, "color": silhouetteColor},
	}
	data, err := json.Marshal([]any{trace})
	if err != nil {
		return models.ChartPayload{}, err
	}
	return models.ChartPayload{Data: data, Layout: map[string]any{}}, nil
}
