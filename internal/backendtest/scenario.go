package backendtest

import (
	"encoding/json"
	"net/http"

	"github.com/kiranshivaraju/segmentlens/internal/gateway"
)

// CustomerFeatures are the five features of the customers.csv fixture.
var CustomerFeatures = []string{"Age", "Annual_Income", "Spending_Score", "Tenure", "Visits"}

// ClusterAnalysis returns the four-cluster analysis of the customers.csv fixture.
func ClusterAnalysis() map[string]any {
	return map[string]any{
		"0": map[string]any{"size": 62, "percentage": 31.0},
		"1": map[string]any{"size": 48, "percentage": 24.0},
		"2": map[string]any{"size": 50, "percentage": 25.0},
		"3": map[string]any{"size": 40, "percentage": 20.0},
	}
}

// Recommendations returns one recommendation per fixture cluster.
func Recommendations() map[string]any {
	return map[string]any{
		"0": "Loyal high spenders: offer premium tiers.",
		"1": "Budget conscious: promote bundles.",
		"2": "Occasional visitors: send reminders.",
		"3": "New customers: onboarding campaign.",
	}
}

// Profiles returns mean feature values per fixture cluster.
func Profiles() map[string]any {
	profile := func(count int, pct, age, income float64) map[string]any {
		return map[string]any{
			"count":       count,
			"percentage":  pct,
			"mean_values": map[string]any{"Age": age, "Annual_Income": income},
		}
	}
	return map[string]any{
		"0": profile(62, 31.0, 41.2, 88.5),
		"1": profile(48, 24.0, 29.8, 35.1),
		"2": profile(50, 25.0, 52.4, 61.0),
		"3": profile(40, 20.0, 23.3, 44.7),
	}
}

// Metrics returns the fixture clustering metrics.
func Metrics() map[string]any {
	return map[string]any{"silhouette_score": 0.62, "davies_bouldin_score": 0.81}
}

// ScatterData is the raw scatter trace array served by the fixture.
const ScatterData = `[{"type":"scatter","mode":"markers","x":[1,2,3],"y":[4,5,6],"marker":{"color":[0,1,2]}}]`

// DistributionData is the raw bar trace array served by the fixture.
const DistributionData = `[{"type":"bar","x":[0,1,2,3],"y":[62,48,50,40]}]`

// LoadCustomerScenario registers the full customers.csv happy path:
// 200 rows, 5 features, optimal k of 4 and a four-cluster result.
func (b *Backend) LoadCustomerScenario() {
	b.OK(gateway.Upload, map[string]any{
		"message":  "File uploaded successfully. 200 rows processed.",
		"shape":    []int{200, 5},
		"features": CustomerFeatures,
		"statistics": map[string]any{
			"Age": map[string]any{"count": 200, "mean": 38.5},
		},
	})
	b.OK(gateway.SampleData, map[string]any{"shape": []int{200, 5}, "features": CustomerFeatures})
	b.OK(gateway.DataQuality, map[string]any{"metrics": map[string]any{
		"total_rows": 200, "total_columns": 5, "duplicate_rows": 0, "memory_usage_mb": 0.01,
	}})
	b.OK(gateway.OptimalClusters, map[string]any{
		"optimal_k":  4,
		"chart_data": map[string]any{"x": []int{2, 3, 4, 5}, "y": []float64{0.41, 0.55, 0.62, 0.58}},
	})
	b.OK(gateway.Cluster, map[string]any{
		"metrics":          Metrics(),
		"n_clusters":       4,
		"cluster_analysis": ClusterAnalysis(),
		"recommendations":  Recommendations(),
		"cluster_profiles": Profiles(),
		"centroids":        [][]float64{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}, {0.7, 0.8}},
	})
	b.OK(gateway.ClusterData, map[string]any{
		"cluster_analysis": ClusterAnalysis(),
		"recommendations":  Recommendations(),
		"metrics":          Metrics(),
		"cluster_profiles": Profiles(),
	})
	b.OK(gateway.Visualizations, map[string]any{
		"scatter_chart": map[string]any{
			"data":   json.RawMessage(ScatterData),
			"layout": map[string]any{"title": "Customer Segments Visualization", "xaxis": map[string]any{"title": "Age"}},
		},
		"distribution_chart": map[string]any{
			"data":   json.RawMessage(DistributionData),
			"layout": map[string]any{"title": "Cluster Distribution"},
		},
	})
	b.OK(gateway.CorrelationMatrix, map[string]any{
		"features": CustomerFeatures,
		"matrix": [][]float64{
			{1, 0.123, -0.456, 0.2, 0.05},
			{0.123, 1, 0.789, 0.1, 0.3},
			{-0.456, 0.789, 1, 0.15, 0.25},
			{0.2, 0.1, 0.15, 1, 0.333},
			{0.05, 0.3, 0.25, 0.333, 1},
		},
	})
	b.OK(gateway.Export, map[string]any{"message": "Results exported successfully",
		"files": map[string]any{"csv": "uploads/clustered_results.csv"}})
	b.OK(gateway.Reset, map[string]any{"message": "Analysis reset successfully"})
	b.OK(gateway.SaveState, map[string]any{"message": "State saved"})
	b.OK(gateway.LoadState, map[string]any{"message": "State restored", "features": CustomerFeatures, "shape": []int{200, 5}})
	b.OK(gateway.StateHistory, map[string]any{"history": []any{
		map[string]any{"path": "model/app_state.pkl", "last_modified": "2026-10-01T12:00:00", "size_bytes": 2048},
	}})
	b.Reply(gateway.Status, http.StatusOK, map[string]any{"data_loaded": true, "clusters_performed": true})
}

// Block makes ep wait until release is closed before answering with the
// currently registered response. started receives once per request.
func (b *Backend) Block(ep gateway.Endpoint, started chan<- struct{}, release <-chan struct{}) {
	b.mu.Lock()
	next := b.handlers[ep.String()]
	b.mu.Unlock()

	b.Handle(ep, func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		if next == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Resource not found"})
			return
		}
		next(w, r)
	})
}
