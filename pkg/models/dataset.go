package models

// UploadResult is the backend's answer to a dataset upload or sample load.
type UploadResult struct {
	Message    string                        `json:"message,omitempty"`
	Shape      []int                         `json:"shape,omitempty"`
	Statistics map[string]map[string]float64 `json:"statistics,omitempty"`
	Features   []string                      `json:"features"`
	Quality    *DataQuality                  `json:"quality,omitempty"`
}

// Rows returns the row count from Shape, or 0 when the backend omitted it.
func (u *UploadResult) Rows() int {
	if u == nil || len(u.Shape) == 0 {
		return 0
	}
	return u.Shape[0]
}

// DataQuality summarises the loaded dataset.
type DataQuality struct {
	TotalRows     int     `json:"total_rows"`
	TotalColumns  int     `json:"total_columns"`
	DuplicateRows int     `json:"duplicate_rows"`
	MemoryUsageMB float64 `json:"memory_usage_mb"`
}

// OptimalK is the result of the optimal cluster count search.
type OptimalK struct {
	K         int       `json:"optimal_k"`
	ChartData ChartData `json:"chart_data"`
}

// ChartData is the silhouette score per candidate k.
type ChartData struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// ExportResult lists the files the backend wrote during export.
type ExportResult struct {
	Message string            `json:"message,omitempty"`
	Files   map[string]string `json:"files,omitempty"`
}

// BackendStatus reports what the backend currently holds.
type BackendStatus struct {
	DataLoaded        bool `json:"data_loaded"`
	ClustersPerformed bool `json:"clusters_performed"`
}

// QualityReport is the data quality response.
type QualityReport struct {
	Metrics DataQuality `json:"metrics"`
}
