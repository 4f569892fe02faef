package models

import "encoding/json"

// ChartPayload is a raw plot description as produced by the backend.
// Data is kept as raw JSON so it can be passed through untouched.
type ChartPayload struct {
	Data   json.RawMessage `json:"data"`
	Layout map[string]any  `json:"layout"`
}

// Visualizations is the response of the visualizations endpoint.
type Visualizations struct {
	Scatter      *ChartPayload `json:"scatter_chart"`
	Distribution *ChartPayload `json:"distribution_chart"`
}

// CorrelationMatrix is a square feature correlation matrix.
type CorrelationMatrix struct {
	Matrix   [][]float64 `json:"matrix"`
	Features []string    `json:"features"`
}
