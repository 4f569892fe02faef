package gateway

import "net/http"

// Endpoint is a backend route.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string { return e.Method + " " + e.Path }

// Backend endpoints consumed by the orchestrator.
var (
	Upload            = Endpoint{http.MethodPost, "/api/upload"}
	SampleData        = Endpoint{http.MethodPost, "/api/sample-data"}
	DataQuality       = Endpoint{http.MethodGet, "/api/data-quality"}
	OptimalClusters   = Endpoint{http.MethodGet, "/api/optimal-clusters"}
	Cluster           = Endpoint{http.MethodPost, "/api/cluster"}
	ClusterData       = Endpoint{http.MethodGet, "/api/cluster-data"}
	Visualizations    = Endpoint{http.MethodGet, "/api/visualizations"}
	CorrelationMatrix = Endpoint{http.MethodGet, "/api/correlation-matrix"}
	Export            = Endpoint{http.MethodGet, "/api/export"}
	Reset             = Endpoint{http.MethodPost, "/api/reset"}
	SaveState         = Endpoint{http.MethodPost, "/api/save-state"}
	LoadState         = Endpoint{http.MethodPost, "/api/load-state"}
	StateHistory      = Endpoint{http.MethodGet, "/api/state-history"}
	Status            = Endpoint{http.MethodGet, "/api/status"}
)
