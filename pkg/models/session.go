package models

// AnalysisSession is the unit of work for one dataset within a single page.
// It is owned by the workflow controller and handed out only as a copy.
type AnalysisSession struct {
	DataLoaded     bool           `json:"data_loaded"`
	OptimalK       *int           `json:"optimal_k,omitempty"`
	SelectedK      int            `json:"selected_k"`
	LastClusterRun *ClusterResult `json:"last_cluster_run,omitempty"`
	Features       []string       `json:"features,omitempty"`
	Rows           int            `json:"rows,omitempty"`
}
