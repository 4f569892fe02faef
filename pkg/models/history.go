package models

// HistoryEntry is server-persisted metadata about a saved analysis state.
type HistoryEntry struct {
	Path         string `json:"path,omitempty"`
	LastModified string `json:"last_modified"`
	SizeBytes    int64  `json:"size_bytes"`
}

// RestoreOutcome describes the session the backend re-activated.
type RestoreOutcome struct {
	Message  string   `json:"message,omitempty"`
	Features []string `json:"features,omitempty"`
	Shape    []int    `json:"shape,omitempty"`
}

// History is the state history response.
type History struct {
	Entries []HistoryEntry `json:"history"`
}
