package models

import "time"

// Preference is a durable per-client key/value setting such as the selected theme.
type Preference struct {
	ClientID  string    `db:"client_id"  json:"client_id"`
	Key       string    `db:"key"        json:"key"`
	Value     string    `db:"value"      json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
