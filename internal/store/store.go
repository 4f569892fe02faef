package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// PreferenceStore is the durable client store. It keeps per-client settings
// such as the selected theme across sessions.
type PreferenceStore interface {
	Ping(ctx context.Context) error
	GetPreference(ctx context.Context, clientID, key string) (*models.Preference, error)
	SetPreference(ctx context.Context, pref *models.Preference) error
	DeletePreference(ctx context.Context, clientID, key string) error
}
