// Package theme keeps each client's selected presentation theme. The theme
// is read once when a page opens and changes only on an explicit toggle.
package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/segmentlens/internal/store"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// PreferenceKey is the durable key holding the selected theme.
const PreferenceKey = "selectedTheme"

// ErrUnknownTheme is returned by Set for names outside the theme table.
var ErrUnknownTheme = errors.New("unknown theme")

type Service struct {
	store    store.PreferenceStore
	fallback viz.ThemeName
	logger   *slog.Logger
}

// NewService creates a Service. fallback is used when nothing valid is stored.
func NewService(s store.PreferenceStore, fallback viz.ThemeName, logger *slog.Logger) *Service {
	if _, ok := viz.LookupTheme(fallback); !ok {
		fallback = viz.DefaultTheme
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, fallback: fallback, logger: logger}
}

// Current returns the client's theme. Missing or invalid values and store
// errors all yield the fallback theme.
func (s *Service) Current(ctx context.Context, clientID string) viz.Theme {
	pref, err := s.store.GetPreference(ctx, clientID, PreferenceKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("reading theme preference failed", "client_id", clientID, "error", err)
		}
		return viz.MustTheme(s.fallback)
	}
	name, err := viz.ParseThemeName(pref.Value)
	if err != nil {
		s.logger.Warn("stored theme is invalid", "client_id", clientID, "value", pref.Value)
		return viz.MustTheme(s.fallback)
	}
	return viz.MustTheme(name)
}

// Set validates name and persists it as the client's theme.
func (s *Service) Set(ctx context.Context, clientID, name string) (viz.Theme, error) {
	parsed, err := viz.ParseThemeName(name)
	if err != nil {
		return viz.Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	err = s.store.SetPreference(ctx, &models.Preference{
		ClientID: clientID,
		Key:      PreferenceKey,
		Value:    string(parsed),
	})
	if err != nil {
		return viz.Theme{}, fmt.Errorf("saving theme: %w", err)
	}
	return viz.MustTheme(parsed), nil
}

// Available lists every theme name.
func (s *Service) Available() []viz.ThemeName {
	return viz.ThemeNames()
}
