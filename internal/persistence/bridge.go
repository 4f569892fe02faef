// Package persistence saves, restores and lists analysis sessions stored
// durably by the backend. It is independent of the per-tab session cache.
package persistence

import (
	"context"
	"log/slog"

	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

const (
	MessageNoHistory          = "No saved analyses yet"
	MessageHistoryUnavailable = "History unavailable"
)

// HistoryView is what the history panel renders. Failures never surface as
// errors; they produce an empty, muted view instead.
type HistoryView struct {
	Entries []models.HistoryEntry `json:"entries"`
	Message string                `json:"message,omitempty"`
	Muted   bool                  `json:"muted"`
}

// Bridge talks to the backend's save/load/history endpoints.
type Bridge struct {
	caller gateway.Caller
	logger *slog.Logger
}

// NewBridge creates a Bridge. A nil logger uses slog.Default().
func NewBridge(caller gateway.Caller, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{caller: caller, logger: logger}
}

// Save asks the backend to persist the active session.
func (b *Bridge) Save(ctx context.Context) error {
	r := gateway.Call[struct{}](ctx, b.caller, gateway.Request{Endpoint: gateway.SaveState})
	if !r.OK() {
		return r.Err
	}
	return nil
}

// Restore re-activates the most recently saved session on the backend.
func (b *Bridge) Restore(ctx context.Context) (*models.RestoreOutcome, error) {
	r := gateway.Call[models.RestoreOutcome](ctx, b.caller, gateway.Request{Endpoint: gateway.LoadState})
	if !r.OK() {
		return nil, r.Err
	}
	return &r.Value, nil
}

// History lists saved sessions.
func (b *Bridge) History(ctx context.Context) HistoryView {
	r := gateway.Call[models.History](ctx, b.caller, gateway.Request{Endpoint: gateway.StateHistory})
	if !r.OK() {
		b.logger.Warn("loading state history failed",
			"kind", r.Err.Kind,
			"error", r.Err.Message,
		)
		return HistoryView{Entries: []models.HistoryEntry{}, Message: MessageHistoryUnavailable, Muted: true}
	}
	if len(r.Value.Entries) == 0 {
		return HistoryView{Entries: []models.HistoryEntry{}, Message: MessageNoHistory, Muted: true}
	}
	return HistoryView{Entries: r.Value.Entries}
}
