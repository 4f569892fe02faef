package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/segmentlens/internal/api/response"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/tab"
	"github.com/kiranshivaraju/segmentlens/internal/theme"
	"github.com/kiranshivaraju/segmentlens/internal/workflow"
)

// writeError maps workflow, gateway and theme errors onto the error envelope.
// The page state goes along so the browser can show the notices.
func (a *App) writeError(w http.ResponseWriter, p *tab.Page, err error) {
	page := pageState(p)

	var pre *workflow.PreconditionError
	var gerr *gateway.Error
	switch {
	case errors.As(err, &pre):
		response.PageError(w, http.StatusConflict, "PRECONDITION_FAILED", pre.Reason,
			map[string]string{"event": string(pre.Event), "state": pre.State.String()}, page)
	case errors.Is(err, workflow.ErrInFlight):
		response.PageError(w, http.StatusConflict, "IN_FLIGHT", err.Error(), nil, page)
	case errors.Is(err, workflow.ErrSuperseded):
		response.PageError(w, http.StatusConflict, "SUPERSEDED",
			"The analysis was reset while the request was running", nil, page)
	case errors.Is(err, workflow.ErrInvalidFile), errors.Is(err, workflow.ErrInvalidK):
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil, page)
	case errors.Is(err, workflow.ErrResetDeclined):
		response.PageError(w, http.StatusBadRequest, "CONFIRMATION_REQUIRED", err.Error(), nil, page)
	case errors.Is(err, theme.ErrUnknownTheme):
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil, page)
	case errors.As(err, &gerr):
		if contextDone(gerr.Err) {
			a.logger.Info("request cancelled", "tab_id", p.TabID, "error", err)
		}
		response.PageError(w, http.StatusBadGateway, "GATEWAY_"+strings.ToUpper(string(gerr.Kind)),
			gerr.Message, map[string]any{"endpoint": gerr.Endpoint, "status": gerr.Status}, page)
	default:
		a.logger.Error("unexpected error", "tab_id", p.TabID, "error", err)
		response.PageError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil, page)
	}
}
