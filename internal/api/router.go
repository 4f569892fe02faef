package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/segmentlens/internal/api/middleware"
	"github.com/kiranshivaraju/segmentlens/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Identify   *mw.Identify
	RateLimit  *mw.RateLimit
	// TrustProxy mounts chi's RealIP so rate limiting sees the forwarded
	// client address.
	TrustProxy bool

	HealthHandler http.HandlerFunc

	OpenHandler        http.HandlerFunc
	StateHandler       http.HandlerFunc
	UploadHandler      http.HandlerFunc
	SampleHandler      http.HandlerFunc
	OptimalHandler     http.HandlerFunc
	SelectKHandler     http.HandlerFunc
	ClusterHandler     http.HandlerFunc
	ViewResultsHandler http.HandlerFunc
	ExportHandler      http.HandlerFunc
	ResetHandler       http.HandlerFunc
	SaveHandler        http.HandlerFunc
	RestoreHandler     http.HandlerFunc
	HistoryHandler     http.HandlerFunc
	ResultsHandler     http.HandlerFunc
	ChartsHandler      http.HandlerFunc
	SetThemeHandler    http.HandlerFunc
	ThemesHandler      http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/app/themes", orNotImplemented(deps.ThemesHandler))

	// Page routes, scoped to the calling tab
	r.Group(func(r chi.Router) {
		r.Use(deps.Identify.Handler)

		r.Post("/app/open", orNotImplemented(deps.OpenHandler))
		r.Get("/app/state", orNotImplemented(deps.StateHandler))
		r.Get("/app/charts", orNotImplemented(deps.ChartsHandler))
		r.Get("/app/history", orNotImplemented(deps.HistoryHandler))
		r.Put("/app/theme", orNotImplemented(deps.SetThemeHandler))
		r.Get("/results", orNotImplemented(deps.ResultsHandler))

		// Actions that reach the backend
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimit.Limit)

			r.Post("/app/upload", orNotImplemented(deps.UploadHandler))
			r.Post("/app/sample", orNotImplemented(deps.SampleHandler))
			r.Post("/app/optimal", orNotImplemented(deps.OptimalHandler))
			r.Put("/app/k", orNotImplemented(deps.SelectKHandler))
			r.Post("/app/cluster", orNotImplemented(deps.ClusterHandler))
			r.Post("/app/view-results", orNotImplemented(deps.ViewResultsHandler))
			r.Post("/app/export", orNotImplemented(deps.ExportHandler))
			r.Post("/app/reset", orNotImplemented(deps.ResetHandler))
			r.Post("/app/save", orNotImplemented(deps.SaveHandler))
			r.Post("/app/restore", orNotImplemented(deps.RestoreHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
