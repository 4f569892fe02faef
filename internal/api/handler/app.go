// Package handler serves the analysis page over HTTP. Every handler works on
// the page of the calling tab and returns the page state next to its data.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	mw "github.com/kiranshivaraju/segmentlens/internal/api/middleware"
	"github.com/kiranshivaraju/segmentlens/internal/api/response"
	"github.com/kiranshivaraju/segmentlens/internal/tab"
	"github.com/kiranshivaraju/segmentlens/internal/theme"
	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/internal/workflow"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

const maxUploadSize = 50 << 20

// PageState is what the browser needs to redraw the page chrome.
type PageState struct {
	TabID    string                 `json:"tab_id"`
	State    workflow.State         `json:"state"`
	Session  models.AnalysisSession `json:"session"`
	Theme    viz.ThemeName          `json:"theme"`
	Loading  ui.Loading             `json:"loading"`
	Notices  []ui.Notice            `json:"notices"`
	Location string                 `json:"location,omitempty"`
}

// App holds the per-tab pages and the theme preferences.
type App struct {
	tabs   *tab.Registry
	themes *theme.Service
	logger *slog.Logger
}

// NewApp creates the handlers.
func NewApp(tabs *tab.Registry, themes *theme.Service, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{tabs: tabs, themes: themes, logger: logger}
}

func (a *App) page(r *http.Request) *tab.Page {
	tabID, _ := mw.GetTabID(r)
	clientID, _ := mw.GetClientID(r)
	return a.tabs.Get(r.Context(), tabID, clientID)
}

func pageState(p *tab.Page) PageState {
	state, session := p.Controller.Snapshot()
	return PageState{
		TabID:    p.TabID,
		State:    state,
		Session:  session,
		Theme:    p.Presenter.Theme().Name,
		Loading:  p.UI.Loading(),
		Notices:  p.UI.Drain(),
		Location: p.UI.Location(),
	}
}

func ok(w http.ResponseWriter, p *tab.Page, data any) {
	response.WithPage(w, data, pageState(p))
}

// Open handles POST /app/open: a page load. The tab gets a fresh workflow
// with the theme read from the durable preference.
func (a *App) Open(w http.ResponseWriter, r *http.Request) {
	tabID, _ := mw.GetTabID(r)
	clientID, _ := mw.GetClientID(r)
	p := a.tabs.Open(r.Context(), tabID, clientID)
	ok(w, p, nil)
}

// State handles GET /app/state.
func (a *App) State(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	ok(w, p, nil)
}

// Upload handles POST /app/upload with a multipart "file" field.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		_, uerr := p.Controller.Upload(r.Context(), "", nil)
		a.writeError(w, p, uerr)
		return
	}
	defer file.Close()

	res, err := p.Controller.Upload(r.Context(), header.Filename, file)
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, res)
}

// Sample handles POST /app/sample.
func (a *App) Sample(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	res, err := p.Controller.LoadSample(r.Context())
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, res)
}

type optimalResponse struct {
	*models.OptimalK
	Chart *viz.Spec `json:"chart,omitempty"`
}

// Optimal handles POST /app/optimal. The silhouette chart comes back
// rendered with the tab's theme.
func (a *App) Optimal(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	res, err := p.Controller.FindOptimal(r.Context())
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	out := optimalResponse{OptimalK: res}
	if spec, found := p.Presenter.Spec(viz.ChartSilhouette); found {
		out.Chart = &spec
	}
	ok(w, p, out)
}

// SelectK handles PUT /app/k.
func (a *App) SelectK(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	var req struct {
		K int `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil, pageState(p))
		return
	}
	if err := p.Controller.SelectK(req.K); err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, map[string]int{"k": req.K})
}

// Cluster handles POST /app/cluster. Without n_clusters the selected k of
// the session is used.
func (a *App) Cluster(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	var req struct {
		NClusters int `json:"n_clusters"`
	}
	if err := decodeOptional(r, &req); err != nil {
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil, pageState(p))
		return
	}
	k := req.NClusters
	if k == 0 {
		k = p.Controller.Session().SelectedK
	}

	res, err := p.Controller.RunClustering(r.Context(), k)
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, res)
}

// ViewResults handles POST /app/view-results. The browser follows the
// returned location.
func (a *App) ViewResults(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	if err := p.Controller.ViewResults(); err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, nil)
}

// Export handles POST /app/export.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	res, err := p.Controller.Export(r.Context())
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, res)
}

// Reset handles POST /app/reset. The browser asks the user first and sends
// the answer as confirm.
func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeOptional(r, &req); err != nil {
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil, pageState(p))
		return
	}
	if err := p.Controller.Reset(r.Context(), ui.Always(req.Confirm)); err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, nil)
}

// Save handles POST /app/save.
func (a *App) Save(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	if err := p.Controller.Save(r.Context()); err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, nil)
}

// Restore handles POST /app/restore.
func (a *App) Restore(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	res, err := p.Controller.Restore(r.Context())
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	ok(w, p, res)
}

// History handles GET /app/history. It always answers 200; an unavailable
// history is reported in the view's message.
func (a *App) History(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	ok(w, p, p.Controller.History(r.Context()))
}

// Results handles GET /results: the results page load.
func (a *App) Results(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	ok(w, p, p.Reconciler.Load(r.Context()))
}

// Charts handles GET /app/charts.
func (a *App) Charts(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	ok(w, p, p.Presenter.Specs())
}

// SetTheme handles PUT /app/theme. It stores the preference and re-renders
// the mounted charts without contacting the backend.
func (a *App) SetTheme(w http.ResponseWriter, r *http.Request) {
	p := a.page(r)
	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.PageError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil, pageState(p))
		return
	}

	th, err := a.themes.Set(r.Context(), p.ClientID, req.Theme)
	if err != nil {
		a.writeError(w, p, err)
		return
	}
	a.tabs.ApplyTheme(p.ClientID, th)
	ok(w, p, p.Presenter.SetTheme(th))
}

// Themes handles GET /app/themes.
func (a *App) Themes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, a.themes.Available())
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func contextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
