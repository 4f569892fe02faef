// Package workflow implements the analysis state machine for one page.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/persistence"
	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// Paths the controller navigates to.
const (
	PathHome    = "/"
	PathResults = "/results"
)

// ResetPrompt is the confirmation shown before a reset.
const ResetPrompt = "Are you sure you want to reset the analysis? This action cannot be undone."

// Deps holds the collaborators of a Controller.
type Deps struct {
	Caller    gateway.Caller
	Cache     *cache.SessionCache
	Presenter *viz.Presenter
	Bridge    *persistence.Bridge
	Notifier  ui.Notifier
	Indicator ui.Indicator
	Navigator ui.Navigator
	Logger    *slog.Logger
}

// Controller gates user actions by workflow state and owns the
// AnalysisSession. The mutex is never held across a backend call.
type Controller struct {
	deps Deps

	mu       sync.Mutex
	state    State
	session  models.AnalysisSession
	// inflight maps each running event to the generation it started in.
	inflight map[Event]uint64
	// generation is bumped by every successful Reset. A call that started in
	// an older generation must not commit.
	generation uint64
}

// New creates a controller in the Empty state.
func New(deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Bridge == nil {
		deps.Bridge = persistence.NewBridge(deps.Caller, deps.Logger)
	}
	return &Controller{deps: deps, inflight: make(map[Event]uint64)}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current session.
func (c *Controller) Session() models.AnalysisSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copySession()
}

// Snapshot returns the state and session read together.
func (c *Controller) Snapshot() (State, models.AnalysisSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.copySession()
}

func (c *Controller) copySession() models.AnalysisSession {
	s := c.session
	if s.OptimalK != nil {
		k := *s.OptimalK
		s.OptimalK = &k
	}
	s.Features = slices.Clone(s.Features)
	return s
}

// begin validates ev against the current state and marks it in flight.
func (c *Controller) begin(ev Event) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !Allowed(ev, c.state) {
		return 0, precondition(ev, c.state)
	}
	if gen, ok := c.inflight[ev]; ok && gen == c.generation {
		return 0, ErrInFlight
	}
	c.inflight[ev] = c.generation
	return c.generation, nil
}

func (c *Controller) end(ev Event, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.inflight[ev]; ok && cur == gen {
		delete(c.inflight, ev)
	}
}

// commit applies fn under the lock unless a Reset happened since gen.
func (c *Controller) commit(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	fn()
	return true
}

// start runs the guard for ev and reports rejections to the user.
func (c *Controller) start(ev Event) (uint64, error) {
	gen, err := c.begin(ev)
	if err == nil {
		return gen, nil
	}
	var pe *PreconditionError
	switch {
	case errors.As(err, &pe):
		c.deps.Notifier.Notify(ui.LevelWarning, pe.Reason)
	case errors.Is(err, ErrInFlight):
		c.deps.Notifier.Notify(ui.LevelWarning, inFlightMessage(ev))
	}
	c.deps.Logger.Info("event rejected", "event", string(ev), "error", err)
	return 0, err
}

func (c *Controller) failed(ev Event, prefix string, gerr *gateway.Error) error {
	c.deps.Logger.Warn("backend call failed",
		"event", string(ev),
		"endpoint", gerr.Endpoint,
		"kind", gerr.Kind,
		"status", gerr.Status,
		"error", gerr.Message,
	)
	c.deps.Notifier.Notify(ui.LevelError, prefix+": "+gerr.Message)
	return gerr
}

func (c *Controller) superseded(ev Event) error {
	c.deps.Logger.Info("discarding result after reset", "event", string(ev))
	return ErrSuperseded
}

func (c *Controller) loading(text string) func() {
	c.deps.Indicator.Show(text)
	return c.deps.Indicator.Hide
}

// Upload sends a CSV dataset to the backend.
func (c *Controller) Upload(ctx context.Context, filename string, content io.Reader) (*models.UploadResult, error) {
	if filename == "" || content == nil {
		c.deps.Notifier.Notify(ui.LevelWarning, "Please select a file")
		return nil, ErrInvalidFile
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		c.deps.Notifier.Notify(ui.LevelWarning, "Please select a CSV file")
		return nil, ErrInvalidFile
	}

	gen, err := c.start(EventUpload)
	if err != nil {
		return nil, err
	}
	defer c.end(EventUpload, gen)
	defer c.loading("Uploading and processing data...")()

	r := gateway.Call[models.UploadResult](ctx, c.deps.Caller, gateway.Request{
		Endpoint: gateway.Upload,
		File:     &gateway.File{Name: filepath.Base(filename), Content: content},
	})
	if !r.OK() {
		return nil, c.failed(EventUpload, "Upload failed", r.Err)
	}
	return c.dataLoaded(ctx, EventUpload, gen, r.Value, "Data uploaded and processed successfully!")
}

// LoadSample asks the backend to load its bundled sample dataset.
func (c *Controller) LoadSample(ctx context.Context) (*models.UploadResult, error) {
	gen, err := c.start(EventSample)
	if err != nil {
		return nil, err
	}
	defer c.end(EventSample, gen)
	defer c.loading("Loading sample data...")()

	r := gateway.Call[models.UploadResult](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.SampleData})
	if !r.OK() {
		return nil, c.failed(EventSample, "Failed to load sample data", r.Err)
	}
	return c.dataLoaded(ctx, EventSample, gen, r.Value, "Sample data loaded successfully!")
}

func (c *Controller) dataLoaded(ctx context.Context, ev Event, gen uint64, res models.UploadResult, msg string) (*models.UploadResult, error) {
	ok := c.commit(gen, func() {
		c.state = DataLoaded
		c.session = models.AnalysisSession{
			DataLoaded: true,
			Features:   slices.Clone(res.Features),
			Rows:       res.Rows(),
		}
	})
	if !ok {
		return nil, c.superseded(ev)
	}
	c.deps.Presenter.Clear()
	c.deps.Notifier.Notify(ui.LevelSuccess, msg)

	res.Quality = c.dataQuality(ctx)
	return &res, nil
}

// dataQuality is a nested fetch: it never touches the indicator and its
// failure is only logged.
func (c *Controller) dataQuality(ctx context.Context) *models.DataQuality {
	r := gateway.Call[models.QualityReport](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.DataQuality})
	if !r.OK() {
		c.deps.Logger.Warn("loading data quality failed", "kind", r.Err.Kind, "error", r.Err.Message)
		return nil
	}
	return &r.Value.Metrics
}

// FindOptimal runs the optimal cluster count search and preselects its k.
func (c *Controller) FindOptimal(ctx context.Context) (*models.OptimalK, error) {
	gen, err := c.start(EventFindOptimal)
	if err != nil {
		return nil, err
	}
	defer c.end(EventFindOptimal, gen)
	defer c.loading("Analyzing optimal clusters...")()

	r := gateway.Call[models.OptimalK](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.OptimalClusters})
	if !r.OK() {
		return nil, c.failed(EventFindOptimal, "Analysis failed", r.Err)
	}
	res := r.Value

	ok := c.commit(gen, func() {
		k := res.K
		c.state = OptimalKnown
		c.session.OptimalK = &k
		c.session.SelectedK = k
	})
	if !ok {
		return nil, c.superseded(EventFindOptimal)
	}

	if payload, err := viz.SilhouettePayload(res); err != nil {
		c.deps.Logger.Warn("building silhouette chart failed", "error", err)
	} else {
		c.deps.Presenter.Mount(viz.ChartSilhouette, payload, viz.SilhouetteDefaults)
	}
	c.deps.Notifier.Notify(ui.LevelSuccess, fmt.Sprintf("Optimal clusters: %d", res.K))
	return &res, nil
}

// SelectK records the user's chosen cluster count.
func (c *Controller) SelectK(k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.SelectedK = k
	return nil
}

// RunClustering clusters the loaded dataset into k segments and primes the
// session cache with the result.
func (c *Controller) RunClustering(ctx context.Context, k int) (*models.ClusterResult, error) {
	gen, err := c.start(EventRunClustering)
	if err != nil {
		return nil, err
	}
	defer c.end(EventRunClustering, gen)

	if k <= 0 {
		c.deps.Notifier.Notify(ui.LevelWarning, "Number of clusters must be a positive integer")
		return nil, ErrInvalidK
	}

	defer c.loading("Performing K-Means clustering...")()

	r := gateway.Call[models.ClusterEnvelope](ctx, c.deps.Caller, gateway.Request{
		Endpoint: gateway.Cluster,
		Body:     map[string]int{"n_clusters": k},
	})
	if !r.OK() {
		return nil, c.failed(EventRunClustering, "Clustering failed", r.Err)
	}
	res := r.Value.Result()
	if res.NClusters == 0 {
		res.NClusters = k
	}

	ok := c.commit(gen, func() {
		c.state = Clustered
		c.session.SelectedK = k
		c.session.LastClusterRun = &res
	})
	if !ok {
		return nil, c.superseded(EventRunClustering)
	}

	if err := c.deps.Cache.ReplaceResult(ctx, &res); err != nil {
		c.deps.Logger.Warn("caching cluster result failed", "tab", c.deps.Cache.TabID(), "error", err)
	}
	c.deps.Notifier.Notify(ui.LevelSuccess, "Clustering completed successfully!")
	return &res, nil
}

// ViewResults moves to the results view.
func (c *Controller) ViewResults() error {
	gen, err := c.start(EventViewResults)
	if err != nil {
		return err
	}
	defer c.end(EventViewResults, gen)

	c.commit(gen, func() { c.state = ResultsViewed })
	c.deps.Navigator.Navigate(PathResults)
	return nil
}

// Export asks the backend to write the clustered results to disk.
func (c *Controller) Export(ctx context.Context) (*models.ExportResult, error) {
	gen, err := c.start(EventExport)
	if err != nil {
		return nil, err
	}
	defer c.end(EventExport, gen)
	defer c.loading("Exporting results...")()

	r := gateway.Call[models.ExportResult](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.Export})
	if !r.OK() {
		return nil, c.failed(EventExport, "Export failed", r.Err)
	}
	c.deps.Notifier.Notify(ui.LevelSuccess, "Results exported successfully!")
	return &r.Value, nil
}

// Reset drops the analysis on the backend and returns to Empty after the
// user confirms. Calls still in flight will not commit afterwards.
func (c *Controller) Reset(ctx context.Context, confirm ui.Confirmer) error {
	if confirm == nil || !confirm.Confirm(ResetPrompt) {
		return ErrResetDeclined
	}
	gen, err := c.start(EventReset)
	if err != nil {
		return err
	}
	defer c.end(EventReset, gen)
	defer c.loading("Resetting analysis...")()

	r := gateway.Call[struct{}](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.Reset})
	if !r.OK() {
		return c.failed(EventReset, "Reset failed", r.Err)
	}

	c.mu.Lock()
	c.generation++
	c.state = Empty
	c.session = models.AnalysisSession{}
	c.mu.Unlock()

	c.deps.Presenter.Clear()
	c.deps.Notifier.Notify(ui.LevelSuccess, "Analysis reset. Redirecting...")
	c.deps.Navigator.Navigate(PathHome)
	return nil
}

// Save persists the active analysis on the backend.
func (c *Controller) Save(ctx context.Context) error {
	gen, err := c.start(EventSave)
	if err != nil {
		return err
	}
	defer c.end(EventSave, gen)
	defer c.loading("Saving analysis state...")()

	if err := c.deps.Bridge.Save(ctx); err != nil {
		return c.failed(EventSave, "Save failed", gateway.AsError(err))
	}
	c.deps.Notifier.Notify(ui.LevelSuccess, "Analysis state saved successfully!")
	return nil
}

// Restore re-activates the last saved analysis and enters DataLoaded.
func (c *Controller) Restore(ctx context.Context) (*models.RestoreOutcome, error) {
	gen, err := c.start(EventRestore)
	if err != nil {
		return nil, err
	}
	defer c.end(EventRestore, gen)
	defer c.loading("Restoring analysis state...")()

	out, err := c.deps.Bridge.Restore(ctx)
	if err != nil {
		return nil, c.failed(EventRestore, "Restore failed", gateway.AsError(err))
	}

	ok := c.commit(gen, func() {
		c.state = DataLoaded
		c.session = models.AnalysisSession{
			DataLoaded: true,
			Features:   slices.Clone(out.Features),
		}
		if len(out.Shape) > 0 {
			c.session.Rows = out.Shape[0]
		}
	})
	if !ok {
		return nil, c.superseded(EventRestore)
	}
	c.deps.Notifier.Notify(ui.LevelSuccess, "Analysis state restored successfully!")
	return out, nil
}

// History lists saved analyses. It never fails.
func (c *Controller) History(ctx context.Context) persistence.HistoryView {
	return c.deps.Bridge.History(ctx)
}

// Attach adopts the analysis the backend already holds, for a page that was
// not open when the data was loaded. Only an Empty page attaches; no notices
// are shown.
func (c *Controller) Attach(ctx context.Context) (State, error) {
	c.mu.Lock()
	state, gen := c.state, c.generation
	c.mu.Unlock()
	if state != Empty {
		return state, nil
	}

	r := gateway.Call[models.BackendStatus](ctx, c.deps.Caller, gateway.Request{Endpoint: gateway.Status, Bare: true})
	if !r.OK() {
		c.deps.Logger.Warn("reading backend status failed", "error", r.Err)
		return Empty, r.Err
	}

	next := Empty
	switch {
	case r.Value.ClustersPerformed:
		next = Clustered
	case r.Value.DataLoaded:
		next = DataLoaded
	}
	c.commit(gen, func() {
		if c.state != Empty {
			return
		}
		c.state = next
		c.session.DataLoaded = next != Empty
	})
	return c.State(), nil
}
