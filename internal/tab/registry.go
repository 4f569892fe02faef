// Package tab keeps one page worth of state per browser tab: the workflow
// controller, the chart presenter, the recorded notices and the tab's
// session cache.
package tab

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/persistence"
	"github.com/kiranshivaraju/segmentlens/internal/reconcile"
	"github.com/kiranshivaraju/segmentlens/internal/theme"
	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/internal/workflow"
)

// Page is the state of one open tab.
type Page struct {
	TabID      string
	ClientID   string
	Controller *workflow.Controller
	Reconciler *reconcile.Reconciler
	Presenter  *viz.Presenter
	UI         *ui.Recorder
	Cache      *cache.SessionCache

	mu       sync.Mutex
	lastSeen time.Time
}

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

// LastSeen is when the page was last used.
func (p *Page) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// Deps holds what every page is built from.
type Deps struct {
	Caller     gateway.Caller
	Cache      cache.Cache
	Themes     *theme.Service
	SessionTTL time.Duration
	// MaxPages bounds the registry. Opening a new tab beyond it drops the
	// least recently used page. Zero means unbounded.
	MaxPages int
	Logger   *slog.Logger
}

// Registry maps tab IDs to pages.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu    sync.Mutex
	pages map[string]*Page
}

// NewRegistry creates an empty Registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{deps: deps, now: time.Now, pages: make(map[string]*Page)}
}

// Open loads a fresh page for the tab, as a browser does on navigation.
// The workflow starts Empty; the session cache of the tab is kept.
func (r *Registry) Open(ctx context.Context, tabID, clientID string) *Page {
	p := r.build(ctx, tabID, clientID)

	r.mu.Lock()
	if _, exists := r.pages[tabID]; !exists && r.deps.MaxPages > 0 && len(r.pages) >= r.deps.MaxPages {
		r.evictOldest()
	}
	r.pages[tabID] = p
	r.mu.Unlock()

	r.deps.Logger.Debug("page opened", "tab_id", tabID, "theme", p.Presenter.Theme().Name)
	return p
}

// Get returns the tab's page, opening one if the tab has none.
func (r *Registry) Get(ctx context.Context, tabID, clientID string) *Page {
	r.mu.Lock()
	p, ok := r.pages[tabID]
	r.mu.Unlock()
	if !ok {
		return r.Open(ctx, tabID, clientID)
	}
	p.touch(r.now())
	return p
}

// Close drops the tab's page.
func (r *Registry) Close(tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pages, tabID)
}

// ForClient returns every open page of the client.
func (r *Registry) ForClient(clientID string) []*Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pages []*Page
	for _, p := range r.pages {
		if p.ClientID == clientID {
			pages = append(pages, p)
		}
	}
	return pages
}

// ApplyTheme switches every open page of the client to th. The theme is a
// client-wide preference, so sibling tabs follow a toggle in any of them.
func (r *Registry) ApplyTheme(clientID string, th viz.Theme) {
	for _, p := range r.ForClient(clientID) {
		p.Presenter.SetTheme(th)
	}
}

// Len returns the number of open pages.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep drops pages idle for longer than idle and returns how many it removed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, p := range r.pages {
		if p.LastSeen().Before(cutoff) {
			delete(r.pages, id)
			removed++
		}
	}
	return removed
}

// evictOldest drops the least recently used page. r.mu must be held.
func (r *Registry) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, p := range r.pages {
		if seen := p.LastSeen(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(r.pages, oldestID)
		r.deps.Logger.Debug("page evicted", "tab_id", oldestID)
	}
}

func (r *Registry) build(ctx context.Context, tabID, clientID string) *Page {
	th := viz.MustTheme(viz.DefaultTheme)
	if r.deps.Themes != nil {
		th = r.deps.Themes.Current(ctx, clientID)
	}

	rec := ui.NewRecorder()
	presenter := viz.NewPresenter(th)
	sc := cache.NewSessionCache(r.deps.Cache, tabID, r.deps.SessionTTL)
	logger := r.deps.Logger.With("tab_id", tabID)

	return &Page{
		TabID:    tabID,
		ClientID: clientID,
		Controller: workflow.New(workflow.Deps{
			Caller:    r.deps.Caller,
			Cache:     sc,
			Presenter: presenter,
			Bridge:    persistence.NewBridge(r.deps.Caller, logger),
			Notifier:  rec,
			Indicator: rec,
			Navigator: rec,
			Logger:    logger,
		}),
		Reconciler: reconcile.New(reconcile.Deps{
			Caller:    r.deps.Caller,
			Cache:     sc,
			Presenter: presenter,
			Indicator: rec,
			Logger:    logger,
		}),
		Presenter: presenter,
		UI:        rec,
		Cache:     sc,
		lastSeen:  r.now(),
	}
}
