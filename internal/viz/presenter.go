package viz

import (
	"sync"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

type mounted struct {
	payload  models.ChartPayload
	defaults Defaults
}

// Presenter keeps the raw payload of every mounted chart so a theme change
// can recompute layouts without fetching data again.
type Presenter struct {
	mu     sync.Mutex
	theme  Theme
	charts map[string]mounted
	order  []string
}

// NewPresenter creates a Presenter rendering with th.
func NewPresenter(th Theme) *Presenter {
	return &Presenter{theme: th, charts: make(map[string]mounted)}
}

// Theme returns the active theme.
func (p *Presenter) Theme() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// Mount stores payload under id, replacing any previous chart there, and
// returns its spec for the active theme.
func (p *Presenter) Mount(id string, payload models.ChartPayload, d Defaults) Spec {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.charts[id]; !exists {
		p.order = append(p.order, id)
	}
	p.charts[id] = mounted{payload: payload, defaults: d}
	return Render(id, payload, p.theme, d)
}

// Unmount drops the chart stored under id.
func (p *Presenter) Unmount(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.charts[id]; !exists {
		return
	}
	delete(p.charts, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// SetTheme switches the active theme and re-renders every mounted chart.
func (p *Presenter) SetTheme(th Theme) []Spec {
	p.mu.Lock()
	p.theme = th
	p.mu.Unlock()
	return p.Specs()
}

// Spec returns the current spec of one chart.
func (p *Presenter) Spec(id string) (Spec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.charts[id]
	if !ok {
		return Spec{}, false
	}
	return Render(id, m.payload, p.theme, m.defaults), true
}

// Specs renders every mounted chart in mount order.
func (p *Presenter) Specs() []Spec {
	p.mu.Lock()
	defer p.mu.Unlock()
	specs := make([]Spec, 0, len(p.order))
	for _, id := range p.order {
		m := p.charts[id]
		specs = append(specs, Render(id, m.payload, p.theme, m.defaults))
	}
	return specs
}

// Clear unmounts every chart.
func (p *Presenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charts = make(map[string]mounted)
	p.order = nil
}
