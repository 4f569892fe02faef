// Package reconcile assembles the results view from a live response, the
// session cache and independent chart fetches. Every region degrades to a
// named placeholder on its own.
package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// LoadingText is shown while the results view loads.
const LoadingText = "Generating visualizations..."

// SourceNone marks a view where no source succeeded.
const SourceNone = "none"

// Deps holds the collaborators of a Reconciler. Sources defaults to
// [live, cache] built from Caller and Cache.
type Deps struct {
	Caller    gateway.Caller
	Cache     *cache.SessionCache
	Presenter *viz.Presenter
	Indicator ui.Indicator
	Logger    *slog.Logger
	Sources   []Source
}

// Reconciler runs once per results-view entry. It does not depend on a
// workflow controller, so a hard reload still renders.
type Reconciler struct {
	caller    gateway.Caller
	presenter *viz.Presenter
	indicator ui.Indicator
	logger    *slog.Logger
	sources   []Source
}

// New creates a Reconciler.
func New(deps Deps) *Reconciler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	sources := deps.Sources
	if sources == nil {
		sources = []Source{
			NewLiveSource(deps.Caller, deps.Cache, deps.Logger),
			NewCacheSource(deps.Cache),
		}
	}
	return &Reconciler{
		caller:    deps.Caller,
		presenter: deps.Presenter,
		indicator: deps.Indicator,
		logger:    deps.Logger,
		sources:   sources,
	}
}

// Load fetches and assembles the results view. The textual, chart and
// heatmap branches run concurrently and never block one another.
func (r *Reconciler) Load(ctx context.Context) View {
	if r.indicator != nil {
		r.indicator.Show(LoadingText)
		defer r.indicator.Hide()
	}

	var (
		wg      sync.WaitGroup
		result  models.ClusterResult
		source  string
		charts  []viz.Spec
		heatmap *viz.Spec
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		result, source = r.textual(ctx)
	}()
	go func() {
		defer wg.Done()
		charts = r.charts(ctx)
	}()
	go func() {
		defer wg.Done()
		heatmap = r.heatmap(ctx)
	}()
	wg.Wait()

	return View{
		Source: source,
		Regions: []Region{
			metricsRegion(result.Metrics),
			analysisRegion(result.ClusterAnalysis),
			recommendationsRegion(result.Recommendations),
			profilesRegion(result.ClusterProfiles),
			chartsRegion(charts),
			heatmapRegion(heatmap),
		},
	}
}

// textual walks the ordered sources and returns the first success.
func (r *Reconciler) textual(ctx context.Context) (models.ClusterResult, string) {
	for _, src := range r.sources {
		res, err := src.Fetch(ctx)
		if err != nil {
			r.logger.Warn("results source failed, falling back",
				"source", src.Name(),
				"error", err,
			)
			continue
		}
		r.logger.Debug("results source selected", "source", src.Name())
		return res, src.Name()
	}
	return models.ClusterResult{}, SourceNone
}

func (r *Reconciler) charts(ctx context.Context) []viz.Spec {
	res := gateway.Call[models.Visualizations](ctx, r.caller, gateway.Request{Endpoint: gateway.Visualizations})
	if !res.OK() {
		r.logger.Warn("loading visualizations failed", "kind", res.Err.Kind, "error", res.Err.Message)
		return nil
	}

	var specs []viz.Spec
	if p := res.Value.Scatter; p != nil {
		specs = append(specs, r.presenter.Mount(viz.ChartScatter, *p, viz.ScatterDefaults))
	}
	if p := res.Value.Distribution; p != nil {
		specs = append(specs, r.presenter.Mount(viz.ChartDistribution, *p, viz.DistributionDefaults))
	}
	return specs
}

func (r *Reconciler) heatmap(ctx context.Context) *viz.Spec {
	res := gateway.Call[models.CorrelationMatrix](ctx, r.caller, gateway.Request{Endpoint: gateway.CorrelationMatrix})
	if !res.OK() {
		r.logger.Warn("loading correlation matrix failed", "kind", res.Err.Kind, "error", res.Err.Message)
		return nil
	}
	if len(res.Value.Features) == 0 {
		return nil
	}

	payload, err := viz.HeatmapPayload(res.Value)
	if err != nil {
		r.logger.Warn("building heatmap failed", "error", err)
		return nil
	}
	spec := r.presenter.Mount(viz.ChartHeatmap, payload, viz.HeatmapDefaults)
	return &spec
}
