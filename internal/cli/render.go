package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kiranshivaraju/segmentlens/internal/persistence"
	"github.com/kiranshivaraju/segmentlens/internal/reconcile"
	"github.com/kiranshivaraju/segmentlens/internal/ui"
	"github.com/kiranshivaraju/segmentlens/internal/viz"
)

const errorColor = "#ef4444"

var regionTitles = map[reconcile.RegionID]string{
	reconcile.RegionMetrics:         "Clustering Metrics",
	reconcile.RegionClusterAnalysis: "Cluster Analysis",
	reconcile.RegionRecommendations: "Recommendations",
	reconcile.RegionProfiles:        "Cluster Profiles",
	reconcile.RegionCharts:          "Visualizations",
	reconcile.RegionHeatmap:         "Correlation Heatmap",
}

// Renderer turns page content into terminal text styled with a theme palette.
type Renderer struct {
	theme viz.Theme

	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// NewRenderer builds the styles for th. Colors are dropped when w is not a
// terminal.
func NewRenderer(w io.Writer, th viz.Theme) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		theme:   th,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Primary)),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Secondary)),
		label:   r.NewStyle().Foreground(lipgloss.Color(th.Text)),
		value:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Accent)),
		muted:   r.NewStyle().Italic(true).Foreground(lipgloss.Color(th.Muted)),
		success: r.NewStyle().Foreground(lipgloss.Color(th.Secondary)),
		warning: r.NewStyle().Foreground(lipgloss.Color(th.Accent)),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color(errorColor)),
	}
}

// View renders the results view region by region. Regions without content
// show their placeholder muted.
func (r *Renderer) View(v reconcile.View) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Customer Segmentation Results"))
	b.WriteString("\n")
	b.WriteString(r.muted.Render("source: " + v.Source))
	b.WriteString("\n")

	for _, region := range v.Regions {
		b.WriteString("\n")
		b.WriteString(r.heading.Render(regionTitles[region.ID]))
		b.WriteString("\n")
		if !region.Ready() {
			b.WriteString("  " + r.muted.Render(region.Placeholder) + "\n")
			continue
		}
		for _, line := range r.regionLines(region) {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (r *Renderer) regionLines(region reconcile.Region) []string {
	var lines []string
	switch c := region.Content.(type) {
	case []reconcile.MetricCard:
		for _, m := range c {
			lines = append(lines, r.label.Render(m.Label+":")+" "+r.value.Render(m.Value))
		}
	case []reconcile.ClusterItem:
		for _, it := range c {
			lines = append(lines, fmt.Sprintf("%s %s",
				r.label.Render("Cluster "+it.ClusterID+":"),
				r.value.Render(fmt.Sprintf("%d customers (%.1f%%)", it.Size, it.Percentage))))
		}
	case []reconcile.Recommendation:
		for _, it := range c {
			lines = append(lines, r.label.Render("Cluster "+it.ClusterID+":")+" "+it.Text)
		}
	case []reconcile.ProfileItem:
		for _, it := range c {
			lines = append(lines, fmt.Sprintf("%s %s",
				r.label.Render("Cluster "+it.ClusterID+":"),
				r.value.Render(fmt.Sprintf("%d customers (%.1f%%)", it.Count, it.Percentage))))
			features := make([]string, 0, len(it.MeanValues))
			for f := range it.MeanValues {
				features = append(features, f)
			}
			slices.Sort(features)
			for _, f := range features {
				lines = append(lines, fmt.Sprintf("    %s %.2f", r.muted.Render(f), it.MeanValues[f]))
			}
		}
	case []viz.Spec:
		for _, s := range c {
			lines = append(lines, r.chartLine(s))
		}
	case viz.Spec:
		lines = append(lines, r.chartLine(c))
	}
	return lines
}

func (r *Renderer) chartLine(s viz.Spec) string {
	title := s.ID
	if t, ok := s.Layout["title"].(map[string]any); ok {
		if text, ok := t["text"].(string); ok && text != "" {
			title = text
		}
	}
	line := r.label.Render(title)
	if w, ok := s.Layout["width"].(int); ok {
		line += " " + r.muted.Render(fmt.Sprintf("(%dx%d)", w, w))
	}
	return line
}

// Notices renders transient notices, one per line.
func (r *Renderer) Notices(notices []ui.Notice) string {
	var b strings.Builder
	for _, n := range notices {
		style := r.label
		switch n.Level {
		case ui.LevelSuccess:
			style = r.success
		case ui.LevelWarning:
			style = r.warning
		case ui.LevelError:
			style = r.failure
		}
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}
	return b.String()
}

// History renders the saved analyses list.
func (r *Renderer) History(h persistence.HistoryView) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Saved Analyses"))
	b.WriteString("\n")
	if len(h.Entries) == 0 {
		b.WriteString("  " + r.muted.Render(h.Message) + "\n")
		return b.String()
	}
	for _, e := range h.Entries {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			r.label.Render(e.LastModified),
			r.muted.Render(fmt.Sprintf("%s, %d bytes", e.Path, e.SizeBytes))))
	}
	return b.String()
}

// Themes lists the theme names and marks current.
func (r *Renderer) Themes(names []viz.ThemeName, current viz.ThemeName) string {
	var b strings.Builder
	for _, n := range names {
		if n == current {
			b.WriteString(r.value.Render("* "+string(n)) + "\n")
			continue
		}
		b.WriteString("  " + r.label.Render(string(n)) + "\n")
	}
	return b.String()
}
