package viz

import (
	"encoding/json"

	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// Spec is the final, theme-aware rendering of one chart.
type Spec struct {
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data"`
	Layout map[string]any  `json:"layout"`
	Config map[string]any  `json:"config"`
}

// Defaults are the titles substituted when the source layout has none.
type Defaults struct {
	Title  string
	XTitle string
	YTitle string
}

// Render maps a raw chart payload and a theme to a render spec. Data is
// passed through byte for byte. Only cosmetic layout attributes are replaced;
// existing titles are kept and missing ones get the defaults.
func Render(id string, p models.ChartPayload, th Theme, d Defaults) Spec {
	layout := copyMap(p.Layout)

	layout["title"] = themedTitle(layout["title"], d.Title, th)
	for axis, def := range map[string]string{"xaxis": d.XTitle, "yaxis": d.YTitle} {
		a := asMap(layout[axis])
		if titleText(a["title"]) == "" && def != "" {
			a["title"] = def
		}
		a["gridcolor"] = th.GridColor
		a["zerolinecolor"] = th.ZeroLineColor
		layout[axis] = a
	}

	layout["plot_bgcolor"] = th.PlotBG
	layout["paper_bgcolor"] = th.PaperBG
	layout["font"] = fontMap(th.Font, th.Font.Size)

	legend := asMap(layout["legend"])
	legend["bgcolor"] = th.LegendBG
	legend["bordercolor"] = th.GridColor
	layout["legend"] = legend

	data := p.Data
	if data == nil {
		data = json.RawMessage(`[]`)
	}

	return Spec{ID: id, Data: data, Layout: layout, Config: chartConfig()}
}

func themedTitle(src any, def string, th Theme) map[string]any {
	title := map[string]any{}
	switch v := src.(type) {
	case map[string]any:
		title = copyMap(v)
	case string:
		title["text"] = v
	}
	if titleText(title) == "" {
		title["text"] = def
	}
	title["font"] = fontMap(th.Font, 16)
	return title
}

func titleText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		s, _ := t["text"].(string)
		return s
	}
	return ""
}

func fontMap(f Font, size int) map[string]any {
	return map[string]any{"family": f.Family, "size": size, "color": f.Color}
}

func chartConfig() map[string]any {
	return map[string]any{
		"displayModeBar":         true,
		"modeBarButtonsToRemove": []any{"pan2d", "lasso2d", "select2d"},
		"displaylogo":            false,
		"responsive":             true,
		"toImageButtonOptions": map[string]any{
			"format":   "png",
			"filename": "customer_segmentation_chart",
			"height":   800,
			"width":    1200,
			"scale":    2,
		},
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return copyMap(m)
	}
	return map[string]any{}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
