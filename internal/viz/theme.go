package viz

import (
	"fmt"
	"sort"
)

// ThemeName identifies a presentation theme.
type ThemeName string

const (
	Light  ThemeName = "light"
	Dark   ThemeName = "dark"
	Ocean  ThemeName = "ocean"
	Forest ThemeName = "forest"
)

// DefaultTheme is used when no valid preference exists.
const DefaultTheme = Light

// Font is a chart font.
type Font struct {
	Family string
	Size   int
	Color  string
}

// Theme is a named set of cosmetic attributes. It never carries data.
type Theme struct {
	Name ThemeName

	// Page palette.
	Primary    string
	Secondary  string
	Background string
	Text       string
	Accent     string
	Muted      string

	// Chart layout.
	PlotBG        string
	PaperBG       string
	GridColor     string
	ZeroLineColor string
	LegendBG      string
	Font          Font
}

const systemFont = `-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif`

var themes = map[ThemeName]Theme{
	Light: {
		Name:          Light,
		Primary:       "#2563eb",
		Secondary:     "#10b981",
		Background:    "#ffffff",
		Text:          "#1e293b",
		Accent:        "#f59e0b",
		Muted:         "#64748b",
		PlotBG:        "rgba(248, 250, 252, 0.5)",
		PaperBG:       "rgba(255, 255, 255, 0.9)",
		GridColor:     "rgba(226, 232, 240, 0.8)",
		ZeroLineColor: "rgba(148, 163, 184, 0.5)",
		LegendBG:      "rgba(255, 255, 255, 0.1)",
		Font:          Font{Family: systemFont, Size: 13, Color: "#1e293b"},
	},
	Dark: {
		Name:          Dark,
		Primary:       "#60a5fa",
		Secondary:     "#34d399",
		Background:    "#0f172a",
		Text:          "#f1f5f9",
		Accent:        "#fbbf24",
		Muted:         "#94a3b8",
		PlotBG:        "rgba(15, 23, 42, 0.5)",
		PaperBG:       "rgba(30, 41, 59, 0.9)",
		GridColor:     "rgba(51, 65, 85, 0.8)",
		ZeroLineColor: "rgba(100, 116, 139, 0.5)",
		LegendBG:      "rgba(15, 23, 42, 0.1)",
		Font:          Font{Family: systemFont, Size: 13, Color: "#f1f5f9"},
	},
	Ocean: {
		Name:          Ocean,
		Primary:       "#0369a1",
		Secondary:     "#06b6d4",
		Background:    "#f0f9ff",
		Text:          "#0c2340",
		Accent:        "#0ea5e9",
		Muted:         "#4b6a85",
		PlotBG:        "rgba(240, 249, 255, 0.5)",
		PaperBG:       "rgba(240, 249, 255, 0.9)",
		GridColor:     "rgba(186, 230, 253, 0.8)",
		ZeroLineColor: "rgba(125, 211, 252, 0.5)",
		LegendBG:      "rgba(240, 249, 255, 0.1)",
		Font:          Font{Family: systemFont, Size: 13, Color: "#0c2340"},
	},
	Forest: {
		Name:          Forest,
		Primary:       "#15803d",
		Secondary:     "#059669",
		Background:    "#f0fdf4",
		Text:          "#1b4332",
		Accent:        "#84cc16",
		Muted:         "#4d7c5f",
		PlotBG:        "rgba(240, 253, 244, 0.5)",
		PaperBG:       "rgba(240, 253, 244, 0.9)",
		GridColor:     "rgba(187, 247, 208, 0.8)",
		ZeroLineColor: "rgba(134, 239, 172, 0.5)",
		LegendBG:      "rgba(240, 253, 244, 0.1)",
		Font:          Font{Family: systemFont, Size: 13, Color: "#1b4332"},
	},
}

// LookupTheme returns the theme registered under name.
func LookupTheme(name ThemeName) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// MustTheme returns the named theme, falling back to the default theme.
func MustTheme(name ThemeName) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// ParseThemeName validates a theme name.
func ParseThemeName(s string) (ThemeName, error) {
	name := ThemeName(s)
	if _, ok := themes[name]; !ok {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return name, nil
}

// ThemeNames lists the available themes in a stable order.
func ThemeNames() []ThemeName {
	names := make([]ThemeName, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
