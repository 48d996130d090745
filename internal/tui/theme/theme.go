// Package theme defines color themes for the zonerisk terminal browser.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds the color roles the browser draws with.
type Theme struct {
	Name string

	Background    lipgloss.Color
	SurfaceHover  lipgloss.Color // selected table row
	SurfaceBright lipgloss.Color // active hour cell
	Border        lipgloss.Color

	TextDim     lipgloss.Color // hours without data, hints
	TextMuted   lipgloss.Color // labels
	TextPrimary lipgloss.Color
	Accent      lipgloss.Color

	// Risk bands, lowest to highest.
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Orange lipgloss.Color
	Red    lipgloss.Color
}

// Risk band lower bounds on the 0-100 score scale.
const (
	ElevatedRisk = 30
	HighRisk     = 50
	SevereRisk   = 70
)

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    "#100F0F",
	SurfaceHover:  "#282726",
	SurfaceBright: "#343331",
	Border:        "#403E3C",
	TextDim:       "#575653",
	TextMuted:     "#878580",
	TextPrimary:   "#FFFCF0",
	Accent:        "#3AA99F",
	Green:         "#879A39",
	Yellow:        "#D0A215",
	Orange:        "#DA702C",
	Red:           "#D14D41",
}

// FlexokiLight is the paper-colored variant for light terminals.
var FlexokiLight = Theme{
	Name:          "flexoki-light",
	Background:    "#FFFCF0",
	SurfaceHover:  "#E6E4D9",
	SurfaceBright: "#DAD8CE",
	Border:        "#CECDC3",
	TextDim:       "#B7B5AC",
	TextMuted:     "#6F6E69",
	TextPrimary:   "#100F0F",
	Accent:        "#24837B",
	Green:         "#66800B",
	Yellow:        "#AD8301",
	Orange:        "#BC5215",
	Red:           "#AF3029",
}

// Terminal sticks to the ANSI 16 palette.
var Terminal = Theme{
	Name:          "terminal",
	Background:    "0",
	SurfaceHover:  "8",
	SurfaceBright: "8",
	Border:        "8",
	TextDim:       "8",
	TextMuted:     "7",
	TextPrimary:   "15",
	Accent:        "6",
	Green:         "2",
	Yellow:        "11",
	Orange:        "3",
	Red:           "1",
}

// All available themes.
var All = []Theme{FlexokiDark, FlexokiLight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the available theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// RiskColor maps a 0-100 risk score to its band color.
func (t Theme) RiskColor(score float64) lipgloss.Color {
	switch {
	case score >= SevereRisk:
		return t.Red
	case score >= HighRisk:
		return t.Orange
	case score >= ElevatedRisk:
		return t.Yellow
	default:
		return t.Green
	}
}
