package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/zonerisk/internal/tui/theme"
)

// HourCellWidth is the rendered width of one hour label, separator included.
const HourCellWidth = 3

// RenderHourBar renders the 24 hours of the day with the active one
// highlighted. Hours without data are dimmed.
func RenderHourBar(active int, hasData [24]bool) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Bold(true)
	dataStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	b.WriteString(" ")
	for h := 0; h < 24; h++ {
		label := fmt.Sprintf("%02d", h)
		switch {
		case h == active:
			b.WriteString(activeStyle.Render(label))
		case hasData[h]:
			b.WriteString(dataStyle.Render(label))
		default:
			b.WriteString(emptyStyle.Render(label))
		}
		if h < 23 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// HourAtX returns the hour under column x of a rendered hour bar, or -1.
func HourAtX(x int) int {
	x-- // leading space
	if x < 0 {
		return -1
	}
	h := x / HourCellWidth
	if h > 23 || x%HourCellWidth == 2 {
		return -1
	}
	return h
}

// Sparkline renders one block per value against a fixed 0-100 scale,
// highlighting the value at index mark.
func Sparkline(values []float64, mark int) string {
	t := theme.Active
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for i, v := range values {
		idx := int(v / 100 * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		style := lipgloss.NewStyle().Foreground(t.RiskColor(v))
		if i == mark {
			style = style.Background(t.SurfaceBright)
		}
		b.WriteString(style.Render(string(blocks[idx])))
	}
	return b.String()
}
