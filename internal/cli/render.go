package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flexoki Dark palette for plain CLI output.
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorYellow    = lipgloss.Color("#D0A215")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	ruleStyle   = lipgloss.NewStyle().Foreground(ColorTextDim)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)

	riskBands = []struct {
		min   float64
		style lipgloss.Style
	}{
		{70, lipgloss.NewStyle().Foreground(ColorRed).Bold(true)},
		{50, lipgloss.NewStyle().Foreground(ColorOrange)},
		{30, lipgloss.NewStyle().Foreground(ColorYellow)},
		{0, lipgloss.NewStyle().Foreground(ColorGreen)},
	}
)

// Table represents a bordered text table for CLI output.
// A row holding the single cell "---" renders as a separator line.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return box.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left-aligned,
// the rest right-aligned. Widths are measured in terminal cells, so cells
// may carry their own styling.
func RenderTable(t Table) string {
	widths := columnWidths(t)
	if len(widths) == 0 {
		return ""
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(tableRow(widths, t.Headers, headerStyle))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(tableRow(widths, row, valueStyle))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))
	return b.String()
}

func columnWidths(t Table) []int {
	n := len(t.Headers)
	if n == 0 {
		for _, row := range t.Rows {
			if len(row) > n && !(len(row) == 1 && row[0] == "---") {
				n = len(row)
			}
		}
	}
	if n == 0 {
		return nil
	}

	widths := make([]int, n)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	measure := func(cells []string) {
		for i, c := range cells {
			if i < n {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	return widths
}

func rule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return ruleStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

func tableRow(widths []int, cells []string, style lipgloss.Style) string {
	bar := ruleStyle.Render("│")
	var b strings.Builder
	b.WriteString(bar)
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		gap := strings.Repeat(" ", max(0, w-lipgloss.Width(cell)))
		if i == 0 {
			cell += gap
		} else {
			cell = gap + cell
		}
		b.WriteString(style.Render(" " + cell + " "))
		b.WriteString(bar)
	}
	b.WriteString("\n")
	return b.String()
}

// RenderSparkline draws values as unicode blocks scaled to the series max.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune("▁▂▃▄▅▆▇█")
	top := values[0]
	for _, v := range values[1:] {
		top = max(top, v)
	}
	if top <= 0 {
		top = 1
	}

	out := make([]rune, len(values))
	for i, v := range values {
		idx := int(v / top * float64(len(blocks)-1))
		out[i] = blocks[min(max(idx, 0), len(blocks)-1)]
	}
	return string(out)
}

// RenderScoreBar renders a 0-100 score as a bar of exactly width cells.
func RenderScoreBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	n := min(max(int(score/100*float64(width)), 0), width)
	return strings.Repeat("█", n) + strings.Repeat("·", width-n)
}

// RiskStyle picks the color band for a risk score.
func RiskStyle(score float64) lipgloss.Style {
	for _, band := range riskBands {
		if score >= band.min {
			return band.style
		}
	}
	return riskBands[len(riskBands)-1].style
}

// RenderRisk renders a score in its risk color.
func RenderRisk(score float64) string {
	return RiskStyle(score).Render(FormatScore(score))
}

// RenderMuted renders secondary text.
func RenderMuted(s string) string {
	return mutedStyle.Render(s)
}

// RenderWarning renders a warning line.
func RenderWarning(s string) string {
	return warnStyle.Render(s)
}
