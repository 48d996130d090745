// Package components provides reusable widgets for the zonerisk browser.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/zonerisk/internal/tui/theme"
)

// Card is one labeled figure in a card row.
type Card struct {
	Label string
	Value string
	Note  string
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// MetricCard renders a small bordered card. outerWidth includes the border.
func MetricCard(c Card, valueColor lipgloss.Color, outerWidth int) string {
	t := theme.Active

	contentWidth := outerWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(contentWidth).
		Padding(0, 1)

	content := lipgloss.NewStyle().Foreground(t.TextMuted).Render(c.Label) + "\n" +
		lipgloss.NewStyle().Foreground(valueColor).Bold(true).Render(c.Value)
	if c.Note != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render(c.Note)
	}
	return cardStyle.Render(content)
}

// CardRow renders cards side by side, summing to exactly totalWidth.
func CardRow(cards []Card, totalWidth int) string {
	if len(cards) == 0 {
		return ""
	}
	t := theme.Active
	widths := LayoutRow(totalWidth, len(cards))

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = MetricCard(c, t.TextPrimary, widths[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
