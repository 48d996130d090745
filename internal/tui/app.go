// Package tui provides the interactive Bubble Tea browser for zone-hour risk.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/zonerisk/internal/cli"
	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/report"
	"github.com/theirongolddev/zonerisk/internal/tui/components"
	"github.com/theirongolddev/zonerisk/internal/tui/theme"
)

// DataLoadedMsg is sent when all 24 hours have been read from storage.
type DataLoadedMsg struct {
	Hours    [24][]model.RiskRow
	LoadedAt time.Time
	Err      error
}

type refreshTickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	querier report.Querier

	// Data
	hours    [24][]model.RiskRow
	profiles map[int][]float64 // zone -> risk score per hour
	loaded   bool
	loadedAt time.Time
	err      error

	// Auto-refresh state
	refreshInterval time.Duration
	reloading       bool

	// UI state
	width    int
	height   int
	hour     int
	showHelp bool
	table    table.Model
	spinner  spinner.Model
}

const (
	headerLines      = 2 // title + hour bar
	cardLines        = 4
	footerLines      = 3 // profile + status bar + margin
	minTableHeight   = 3
	defaultTableRows = 15
)

// NewApp creates a new browser reading from q, starting at hour.
// A refresh interval <= 0 disables auto-refresh.
func NewApp(q report.Querier, hour int, refresh time.Duration) App {
	if report.ValidateHour(hour) != nil {
		hour = 0
	}

	t := theme.Active
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(t.Accent)

	tbl := table.New(
		table.WithColumns(tableColumns(80)),
		table.WithFocused(true),
		table.WithHeight(defaultTableRows),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.Accent).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(false)
	tbl.SetStyles(styles)

	return App{
		querier:         q,
		hour:            hour,
		refreshInterval: refresh,
		table:           tbl,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		loadDataCmd(a.querier),
		a.spinner.Tick,
	}
	if a.refreshInterval > 0 {
		cmds = append(cmds, tickCmd(a.refreshInterval))
	}
	return tea.Batch(cmds...)
}

func loadDataCmd(q report.Querier) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg := DataLoadedMsg{LoadedAt: time.Now()}
		for h := 0; h < 24; h++ {
			rep, err := report.ForHour(ctx, q, h, 0)
			if err != nil {
				msg.Err = err
				return msg
			}
			msg.Hours[h] = rep.Rows
		}
		return msg
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeTable()
		return a, nil

	case DataLoadedMsg:
		a.reloading = false
		if msg.Err != nil {
			a.err = msg.Err
			a.loaded = true
			return a, nil
		}
		a.err = nil
		a.hours = msg.Hours
		a.profiles = buildProfiles(msg.Hours)
		a.loadedAt = msg.LoadedAt
		a.loaded = true
		a.syncTable()
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{tickCmd(a.refreshInterval)}
		if !a.reloading {
			a.reloading = true
			cmds = append(cmds, loadDataCmd(a.querier), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if a.loaded && !a.reloading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if !a.loaded || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return a, nil
		}
		if msg.Y == 1 {
			if h := components.HourAtX(msg.X); h >= 0 {
				a.setHour(h)
			}
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "?":
			a.showHelp = !a.showHelp
			return a, nil
		}
		if !a.loaded || a.showHelp {
			return a, nil
		}
		switch msg.String() {
		case "left", "h":
			a.setHour((a.hour + 23) % 24)
			return a, nil
		case "right", "l":
			a.setHour((a.hour + 1) % 24)
			return a, nil
		case "r":
			if a.reloading {
				return a, nil
			}
			a.reloading = true
			return a, tea.Batch(loadDataCmd(a.querier), a.spinner.Tick)
		}
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) setHour(h int) {
	a.hour = h
	a.syncTable()
}

func (a *App) resizeTable() {
	a.table.SetColumns(tableColumns(a.width))
	h := a.height - headerLines - cardLines - footerLines - 2
	if h < minTableHeight {
		h = minTableHeight
	}
	a.table.SetHeight(h)
	a.table.SetWidth(a.width)
}

func (a *App) syncTable() {
	rows := a.hours[a.hour]
	out := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		out = append(out, table.Row{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.ZoneID),
			zoneLabel(r),
			cli.FormatNumber(int64(r.TripCount)),
			cli.FormatScore(r.ExposureIndex),
			cli.FormatMinutes(r.AvgTripDurationMin),
			cli.FormatScore(r.RiskScore),
			cli.RenderScoreBar(r.RiskScore, 10),
		})
	}
	a.table.SetRows(out)
	a.table.SetCursor(0)
}

func tableColumns(width int) []table.Column {
	nameW := width - 4 - 6 - 8 - 9 - 8 - 7 - 10 - 16
	if nameW < 12 {
		nameW = 12
	}
	if nameW > 40 {
		nameW = 40
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Zone", Width: 6},
		{Title: "Name", Width: nameW},
		{Title: "Trips", Width: 8},
		{Title: "Exposure", Width: 9},
		{Title: "AvgDur", Width: 8},
		{Title: "Risk", Width: 7},
		{Title: "", Width: 10},
	}
}

func zoneLabel(r model.RiskRow) string {
	switch {
	case r.ZoneName != "" && r.Borough != "":
		return r.ZoneName + ", " + r.Borough
	case r.ZoneName != "":
		return r.ZoneName
	default:
		return "-"
	}
}

// buildProfiles pivots the hour tables into a 24-value risk series per zone.
func buildProfiles(hours [24][]model.RiskRow) map[int][]float64 {
	out := make(map[int][]float64)
	for h, rows := range hours {
		for _, r := range rows {
			p, ok := out[r.ZoneID]
			if !ok {
				p = make([]float64, 24)
				out[r.ZoneID] = p
			}
			p[h] = r.RiskScore
		}
	}
	return out
}

// selectedZone returns the zone under the table cursor.
func (a App) selectedZone() (model.RiskRow, bool) {
	rows := a.hours[a.hour]
	i := a.table.Cursor()
	if i < 0 || i >= len(rows) {
		return model.RiskRow{}, false
	}
	return rows[i], true
}

// View implements tea.Model.
func (a App) View() string {
	t := theme.Active

	if !a.loaded {
		return fmt.Sprintf("\n  %s Loading zone metrics...\n", a.spinner.View())
	}
	if a.err != nil {
		return lipgloss.NewStyle().Foreground(t.Red).Render(fmt.Sprintf("\n  Error: %v\n", a.err)) +
			lipgloss.NewStyle().Foreground(t.TextMuted).Render("\n  [r]eload  [q]uit\n")
	}
	if a.showHelp {
		return a.renderHelp()
	}

	width := a.width
	if width < 60 {
		width = 60
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(" zonerisk") +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render("  risk by zone for "+cli.FormatHour(a.hour))
	if a.reloading {
		title += "  " + a.spinner.View()
	}
	b.WriteString(title + "\n")

	var hasData [24]bool
	for h := range a.hours {
		hasData[h] = len(a.hours[h]) > 0
	}
	b.WriteString(components.RenderHourBar(a.hour, hasData) + "\n")
	b.WriteString(components.CardRow(a.summaryCards(), width) + "\n")

	if len(a.hours[a.hour]) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render("\n  No zones were active in this hour.\n"))
	} else {
		b.WriteString(a.table.View() + "\n")
	}

	if z, ok := a.selectedZone(); ok {
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render(fmt.Sprintf(" zone %d by hour ", z.ZoneID)))
		b.WriteString(components.Sparkline(a.profiles[z.ZoneID], a.hour) + "\n")
	}

	age := ""
	if !a.loadedAt.IsZero() {
		age = cli.FormatElapsed(time.Since(a.loadedAt).Truncate(time.Second)) + " ago"
	}
	b.WriteString(components.RenderStatusBar(width, age))
	return b.String()
}

func (a App) summaryCards() []components.Card {
	rows := a.hours[a.hour]
	var trips int
	var sum float64
	for _, r := range rows {
		trips += r.TripCount
		sum += r.RiskScore
	}

	cards := []components.Card{
		{Label: "Active zones", Value: cli.FormatNumber(int64(len(rows)))},
		{Label: "Trips", Value: cli.FormatNumber(int64(trips))},
		{Label: "Mean risk", Value: "-"},
		{Label: "Top risk", Value: "-"},
	}
	if len(rows) > 0 {
		cards[2].Value = cli.FormatScore(sum / float64(len(rows)))
		top := rows[0]
		cards[3].Value = cli.FormatScore(top.RiskScore)
		cards[3].Note = "zone " + strconv.Itoa(top.ZoneID)
	}
	return cards
}

func (a App) renderHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	keys := [][2]string{
		{"←/→  h/l", "previous / next hour (wraps)"},
		{"↑/↓  k/j", "move between zones"},
		{"click", "select an hour in the hour bar"},
		{"r", "reload from storage"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString("\n" + keyStyle.Render("  Keys") + "\n\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", k[0])), descStyle.Render(k[1])))
	}
	return b.String()
}
