package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/report"
	"github.com/theirongolddev/zonerisk/internal/tui"
	"github.com/theirongolddev/zonerisk/internal/tui/theme"
)

var (
	flagTUIHour    int
	flagTUIRefresh time.Duration
	flagTUITheme   string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse zone risk by hour in an interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&flagTUIHour, "hour", -1, "Initial hour (default current local hour)")
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", 0, "Reload interval, e.g. 1m (0 disables)")
	tuiCmd.Flags().StringVar(&flagTUITheme, "theme", "", "Color theme (default general.theme)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	hour := time.Now().Hour()
	if flagTUIHour >= 0 {
		if err := report.ValidateHour(flagTUIHour); err != nil {
			return err
		}
		hour = flagTUIHour
	}

	ctx := context.Background()
	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ready(ctx); err != nil {
		return err
	}

	name := cfg.General.Theme
	if flagTUITheme != "" {
		name = flagTUITheme
	}
	theme.SetActive(name)

	// Force TrueColor so background styling renders even when the
	// terminal profile is not detected.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(s, hour, flagTUIRefresh)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
