// Package cmd implements the zonerisk CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/cli"
	"github.com/theirongolddev/zonerisk/internal/config"
	"github.com/theirongolddev/zonerisk/internal/logging"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
	"github.com/theirongolddev/zonerisk/internal/report"
	"github.com/theirongolddev/zonerisk/internal/store"
	"github.com/theirongolddev/zonerisk/internal/store/pgstore"
)

var (
	flagConfig   string
	flagDriver   string
	flagDB       string
	flagDSN      string
	flagQuiet    bool
	flagLogLevel string
	flagLogJSON  bool
)

// Populated by loadConfig before any command runs.
var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zonerisk",
	Short: "Zone-hour taxi risk metrics",
	Long:  "Load taxi trip records and compute per zone, per hour exposure, congestion and revenue volatility risk scores.",

	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.Path(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "Storage driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "PostgreSQL connection string")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON")
}

// loadConfig reads the config file, applies flag overrides and builds the
// process logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDriver != "" {
		loaded.General.DBDriver = flagDriver
	}
	if flagDB != "" {
		loaded.General.DBPath = flagDB
	}
	if flagDSN != "" {
		loaded.General.PostgresDSN = flagDSN
	}
	if flagLogLevel != "" {
		loaded.General.LogLevel = flagLogLevel
	}
	if flagLogJSON {
		loaded.General.LogJSON = true
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	logger = logging.New(os.Stderr, cfg.General.LogLevel, cfg.General.LogJSON)
	return nil
}

// storage is the full storage surface the commands drive. Both the SQLite
// and PostgreSQL stores satisfy it.
type storage interface {
	pipeline.Store
	pipeline.TripWriter
	pipeline.ZoneWriter
	report.Store
	Init(ctx context.Context) error
	Close() error
}

var (
	_ storage = (*store.Store)(nil)
	_ storage = (*pgstore.Store)(nil)
)

// openStore opens the configured backend. With create unset, a missing
// SQLite file is reported as store.ErrMissingPrerequisite instead of
// being created.
func openStore(ctx context.Context, create bool) (storage, error) {
	if cfg.General.DBDriver == config.DriverPostgres {
		pg, err := pgstore.Open(ctx, cfg.General.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	open := store.OpenExisting
	if create {
		open = store.Open
	}
	s, err := open(cfg.General.DBPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// storeLabel describes the configured backend without leaking credentials.
func storeLabel() string {
	if cfg.General.DBDriver == config.DriverPostgres {
		return "postgres " + maskSecret(cfg.General.PostgresDSN)
	}
	return "sqlite " + cfg.General.DBPath
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

func formatNumber(n int) string {
	return cli.FormatNumber(int64(n))
}
