package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", flagConfig)
	if config.Exists(flagConfig) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Driver:     %s\n", cfg.General.DBDriver)
	if cfg.General.DBDriver == config.DriverPostgres {
		fmt.Printf("    DSN:        %s\n", maskSecret(cfg.General.PostgresDSN))
	} else {
		fmt.Printf("    Database:   %s\n", cfg.General.DBPath)
	}
	if cfg.General.TripFile != "" {
		fmt.Printf("    Trip file:  %s\n", cfg.General.TripFile)
	}
	fmt.Printf("    Log level:  %s (json: %v)\n", cfg.General.LogLevel, cfg.General.LogJSON)
	fmt.Printf("    Theme:      %s\n", cfg.General.Theme)
	fmt.Println()

	fmt.Println("  [Weights]")
	fmt.Printf("    Exposure:   %.2f\n", cfg.Weights.Exposure)
	fmt.Printf("    Congestion: %.2f\n", cfg.Weights.Congestion)
	fmt.Printf("    Volatility: %.2f\n", cfg.Weights.Volatility)
	fmt.Println()

	fmt.Println("  [Ingest]")
	fmt.Printf("    Batch size: %s\n", formatNumber(cfg.Ingest.BatchSize))
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:    %s\n", cfg.Serve.Addr)
	fmt.Printf("    Schedule:   %s\n", cfg.Serve.Schedule)
	fmt.Printf("    Events:     %d\n", cfg.Serve.EventsBuffer)
	fmt.Printf("    Risk limit: %d\n", cfg.Serve.ReportLimit)
	fmt.Println()

	fmt.Println("  [Redis]")
	if cfg.Redis.URL != "" {
		fmt.Printf("    URL:        %s\n", maskSecret(cfg.Redis.URL))
		fmt.Printf("    Channel:    %s\n", cfg.Redis.Channel)
	} else {
		fmt.Println("    Notifications: not configured")
	}
	fmt.Println()

	fmt.Println("  Run `zonerisk setup` to reconfigure.")
	return nil
}

// maskSecret hides the password of a connection string. URL forms keep
// everything but the password; anything else is truncated.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	if strings.Contains(s, "password=") {
		fields := strings.Fields(s)
		for i, f := range fields {
			if strings.HasPrefix(f, "password=") {
				fields[i] = "password=xxxxx"
			}
		}
		return strings.Join(fields, " ")
	}
	if len(s) > 16 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return "****"
}
