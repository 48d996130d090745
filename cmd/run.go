package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Provision storage, load a trip file and compute metrics",
	Long:  "Run the full pipeline: init, load and compute. Without a file argument general.trip_file is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&flagLoadAppend, "append", false, "Keep existing trips instead of replacing them")
	runCmd.Flags().IntVar(&flagComputeTop, "top", 10, "Riskiest zone-hours to list")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(_ *cobra.Command, args []string) error {
	path, err := tripFile(args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Init(ctx); err != nil {
		return err
	}
	progressf("  Storage ready: %s\n", storeLabel())

	if _, err := loadTrips(ctx, s, path); err != nil {
		return err
	}
	return computeMetrics(ctx, s)
}
