package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/cli"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
)

var flagLoadAppend bool

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a CSV or TSV trip file into storage",
	Long:  "Load a trip file, replacing stored trips unless --append is set. Without a file argument general.trip_file is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&flagLoadAppend, "append", false, "Keep existing trips instead of replacing them")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(_ *cobra.Command, args []string) error {
	path, err := tripFile(args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ready(ctx); err != nil {
		return err
	}
	_, err = loadTrips(ctx, s, path)
	return err
}

// tripFile picks the input path from args or the configured default.
func tripFile(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.General.TripFile != "" {
		return cfg.General.TripFile, nil
	}
	return "", errors.New("no trip file given and general.trip_file is not set")
}

func loadTrips(ctx context.Context, w pipeline.TripWriter, path string) (*pipeline.IngestResult, error) {
	progressf("  Loading %s\n", path)

	res, err := pipeline.Ingest(ctx, path, w, pipeline.IngestOptions{
		BatchSize: cfg.Ingest.BatchSize,
		Append:    flagLoadAppend,
		Progress: func(written int) {
			progressf("\r  Written %s trips", formatNumber(written))
		},
	})
	if err != nil {
		progressf("\n")
		return nil, err
	}

	progressf("\r  Loaded %s trips in %s (%d batches)    \n",
		formatNumber(res.Written), cli.FormatElapsed(res.Duration), res.Batches)
	if res.MissingZone > 0 {
		progressf("  %s\n", cli.RenderWarning(fmt.Sprintf("%d rows dropped without a pickup zone", res.MissingZone)))
	}
	if res.Malformed > 0 {
		progressf("  %s\n", cli.RenderWarning(fmt.Sprintf("%d malformed rows skipped", res.Malformed)))
	}
	if res.BadAmount > 0 {
		progressf("  %s\n", cli.RenderMuted(fmt.Sprintf("%d rows with a non-numeric amount", res.BadAmount)))
	}

	logger.Info("trips loaded",
		"path", path,
		"rows", res.Rows,
		"written", res.Written,
		"missing_zone", res.MissingZone,
		"malformed", res.Malformed,
		"bad_amount", res.BadAmount,
	)
	return res, nil
}
