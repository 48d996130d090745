package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/pipeline"
)

var zonesCmd = &cobra.Command{
	Use:   "zones <file>",
	Short: "Load the taxi zone lookup table",
	Long:  "Load a LocationID,Borough,Zone,service_zone CSV so risk reports can show zone names.",
	Args:  cobra.ExactArgs(1),
	RunE:  runZones,
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}

func runZones(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ready(ctx); err != nil {
		return err
	}
	n, err := pipeline.LoadZones(ctx, args[0], s)
	if err != nil {
		return err
	}
	fmt.Printf("  Loaded %s zones from %s\n", formatNumber(n), args[0])
	return nil
}
