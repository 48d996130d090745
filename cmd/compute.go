package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/cli"
	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
)

var flagComputeTop int

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Recompute zone-hour risk metrics from stored trips",
	Args:  cobra.NoArgs,
	RunE:  runCompute,
}

func init() {
	computeCmd.Flags().IntVar(&flagComputeTop, "top", 10, "Riskiest zone-hours to list")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return computeMetrics(ctx, s)
}

func computeMetrics(ctx context.Context, s pipeline.Store) error {
	engine, err := pipeline.NewEngine(s, cfg.Weights, logger)
	if err != nil {
		return err
	}

	progressf("  Computing metrics...\n")
	res, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	printRunSummary(res)
	return nil
}

func printRunSummary(res *pipeline.RunResult) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("ZONE RISK  Compute run"))
	fmt.Println()

	rows := [][]string{
		{"Trips read", formatNumber(res.TripsRead)},
		{"Zone-hours", formatNumber(len(res.Metrics))},
		{"Revenue zones", formatNumber(len(res.Revenue))},
		{"---"},
		{"Unparsable pickups", formatNumber(res.SkippedPickups)},
		{"Missing durations", formatNumber(res.MissingDurations)},
		{"Invalid amounts", formatNumber(res.InvalidAmounts)},
		{"---"},
		{"Elapsed", cli.FormatElapsed(res.Duration)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(res.Metrics) == 0 {
		fmt.Println("\n  No trips with a usable pickup time. Nothing was scored.")
		return
	}

	hourly := hourlyTrips(res.Metrics)
	fmt.Println()
	fmt.Printf("  Trips by hour  %s\n", cli.RenderSparkline(hourly[:]))
	fmt.Printf("  %s\n", cli.RenderMuted("               00    06    12    18   23"))

	top := topMetrics(res.Metrics, flagComputeTop)
	if len(top) == 0 {
		return
	}
	fmt.Println()
	tableRows := make([][]string, 0, len(top))
	for _, m := range top {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", m.ZoneID),
			cli.FormatHour(m.Hour),
			formatNumber(m.TripCount),
			cli.FormatScore(m.ExposureIndex),
			cli.FormatMinutes(m.AvgTripDurationMin),
			cli.RenderRisk(m.RiskScore),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Riskiest zone-hours",
		Headers: []string{"Zone", "Hour", "Trips", "Exposure", "Avg Trip", "Risk"},
		Rows:    tableRows,
	}))
}

func hourlyTrips(metrics []model.ZoneHourMetric) [24]float64 {
	var out [24]float64
	for _, m := range metrics {
		out[m.Hour] += float64(m.TripCount)
	}
	return out
}

// topMetrics returns the n highest risk rows, ties broken by zone then hour.
func topMetrics(metrics []model.ZoneHourMetric, n int) []model.ZoneHourMetric {
	if n <= 0 {
		return nil
	}
	sorted := make([]model.ZoneHourMetric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RiskScore > sorted[j].RiskScore
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
