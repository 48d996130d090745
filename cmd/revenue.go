package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/cli"
)

var (
	flagRevenueTop          int
	flagRevenueByVolatility bool
)

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Show per-zone revenue statistics",
	Args:  cobra.NoArgs,
	RunE:  runRevenue,
}

func init() {
	revenueCmd.Flags().IntVarP(&flagRevenueTop, "top", "n", 0, "Rows to show (0 for all)")
	revenueCmd.Flags().BoolVar(&flagRevenueByVolatility, "by-volatility", false, "Sort by volatility, highest first")
	rootCmd.AddCommand(revenueCmd)
}

func runRevenue(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ready(ctx); err != nil {
		return err
	}
	stats, err := s.RevenueStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ZONE REVENUE"))
	fmt.Println()

	if len(stats) == 0 {
		fmt.Println("  No revenue statistics yet. Run `zonerisk compute` first.")
		return nil
	}

	if flagRevenueByVolatility {
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].RevenueVolatility > stats[j].RevenueVolatility
		})
	}
	total := len(stats)
	if flagRevenueTop > 0 && len(stats) > flagRevenueTop {
		stats = stats[:flagRevenueTop]
	}

	var trips int
	rows := make([][]string, 0, len(stats)+2)
	for _, r := range stats {
		trips += r.TotalTrips
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ZoneID),
			formatNumber(r.TotalTrips),
			cli.FormatAmount(r.AvgRevenue),
			cli.FormatAmount(r.RevenueVolatility),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", formatNumber(trips), "", ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Zone", "Trips", "Avg Revenue", "Volatility"},
		Rows:    rows,
	}))
	if len(stats) < total {
		fmt.Printf("  %s\n", cli.RenderMuted(fmt.Sprintf("Showing %d of %d zones", len(stats), total)))
	}
	return nil
}
