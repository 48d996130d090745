package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/cli"
	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/report"
)

var (
	flagRiskLimit int
	flagRiskJSON  bool
)

var riskCmd = &cobra.Command{
	Use:   "risk [hour]",
	Short: "Show the riskiest zones for an hour of day",
	Long: `Show zones ranked by risk score for one hour (0-23). Defaults to hour 0.

An hour outside 0-23 is rejected. Pass a negative value after "--" so it is
not read as a flag, e.g. "zonerisk risk -- -1".`,
	Example: "  zonerisk risk 17\n  zonerisk risk 8 --limit 5 --json",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRisk,
}

func init() {
	riskCmd.Flags().IntVarP(&flagRiskLimit, "limit", "l", 20, "Rows to show (0 for all)")
	riskCmd.Flags().BoolVar(&flagRiskJSON, "json", false, "Print rows as JSON")
	rootCmd.AddCommand(riskCmd)
}

func runRisk(_ *cobra.Command, args []string) error {
	hour, err := riskHour(args)
	if err != nil {
		return err
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
	rep, err := report.ForHour(ctx, s, hour, flagRiskLimit)
	if err != nil {
		return err
	}

	if flagRiskJSON {
		return writeRiskJSON(rep)
	}
	printRiskReport(rep)
	return nil
}

// riskHour resolves the requested hour, defaulting to 0.
func riskHour(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	return report.ParseHour(args[0])
}

func printRiskReport(rep *report.HourReport) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ZONE RISK  %s", cli.FormatHour(rep.Hour))))
	fmt.Println()

	if rep.Total == 0 {
		fmt.Println("  No zones have trips in this hour.")
		fmt.Println("  Run `zonerisk compute` after loading trips.")
		return
	}

	rows := make([][]string, 0, len(rep.Rows))
	for i, r := range rep.Rows {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			zoneName(r),
			formatNumber(r.TripCount),
			cli.FormatScore(r.ExposureIndex),
			cli.FormatMinutes(r.AvgTripDurationMin),
			cli.FormatScore(r.CongestionIndex),
			cli.RenderRisk(r.RiskScore),
			cli.RenderScoreBar(r.RiskScore, 10),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "Zone", "Trips", "Exposure", "Avg Trip", "Congestion", "Risk", ""},
		Rows:    rows,
	}))

	if len(rep.Rows) < rep.Total {
		fmt.Printf("  %s\n", cli.RenderMuted(fmt.Sprintf("Showing %d of %d zones", len(rep.Rows), rep.Total)))
	}
}

func zoneName(r model.RiskRow) string {
	if r.ZoneName == "" {
		return fmt.Sprintf("%d", r.ZoneID)
	}
	return fmt.Sprintf("%d %s", r.ZoneID, r.ZoneName)
}

type riskJSONRow struct {
	ZoneID             int     `json:"zone_id"`
	Borough            string  `json:"borough,omitempty"`
	Zone               string  `json:"zone,omitempty"`
	Hour               int     `json:"hour"`
	TripCount          int     `json:"trip_count"`
	ExposureIndex      float64 `json:"exposure_index"`
	AvgTripDurationMin float64 `json:"avg_trip_duration_min"`
	CongestionIndex    float64 `json:"congestion_index"`
	RiskScore          float64 `json:"risk_score"`
}

func writeRiskJSON(rep *report.HourReport) error {
	out := struct {
		Hour  int           `json:"hour"`
		Total int           `json:"total"`
		Rows  []riskJSONRow `json:"rows"`
	}{Hour: rep.Hour, Total: rep.Total, Rows: make([]riskJSONRow, 0, len(rep.Rows))}

	for _, r := range rep.Rows {
		out.Rows = append(out.Rows, riskJSONRow{
			ZoneID:             r.ZoneID,
			Borough:            r.Borough,
			Zone:               r.ZoneName,
			Hour:               r.Hour,
			TripCount:          r.TripCount,
			ExposureIndex:      r.ExposureIndex,
			AvgTripDurationMin: r.AvgTripDurationMin,
			CongestionIndex:    r.CongestionIndex,
			RiskScore:          r.RiskScore,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
