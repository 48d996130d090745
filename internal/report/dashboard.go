package report

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/zonerisk/internal/model"
)

// HighRiskScore is the score at or above which a zone-hour counts as high risk.
const HighRiskScore = 50.0

// ErrZoneNotFound is returned when a zone has no metrics in the requested hour.
var ErrZoneNotFound = errors.New("zone has no metrics for this hour")

// Store is the read surface the dashboard views need.
type Store interface {
	Querier
	TripCount(ctx context.Context) (int, error)
	RevenueStats(ctx context.Context) ([]model.ZoneRevenueStat, error)
}

// HourTotal is the trip volume of one hour of day across all zones.
type HourTotal struct {
	Hour  int
	Trips int
	Zones int
}

// Overview summarizes the latest run for a dashboard header.
type Overview struct {
	TotalTrips        int
	HighRiskZones     int // distinct zones with any hour at or above HighRiskScore
	PeakExposureHour  int // hour with the most bucketed trips; 0 when none
	RevenueVolatility float64
}

// ZoneDetail is one zone's metrics for an hour plus its revenue profile.
type ZoneDetail struct {
	model.RiskRow
	Revenue *model.ZoneRevenueStat // nil when the zone has no revenue row
}

func eachHour(ctx context.Context, q Querier, fn func(hour int, rows []model.RiskRow)) error {
	for hour := 0; hour < 24; hour++ {
		rows, err := q.RiskByHour(ctx, hour)
		if err != nil {
			return fmt.Errorf("querying hour %d: %w", hour, err)
		}
		fn(hour, rows)
	}
	return nil
}

// Hourly returns one entry per hour of day, zero-filled.
func Hourly(ctx context.Context, q Querier) ([]HourTotal, error) {
	out := make([]HourTotal, 24)
	err := eachHour(ctx, q, func(hour int, rows []model.RiskRow) {
		out[hour] = HourTotal{Hour: hour, Zones: len(rows)}
		for _, r := range rows {
			out[hour].Trips += r.TripCount
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BuildOverview computes the dashboard headline figures. The volatility
// score is the mean revenue volatility across zones.
func BuildOverview(ctx context.Context, s Store) (*Overview, error) {
	total, err := s.TripCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting trips: %w", err)
	}

	ov := &Overview{TotalTrips: total}
	highRisk := make(map[int]struct{})
	peakTrips := 0
	err = eachHour(ctx, s, func(hour int, rows []model.RiskRow) {
		trips := 0
		for _, r := range rows {
			trips += r.TripCount
			if r.RiskScore >= HighRiskScore {
				highRisk[r.ZoneID] = struct{}{}
			}
		}
		if trips > peakTrips {
			peakTrips = trips
			ov.PeakExposureHour = hour
		}
	})
	if err != nil {
		return nil, err
	}
	ov.HighRiskZones = len(highRisk)

	revenue, err := s.RevenueStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading revenue: %w", err)
	}
	if len(revenue) > 0 {
		vols := make([]float64, len(revenue))
		for i, r := range revenue {
			vols[i] = r.RevenueVolatility
		}
		ov.RevenueVolatility = stat.Mean(vols, nil)
	}
	return ov, nil
}

// ForZone returns the metrics of one zone in one hour. The hour is
// validated before storage is touched.
func ForZone(ctx context.Context, s Store, zoneID, hour int) (*ZoneDetail, error) {
	if err := ValidateHour(hour); err != nil {
		return nil, err
	}
	rows, err := s.RiskByHour(ctx, hour)
	if err != nil {
		return nil, fmt.Errorf("querying hour %d: %w", hour, err)
	}
	i := slices.IndexFunc(rows, func(r model.RiskRow) bool { return r.ZoneID == zoneID })
	if i < 0 {
		return nil, fmt.Errorf("%w: zone %d hour %d", ErrZoneNotFound, zoneID, hour)
	}

	detail := &ZoneDetail{RiskRow: rows[i]}
	revenue, err := s.RevenueStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading revenue: %w", err)
	}
	if j := slices.IndexFunc(revenue, func(r model.ZoneRevenueStat) bool { return r.ZoneID == zoneID }); j >= 0 {
		detail.Revenue = &revenue[j]
	}
	return detail, nil
}

// RevenueRanking returns revenue rows, most volatile first. A limit <= 0
// returns every row.
func RevenueRanking(ctx context.Context, s Store, limit int) ([]model.ZoneRevenueStat, error) {
	revenue, err := s.RevenueStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading revenue: %w", err)
	}
	slices.SortStableFunc(revenue, func(a, b model.ZoneRevenueStat) int {
		if c := cmp.Compare(b.RevenueVolatility, a.RevenueVolatility); c != 0 {
			return c
		}
		return cmp.Compare(a.ZoneID, b.ZoneID)
	})
	if limit > 0 && len(revenue) > limit {
		revenue = revenue[:limit]
	}
	return revenue, nil
}
