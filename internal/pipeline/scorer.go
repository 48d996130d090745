package pipeline

import (
	"math"

	"github.com/theirongolddev/zonerisk/internal/config"
	"github.com/theirongolddev/zonerisk/internal/model"
)

// RiskScore combines the three normalized signals and rounds to 4 decimals.
func RiskScore(w config.Weights, exposure, congestionNorm, volatilityNorm float64) float64 {
	score := w.Exposure*exposure + w.Congestion*congestionNorm + w.Volatility*volatilityNorm
	return roundTo(score, 4)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// ScoreZoneHours builds the output rows, one per bucket, ordered by
// (zone, hour). Congestion is normalized across all buckets; volatility is
// normalized across zones and broadcast to every hour of a zone. Zones
// without revenue stats get a zero volatility contribution.
func ScoreZoneHours(w config.Weights, loads []ZoneHourLoad, revenue []model.ZoneRevenueStat) []model.ZoneHourMetric {
	congestion := make(map[model.ZoneHourKey]float64, len(loads))
	for _, l := range loads {
		congestion[l.Key] = l.CongestionRaw
	}
	congestionNorm := NormalizeToMax(congestion)

	volatility := make(map[int]float64, len(revenue))
	for _, r := range revenue {
		volatility[r.ZoneID] = r.RevenueVolatility
	}
	volatilityNorm := NormalizeToMax(volatility)

	rows := make([]model.ZoneHourMetric, 0, len(loads))
	for _, l := range loads {
		rows = append(rows, model.ZoneHourMetric{
			ZoneID:             l.Key.ZoneID,
			Hour:               l.Key.Hour,
			TripCount:          l.TripCount,
			ExposureIndex:      l.ExposureIndex,
			AvgTripDurationMin: l.AvgTripDurationMin(),
			CongestionIndex:    l.CongestionRaw,
			RiskScore:          RiskScore(w, l.ExposureIndex, congestionNorm[l.Key], volatilityNorm[l.Key.ZoneID]),
		})
	}
	sortMetrics(rows)
	return rows
}
