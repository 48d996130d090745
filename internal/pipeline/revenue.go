package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/zonerisk/internal/model"
)

// RevenueCalculator collects per-zone trip amounts.
type RevenueCalculator struct {
	amounts map[int][]float64
	invalid int
}

// NewRevenueCalculator returns an empty calculator.
func NewRevenueCalculator() *RevenueCalculator {
	return &RevenueCalculator{amounts: make(map[int][]float64)}
}

// Add records a trip amount. Absent and non-finite amounts are skipped and
// do not count toward the zone's trips. It reports whether the amount was used.
func (r *RevenueCalculator) Add(zoneID int, amount *float64) bool {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		r.invalid++
		return false
	}
	r.amounts[zoneID] = append(r.amounts[zoneID], *amount)
	return true
}

// Skipped returns how many amounts were rejected.
func (r *RevenueCalculator) Skipped() int {
	return r.invalid
}

// Stats returns mean and population standard deviation per zone, sorted by
// zone id. Zones without a valid amount produce no row.
func (r *RevenueCalculator) Stats() []model.ZoneRevenueStat {
	out := make([]model.ZoneRevenueStat, 0, len(r.amounts))
	for zoneID, xs := range r.amounts {
		if len(xs) == 0 {
			continue
		}
		mean, variance := stat.PopMeanVariance(xs, nil)
		// Rounding can leave a tiny negative variance for identical amounts.
		if !(variance > 0) {
			variance = 0
		}
		out = append(out, model.ZoneRevenueStat{
			ZoneID:            zoneID,
			AvgRevenue:        mean,
			RevenueVolatility: math.Sqrt(variance),
			TotalTrips:        len(xs),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ZoneID < out[j].ZoneID
	})
	return out
}
