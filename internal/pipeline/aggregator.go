// Package pipeline computes zone-hour risk metrics from trip records and
// orchestrates ingestion into storage.
package pipeline

import (
	"sort"

	"github.com/theirongolddev/zonerisk/internal/model"
)

// ZoneHourAggregator groups normalized trips by (zone, hour).
type ZoneHourAggregator struct {
	buckets map[model.ZoneHourKey]*model.ZoneHourAggregate
}

// NewZoneHourAggregator returns an empty aggregator.
func NewZoneHourAggregator() *ZoneHourAggregator {
	return &ZoneHourAggregator{buckets: make(map[model.ZoneHourKey]*model.ZoneHourAggregate)}
}

// Add counts a trip in its bucket. An unavailable duration contributes 0.0.
func (a *ZoneHourAggregator) Add(t NormalizedTrip) {
	key := model.ZoneHourKey{ZoneID: t.ZoneID, Hour: t.Hour}
	b, ok := a.buckets[key]
	if !ok {
		b = &model.ZoneHourAggregate{Key: key}
		a.buckets[key] = b
	}
	b.TripCount++
	if t.HasDuration {
		b.DurationSumMin += t.DurationMin
	} else {
		b.MissingDurations++
	}
}

// Len returns the number of buckets with at least one trip.
func (a *ZoneHourAggregator) Len() int {
	return len(a.buckets)
}

// Buckets returns all buckets sorted by (zone, hour).
func (a *ZoneHourAggregator) Buckets() []model.ZoneHourAggregate {
	out := make([]model.ZoneHourAggregate, 0, len(a.buckets))
	for _, b := range a.buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

// ZoneHourLoad is the per-bucket exposure and raw congestion.
type ZoneHourLoad struct {
	model.ZoneHourAggregate
	ExposureIndex float64
	CongestionRaw float64
}

// ComputeLoad derives exposure_index and raw congestion for every bucket.
// Exposure is the bucket's trip count relative to the busiest zone in the
// same hour, scaled to 0-100.
func ComputeLoad(buckets []model.ZoneHourAggregate) []ZoneHourLoad {
	maxPerHour := make(map[int]int)
	for _, b := range buckets {
		if b.TripCount > maxPerHour[b.Key.Hour] {
			maxPerHour[b.Key.Hour] = b.TripCount
		}
	}

	out := make([]ZoneHourLoad, 0, len(buckets))
	for _, b := range buckets {
		var exposure float64
		if m := maxPerHour[b.Key.Hour]; m > 0 {
			exposure = float64(b.TripCount) / float64(m) * 100
		}
		out = append(out, ZoneHourLoad{
			ZoneHourAggregate: b,
			ExposureIndex:     exposure,
			CongestionRaw:     b.AvgTripDurationMin() * (exposure / 100),
		})
	}
	return out
}
