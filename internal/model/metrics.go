package model

// ZoneHourKey identifies one (zone, hour-of-day) aggregation bucket.
type ZoneHourKey struct {
	ZoneID int
	Hour   int // 0-23
}

// Less orders keys by zone, then hour.
func (k ZoneHourKey) Less(o ZoneHourKey) bool {
	if k.ZoneID != o.ZoneID {
		return k.ZoneID < o.ZoneID
	}
	return k.Hour < o.Hour
}

// ZoneHourAggregate accumulates trips for one bucket during a run.
type ZoneHourAggregate struct {
	Key              ZoneHourKey
	TripCount        int
	DurationSumMin   float64
	MissingDurations int // trips counted with a 0.0 contribution
}

// AvgTripDurationMin returns the mean duration contribution in minutes.
func (a ZoneHourAggregate) AvgTripDurationMin() float64 {
	if a.TripCount == 0 {
		return 0
	}
	return a.DurationSumMin / float64(a.TripCount)
}

// ZoneRevenueStat holds per-zone revenue statistics.
type ZoneRevenueStat struct {
	ZoneID            int
	AvgRevenue        float64
	RevenueVolatility float64 // population standard deviation
	TotalTrips        int     // trips with a valid amount
}

// ZoneHourMetric is one persisted output row.
type ZoneHourMetric struct {
	ZoneID             int
	Hour               int
	TripCount          int
	ExposureIndex      float64
	AvgTripDurationMin float64
	CongestionIndex    float64 // raw, not normalized
	RiskScore          float64
}

// RiskRow is a report row: a metric joined with its zone names when known.
type RiskRow struct {
	ZoneHourMetric
	Borough  string
	ZoneName string
}
