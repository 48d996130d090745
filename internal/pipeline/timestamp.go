package pipeline

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order; the first that parses wins.
// Single-digit month, day, hour, minute and second fields are accepted.
var timestampLayouts = []string{
	"1/2/2006 15:4",
	"2006-1-2 15:4:5",
	"2006-1-2 15:4",
}

// ParseTimestamp parses a trip timestamp in any accepted layout.
// It reports false for blank or unrecognized input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TripDuration returns dropoff minus pickup in minutes, clamped at zero.
// ok is false when either timestamp cannot be parsed.
func TripDuration(pickup, dropoff string) (minutes float64, ok bool) {
	pu, ok := ParseTimestamp(pickup)
	if !ok {
		return 0, false
	}
	do, ok := ParseTimestamp(dropoff)
	if !ok {
		return 0, false
	}
	return clampedMinutes(pu, do), true
}

// clampedMinutes works from Unix seconds because time.Duration saturates
// for spans beyond about 292 years.
func clampedMinutes(pickup, dropoff time.Time) float64 {
	secs := float64(dropoff.Unix() - pickup.Unix())
	nanos := float64(dropoff.Nanosecond() - pickup.Nanosecond())
	mins := secs/60 + nanos/6e10
	if mins < 0 {
		return 0
	}
	return mins
}

// NormalizedTrip is a trip with its bucket key and duration outcome resolved.
type NormalizedTrip struct {
	ZoneID      int
	Hour        int
	DurationMin float64
	HasDuration bool // false means the duration is unavailable, not zero
}

// NormalizeTrip resolves the pickup hour and duration of a trip.
// It reports false when the pickup timestamp is unparsable; such trips
// belong to no bucket.
func NormalizeTrip(pickup, dropoff string, zoneID int) (NormalizedTrip, bool) {
	pu, ok := ParseTimestamp(pickup)
	if !ok {
		return NormalizedTrip{}, false
	}
	nt := NormalizedTrip{ZoneID: zoneID, Hour: pu.Hour()}
	if do, ok := ParseTimestamp(dropoff); ok {
		nt.DurationMin = clampedMinutes(pu, do)
		nt.HasDuration = true
	}
	return nt, true
}
