// Package model defines domain types for zonerisk trips and metrics.
package model

// TripRecord is one ingested trip as the engine sees it. Timestamps are kept
// as raw text; the engine normalizes them.
type TripRecord struct {
	PickupRaw   string
	DropoffRaw  string
	ZoneID      int
	TotalAmount *float64 // nil when absent or not numeric
}

// Zone is a row of the zone dimension (taxi zone lookup).
type Zone struct {
	ZoneID      int
	Borough     string
	Name        string
	ServiceZone string
}
