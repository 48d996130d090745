package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/zonerisk/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func amount(v float64) *float64 { return &v }

func TestOpenExisting_MissingFile(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "absent.db"))
	if !errors.Is(err, ErrMissingPrerequisite) {
		t.Fatalf("err = %v, want ErrMissingPrerequisite", err)
	}
}

func TestReady(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Ready(ctx); !errors.Is(err, ErrMissingPrerequisite) {
		t.Fatalf("Ready before Init = %v, want ErrMissingPrerequisite", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if err := s.Ready(ctx); err != nil {
		t.Fatalf("Ready after Init = %v", err)
	}
}

func TestInsertAndEachTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	trips := []model.TripRecord{
		{PickupRaw: "2023-01-05 09:10", DropoffRaw: "2023-01-05 09:20", ZoneID: 4, TotalAmount: amount(12.5)},
		{PickupRaw: "2023-01-05 10:10", ZoneID: 5},
	}
	if err := s.InsertTrips(ctx, trips); err != nil {
		t.Fatalf("InsertTrips: %v", err)
	}
	// A text amount that is not numeric, as a loose SQLite loader might leave it.
	if _, err := s.db.Exec(`INSERT INTO taxi_trips
		(tpep_pickup_datetime, pulocation_id, total_amount) VALUES ('2023-01-05 11:00', 6, 'n/a')`); err != nil {
		t.Fatal(err)
	}

	var got []model.TripRecord
	err := s.EachTrip(ctx, func(tr model.TripRecord) error {
		got = append(got, tr)
		return nil
	})
	if err != nil {
		t.Fatalf("EachTrip: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d trips, want 3", len(got))
	}
	if got[0].TotalAmount == nil || *got[0].TotalAmount != 12.5 {
		t.Errorf("trip[0] amount = %v, want 12.5", got[0].TotalAmount)
	}
	if got[1].DropoffRaw != "" || got[1].TotalAmount != nil {
		t.Errorf("trip[1] = %+v, want empty dropoff and nil amount", got[1])
	}
	if got[2].TotalAmount != nil {
		t.Errorf("trip[2] amount = %v, want nil for non-numeric text", *got[2].TotalAmount)
	}

	n, err := s.TripCount(ctx)
	if err != nil || n != 3 {
		t.Fatalf("TripCount = %d, %v; want 3", n, err)
	}
	if err := s.ClearTrips(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.TripCount(ctx); n != 0 {
		t.Errorf("TripCount after clear = %d", n)
	}
}

func TestSaveRun_ReplacesMetricsAndUpsertsRevenue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := []model.ZoneHourMetric{
		{ZoneID: 1, Hour: 9, TripCount: 3, RiskScore: 40},
		{ZoneID: 2, Hour: 9, TripCount: 1, RiskScore: 10},
	}
	rev := []model.ZoneRevenueStat{
		{ZoneID: 1, AvgRevenue: 20, RevenueVolatility: 8, TotalTrips: 3},
		{ZoneID: 2, AvgRevenue: 5, RevenueVolatility: 0, TotalTrips: 1},
	}
	if err := s.SaveRun(ctx, rev, first); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	second := []model.ZoneHourMetric{{ZoneID: 3, Hour: 9, TripCount: 2, RiskScore: 70}}
	if err := s.SaveRun(ctx, []model.ZoneRevenueStat{{ZoneID: 1, AvgRevenue: 30, RevenueVolatility: 1, TotalTrips: 2}}, second); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	rows, err := s.RiskByHour(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ZoneID != 3 {
		t.Fatalf("metrics after replace = %+v, want only zone 3", rows)
	}

	stats, err := s.RevenueStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("revenue rows = %d, want 2 (upsert keeps zone 2)", len(stats))
	}
	if stats[0].AvgRevenue != 30 || stats[0].TotalTrips != 2 {
		t.Errorf("zone 1 revenue = %+v, want replaced row", stats[0])
	}
}

func TestSaveRun_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	good := []model.ZoneHourMetric{{ZoneID: 1, Hour: 5, TripCount: 1, RiskScore: 12}}
	if err := s.SaveRun(ctx, nil, good); err != nil {
		t.Fatal(err)
	}

	// Hour 24 violates the CHECK constraint on the final table.
	bad := []model.ZoneHourMetric{
		{ZoneID: 2, Hour: 5, TripCount: 1, RiskScore: 50},
		{ZoneID: 2, Hour: 24, TripCount: 1, RiskScore: 50},
	}
	rev := []model.ZoneRevenueStat{{ZoneID: 9, AvgRevenue: 1, TotalTrips: 1}}
	if err := s.SaveRun(ctx, rev, bad); err == nil {
		t.Fatal("SaveRun with invalid hour succeeded")
	}

	rows, err := s.RiskByHour(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ZoneID != 1 {
		t.Fatalf("rows after failed run = %+v, want previous contents", rows)
	}
	stats, _ := s.RevenueStats(ctx)
	if len(stats) != 0 {
		t.Errorf("revenue rows = %+v, want none committed", stats)
	}
}

func TestRiskByHour_OrderAndZoneNames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertZones(ctx, []model.Zone{{ZoneID: 2, Borough: "Queens", Name: "Astoria", ServiceZone: "Boro Zone"}}); err != nil {
		t.Fatal(err)
	}
	metrics := []model.ZoneHourMetric{
		{ZoneID: 1, Hour: 8, RiskScore: 30},
		{ZoneID: 2, Hour: 8, RiskScore: 90},
		{ZoneID: 3, Hour: 8, RiskScore: 30},
		{ZoneID: 2, Hour: 9, RiskScore: 99},
	}
	if err := s.SaveRun(ctx, nil, metrics); err != nil {
		t.Fatal(err)
	}

	rows, err := s.RiskByHour(ctx, 8)
	if err != nil {
		t.Fatal(err)
	}
	wantZones := []int{2, 1, 3}
	if len(rows) != len(wantZones) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantZones))
	}
	for i, z := range wantZones {
		if rows[i].ZoneID != z {
			t.Errorf("rows[%d].ZoneID = %d, want %d", i, rows[i].ZoneID, z)
		}
	}
	if rows[0].ZoneName != "Astoria" || rows[0].Borough != "Queens" {
		t.Errorf("rows[0] names = %q/%q", rows[0].Borough, rows[0].ZoneName)
	}
	if rows[1].ZoneName != "" {
		t.Errorf("unknown zone name = %q, want empty", rows[1].ZoneName)
	}
}
