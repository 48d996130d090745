package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/zonerisk/internal/model"
)

type memWriter struct {
	trips   []model.TripRecord
	batches []int
	cleared int
	failAt  int // fail on this batch number when > 0
}

func (m *memWriter) ClearTrips(_ context.Context) error {
	m.cleared++
	m.trips = nil
	return nil
}

func (m *memWriter) InsertTrips(_ context.Context, trips []model.TripRecord) error {
	if m.failAt > 0 && len(m.batches)+1 == m.failAt {
		return errors.New("disk full")
	}
	m.batches = append(m.batches, len(trips))
	m.trips = append(m.trips, trips...)
	return nil
}

func writeTrips(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("tpep_pickup_datetime,tpep_dropoff_datetime,PULocationID,total_amount\n")
	for i := 0; i < rows; i++ {
		b.WriteString("2023-01-05 09:10,2023-01-05 09:20,4,10.5\n")
	}
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngest_Batches(t *testing.T) {
	path := writeTrips(t, 7)
	w := &memWriter{trips: []model.TripRecord{{ZoneID: 99}}}

	var progress []int
	res, err := Ingest(context.Background(), path, w, IngestOptions{
		BatchSize: 3,
		Progress:  func(n int) { progress = append(progress, n) },
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if w.cleared != 1 {
		t.Errorf("cleared %d times, want 1", w.cleared)
	}
	if res.Written != 7 || res.Kept != 7 || res.Batches != 3 {
		t.Errorf("result = %+v", res)
	}
	if got := w.batches; len(got) != 3 || got[0] != 3 || got[2] != 1 {
		t.Errorf("batch sizes = %v, want [3 3 1]", got)
	}
	if len(progress) != 3 || progress[2] != 7 {
		t.Errorf("progress = %v", progress)
	}
	if len(w.trips) != 7 {
		t.Errorf("stored %d trips, want 7 (old snapshot replaced)", len(w.trips))
	}
}

func TestIngest_Append(t *testing.T) {
	path := writeTrips(t, 2)
	w := &memWriter{trips: []model.TripRecord{{ZoneID: 99}}}

	if _, err := Ingest(context.Background(), path, w, IngestOptions{Append: true}); err != nil {
		t.Fatal(err)
	}
	if w.cleared != 0 || len(w.trips) != 3 {
		t.Errorf("cleared=%d trips=%d, want 0 and 3", w.cleared, len(w.trips))
	}
}

func TestIngest_WriteError(t *testing.T) {
	path := writeTrips(t, 5)
	w := &memWriter{failAt: 2}

	_, err := Ingest(context.Background(), path, w, IngestOptions{BatchSize: 2})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want write failure", err)
	}
}

func TestIngest_Canceled(t *testing.T) {
	path := writeTrips(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, path, &memWriter{}, IngestOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIngest_MissingFileKeepsTrips(t *testing.T) {
	w := &memWriter{trips: []model.TripRecord{{ZoneID: 99}}}
	missing := filepath.Join(t.TempDir(), "missing.csv")

	_, err := Ingest(context.Background(), missing, w, IngestOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	if w.cleared != 0 || len(w.trips) != 1 {
		t.Errorf("cleared=%d remaining=%d, want 0 and 1", w.cleared, len(w.trips))
	}
}

type memZones struct{ zones []model.Zone }

func (m *memZones) UpsertZones(_ context.Context, zones []model.Zone) error {
	m.zones = append(m.zones, zones...)
	return nil
}

func TestLoadZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.csv")
	content := "LocationID,Borough,Zone,service_zone\n1,EWR,Newark Airport,EWR\n4,Manhattan,Alphabet City,Yellow Zone\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	w := &memZones{}
	n, err := LoadZones(context.Background(), path, w)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || w.zones[1].Name != "Alphabet City" {
		t.Errorf("n=%d zones=%+v", n, w.zones)
	}
}
