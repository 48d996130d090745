package pipeline

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"01/05/2023 09:10", time.Date(2023, 1, 5, 9, 10, 0, 0, time.UTC), true},
		{"1/5/2023 9:07", time.Date(2023, 1, 5, 9, 7, 0, 0, time.UTC), true},
		{"2023-01-05 23:59:58", time.Date(2023, 1, 5, 23, 59, 58, 0, time.UTC), true},
		{"2023-01-05 00:30", time.Date(2023, 1, 5, 0, 30, 0, 0, time.UTC), true},
		{"  2023-01-05 07:15  ", time.Date(2023, 1, 5, 7, 15, 0, 0, time.UTC), true},
		{"13/40/2023 99:99", time.Time{}, false},
		{"2023-02-30 10:00", time.Time{}, false},
		{"", time.Time{}, false},
		{"   ", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTripDuration(t *testing.T) {
	tests := []struct {
		name            string
		pickup, dropoff string
		want            float64
		ok              bool
	}{
		{"mixed layouts", "01/05/2023 09:10", "2023-01-05 09:25:30", 15.5, true},
		{"negative clamps to zero", "2023-01-05 09:25", "2023-01-05 09:10", 0, true},
		{"same instant", "2023-01-05 09:25", "2023-01-05 09:25", 0, true},
		{"missing dropoff", "2023-01-05 09:25", "", 0, false},
		{"bad pickup", "garbage", "2023-01-05 09:25", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TripDuration(tt.pickup, tt.dropoff)
			if ok != tt.ok || got != tt.want {
				t.Errorf("TripDuration = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTripDuration_BeyondDurationRange(t *testing.T) {
	got, ok := TripDuration("2023-01-01 00:00", "9999-01-01 00:00")
	if !ok {
		t.Fatal("TripDuration not ok")
	}
	pu := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	do := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	want := float64(do.Unix()-pu.Unix()) / 60
	if got != want {
		t.Errorf("TripDuration = %v, want %v", got, want)
	}
}

func TestNormalizeTrip(t *testing.T) {
	nt, ok := NormalizeTrip("2023-01-05 09:10", "2023-01-05 09:40", 7)
	if !ok {
		t.Fatal("valid trip rejected")
	}
	if nt.ZoneID != 7 || nt.Hour != 9 || !nt.HasDuration || nt.DurationMin != 30 {
		t.Errorf("NormalizeTrip = %+v", nt)
	}

	nt, ok = NormalizeTrip("2023-01-05 22:10", "not a time", 7)
	if !ok {
		t.Fatal("trip with bad dropoff should still be bucketed")
	}
	if nt.Hour != 22 || nt.HasDuration || nt.DurationMin != 0 {
		t.Errorf("unavailable duration = %+v", nt)
	}

	if _, ok := NormalizeTrip("13/40/2023 99:99", "2023-01-05 09:40", 7); ok {
		t.Error("unparsable pickup was accepted")
	}
}

func FuzzParseTimestamp(f *testing.F) {
	for _, s := range []string{"01/05/2023 09:10", "2023-01-05 09:10:00", "2023-01-05 09:10", "13/40/2023 99:99", ""} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		ts, ok := ParseTimestamp(s)
		if !ok {
			return
		}
		if h := ts.Hour(); h < 0 || h > 23 {
			t.Fatalf("hour %d out of range for %q", h, s)
		}
		if d, ok := TripDuration(s, s); !ok || d != 0 {
			t.Fatalf("TripDuration(%q, same) = %v, %v", s, d, ok)
		}
	})
}
