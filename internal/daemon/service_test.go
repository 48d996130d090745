package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/notify"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
)

type fakeRunner struct {
	result *pipeline.RunResult
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context) (*pipeline.RunResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeQuerier struct {
	rows    []model.RiskRow
	revenue []model.ZoneRevenueStat
	trips   int
	calls   int
}

func (f *fakeQuerier) TripCount(context.Context) (int, error) { return f.trips, nil }

func (f *fakeQuerier) RevenueStats(context.Context) ([]model.ZoneRevenueStat, error) {
	return append([]model.ZoneRevenueStat(nil), f.revenue...), nil
}

func (f *fakeQuerier) RiskByHour(_ context.Context, hour int) ([]model.RiskRow, error) {
	f.calls++
	var out []model.RiskRow
	for _, r := range f.rows {
		if r.Hour == hour {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	got []notify.RunSummary
}

func (p *recordingPublisher) Publish(_ context.Context, s notify.RunSummary) error {
	p.got = append(p.got, s)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T, runner *fakeRunner, q *fakeQuerier, pub notify.Publisher) *Service {
	t.Helper()
	s, err := New(Config{EventsBuffer: 10, ReportLimit: 2}, Deps{
		Runner:    runner,
		Querier:   q,
		Publisher: pub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func sampleResult(trips int) *pipeline.RunResult {
	return &pipeline.RunResult{
		StartedAt:      time.Now(),
		Duration:       25 * time.Millisecond,
		TripsRead:      trips,
		SkippedPickups: 1,
		Metrics:        make([]model.ZoneHourMetric, 3),
		Revenue:        make([]model.ZoneRevenueStat, 2),
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Trips: 100, ZoneHours: 40, RevenueZones: 10}
	curr := Snapshot{Trips: 160, ZoneHours: 42, RevenueZones: 9}

	delta := diffSnapshots(prev, curr)
	if delta.Trips != 60 {
		t.Fatalf("Trips delta = %d, want 60", delta.Trips)
	}
	if delta.ZoneHours != 2 {
		t.Fatalf("ZoneHours delta = %d, want 2", delta.ZoneHours)
	}
	if delta.RevenueZones != -1 {
		t.Fatalf("RevenueZones delta = %d, want -1", delta.RevenueZones)
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(Config{Schedule: "every now and then"}, Deps{Runner: &fakeRunner{}, Querier: &fakeQuerier{}})
	if err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, &fakeRunner{}, &fakeQuerier{}, nil)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestRunOnce_RecordsEventsAndNotifies(t *testing.T) {
	runner := &fakeRunner{result: sampleResult(10)}
	pub := &recordingPublisher{}
	s := newTestService(t, runner, &fakeQuerier{}, pub)
	ctx := context.Background()

	if _, err := s.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	runner.result = sampleResult(15)
	if _, err := s.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	runner.err = errors.New("storage not provisioned")
	if _, err := s.RunOnce(ctx); err == nil {
		t.Fatal("expected failure")
	}

	st := s.snapshotStatus()
	if st.RunCount != 3 || st.FailureCount != 1 || st.LastError == "" {
		t.Errorf("status = %+v", st)
	}
	if st.Summary.Trips != 15 {
		t.Errorf("summary keeps last success, got %d trips", st.Summary.Trips)
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()
	if len(events) != 3 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].Type != EventRun || events[1].Delta.Trips != 5 {
		t.Errorf("second event = %+v", events[1])
	}
	if events[2].Type != EventRunFailed {
		t.Errorf("third event type = %s", events[2].Type)
	}
	if len(pub.got) != 3 || pub.got[2].Error == "" || pub.got[0].ZoneHours != 3 {
		t.Errorf("published = %+v", pub.got)
	}
}

func TestRunOnce_RejectsOverlap(t *testing.T) {
	runner := &fakeRunner{result: sampleResult(1)}
	s := newTestService(t, runner, &fakeQuerier{}, nil)

	s.runMu.Lock()
	_, err := s.RunOnce(context.Background())
	s.runMu.Unlock()

	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times", runner.calls)
	}
}

func TestHandleRisk_InvalidHourSkipsStorage(t *testing.T) {
	q := &fakeQuerier{}
	s := newTestService(t, &fakeRunner{}, q, nil)
	h := s.Handler()

	for _, target := range []string{"/v1/risk?hour=24", "/v1/risk?hour=-1", "/v1/risk", "/v1/risk?hour=3&limit=x"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", target, rec.Code)
		}
	}
	if q.calls != 0 {
		t.Errorf("querier called %d times", q.calls)
	}
}

func TestHandleRisk(t *testing.T) {
	q := &fakeQuerier{rows: []model.RiskRow{
		{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 4, Hour: 9, RiskScore: 80}, ZoneName: "Alphabet City"},
		{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 1, Hour: 9, RiskScore: 50}},
		{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 7, Hour: 9, RiskScore: 10}},
		{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 7, Hour: 10, RiskScore: 99}},
	}}
	s := newTestService(t, &fakeRunner{}, q, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/risk?hour=9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}

	var resp riskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || len(resp.Rows) != 2 {
		t.Fatalf("total=%d rows=%d, want 3 and 2 (default limit)", resp.Total, len(resp.Rows))
	}
	if resp.Rows[0].Zone != "Alphabet City" || resp.Rows[0].RiskScore != 80 {
		t.Errorf("first row = %+v", resp.Rows[0])
	}
}

func TestHandleRun(t *testing.T) {
	runner := &fakeRunner{result: sampleResult(4)}
	s := newTestService(t, runner, &fakeQuerier{}, nil)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET code = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/run", nil))
	if rec.Code != http.StatusOK || runner.calls != 1 {
		t.Fatalf("POST code = %d, calls = %d", rec.Code, runner.calls)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `zonerisk_runs_total{outcome="success"} 1`) {
		t.Errorf("metrics output missing run counter:\n%s", body)
	}
	if !strings.Contains(body, "zonerisk_trips_read 4") {
		t.Error("metrics output missing trips gauge")
	}
}

func dashboardQuerier() *fakeQuerier {
	return &fakeQuerier{
		trips: 31,
		rows: []model.RiskRow{
			{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 4, Hour: 9, TripCount: 12, RiskScore: 80}, ZoneName: "Alphabet City", Borough: "Manhattan"},
			{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 7, Hour: 9, TripCount: 3, RiskScore: 20}},
			{ZoneHourMetric: model.ZoneHourMetric{ZoneID: 7, Hour: 18, TripCount: 16, RiskScore: 60}},
		},
		revenue: []model.ZoneRevenueStat{
			{ZoneID: 4, AvgRevenue: 18, RevenueVolatility: 1.5, TotalTrips: 12},
			{ZoneID: 7, AvgRevenue: 25, RevenueVolatility: 4.5, TotalTrips: 19},
		},
	}
}

func getJSON(t *testing.T, h http.Handler, target string, wantCode int, v any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != wantCode {
		t.Fatalf("%s: code = %d, want %d: %s", target, rec.Code, wantCode, rec.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("%s: %v", target, err)
		}
	}
}

func TestHandleOverview(t *testing.T) {
	s := newTestService(t, &fakeRunner{}, dashboardQuerier(), nil)

	var got overviewResponse
	getJSON(t, s.Handler(), "/v1/overview", http.StatusOK, &got)
	want := overviewResponse{TotalTrips: 31, HighRiskZonesCount: 2, PeakExposureHour: 18, RevenueVolatilityScore: 3}
	if got != want {
		t.Errorf("overview = %+v, want %+v", got, want)
	}
}

func TestHandleHourly(t *testing.T) {
	s := newTestService(t, &fakeRunner{}, dashboardQuerier(), nil)

	var got []hourlyOutput
	getJSON(t, s.Handler(), "/v1/hourly", http.StatusOK, &got)
	if len(got) != 24 {
		t.Fatalf("len = %d, want 24", len(got))
	}
	if got[9].TotalTrips != 15 || got[9].Zones != 2 || got[18].TotalTrips != 16 || got[0].TotalTrips != 0 {
		t.Errorf("hourly = %+v", got)
	}
}

func TestHandleZone(t *testing.T) {
	s := newTestService(t, &fakeRunner{}, dashboardQuerier(), nil)
	h := s.Handler()

	var got zoneResponse
	getJSON(t, h, "/v1/zones/4?hour=9", http.StatusOK, &got)
	if got.ZoneID != 4 || got.Hour != 9 || got.Zone != "Alphabet City" || got.TripCount != 12 {
		t.Errorf("zone = %+v", got)
	}
	if got.Revenue == nil || got.Revenue.AvgRevenue != 18 {
		t.Errorf("revenue = %+v", got.Revenue)
	}

	getJSON(t, h, "/v1/zones/4?hour=18", http.StatusNotFound, nil)
	getJSON(t, h, "/v1/zones/4?hour=24", http.StatusBadRequest, nil)
	getJSON(t, h, "/v1/zones/abc?hour=9", http.StatusBadRequest, nil)
}

func TestHandleZone_InvalidHourSkipsStorage(t *testing.T) {
	q := dashboardQuerier()
	s := newTestService(t, &fakeRunner{}, q, nil)

	getJSON(t, s.Handler(), "/v1/zones/4?hour=-1", http.StatusBadRequest, nil)
	if q.calls != 0 {
		t.Errorf("querier called %d times", q.calls)
	}
}

func TestHandleRevenue(t *testing.T) {
	s := newTestService(t, &fakeRunner{}, dashboardQuerier(), nil)
	h := s.Handler()

	var got []revenueOutput
	getJSON(t, h, "/v1/revenue", http.StatusOK, &got)
	if len(got) != 2 || got[0].ZoneID != 7 || got[1].ZoneID != 4 {
		t.Errorf("revenue = %+v", got)
	}

	got = nil
	getJSON(t, h, "/v1/revenue?limit=1", http.StatusOK, &got)
	if len(got) != 1 || got[0].ZoneID != 7 {
		t.Errorf("limited revenue = %+v", got)
	}
	getJSON(t, h, "/v1/revenue?limit=-2", http.StatusBadRequest, nil)
}
