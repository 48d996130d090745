// Package daemon provides the long-running metrics service: scheduled
// recomputes plus a small HTTP API over the results.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/notify"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
	"github.com/theirongolddev/zonerisk/internal/report"
)

// ErrRunInProgress is returned when a recompute is requested while one runs.
var ErrRunInProgress = errors.New("a run is already in progress")

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Schedule     string // cron spec, e.g. "@every 1h" or "0 * * * *"
	EventsBuffer int
	ReportLimit  int
	RunOnStart   bool
}

// Runner performs one full recompute.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// Deps are the collaborators a Service drives.
type Deps struct {
	Runner    Runner
	Querier   report.Store
	Publisher notify.Publisher
	Logger    *slog.Logger
}

// Snapshot is a compact run state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	DurationMS       int64     `json:"duration_ms"`
	Trips            int       `json:"trips"`
	ZoneHours        int       `json:"zone_hours"`
	RevenueZones     int       `json:"revenue_zones"`
	SkippedPickups   int       `json:"skipped_pickups"`
	MissingDurations int       `json:"missing_durations"`
	InvalidAmounts   int       `json:"invalid_amounts"`
}

// Delta captures snapshot deltas between runs.
type Delta struct {
	Trips        int `json:"trips"`
	ZoneHours    int `json:"zone_hours"`
	RevenueZones int `json:"revenue_zones"`
}

// Event is emitted after every run, successful or not.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Event types.
const (
	EventSnapshot  = "snapshot"
	EventRun       = "run"
	EventRunFailed = "run_failed"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRunAt       time.Time `json:"last_run_at"`
	NextRunAt       time.Time `json:"next_run_at"`
	Schedule        string    `json:"schedule"`
	RunCount        int64     `json:"run_count"`
	FailureCount    int64     `json:"failure_count"`
	Running         bool      `json:"running"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type serviceMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	tripsRead     prometheus.Gauge
	zoneHours     prometheus.Gauge
	anomalies     *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
	riskRequests  *prometheus.CounterVec
	publishErrors prometheus.Counter
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	f := promauto.With(reg)
	return &serviceMetrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zonerisk_runs_total",
			Help: "Metric recomputes by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonerisk_run_duration_seconds",
			Help:    "Duration of a full recompute",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		tripsRead: f.NewGauge(prometheus.GaugeOpts{
			Name: "zonerisk_trips_read",
			Help: "Trips read by the last successful run",
		}),
		zoneHours: f.NewGauge(prometheus.GaugeOpts{
			Name: "zonerisk_zone_hours",
			Help: "Zone-hour rows written by the last successful run",
		}),
		anomalies: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zonerisk_record_anomalies",
			Help: "Per-record anomalies absorbed by the last successful run",
		}, []string{"kind"}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "zonerisk_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		riskRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zonerisk_risk_requests_total",
			Help: "Risk report requests by status code",
		}, []string{"code"}),
		publishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "zonerisk_publish_errors_total",
			Help: "Failed run notifications",
		}),
	}
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	registry *prometheus.Registry
	metrics  *serviceMetrics
	cron     *cron.Cron
	entry    cron.EntryID

	runMu sync.Mutex // held for the duration of a run

	mu           sync.RWMutex
	startedAt    time.Time
	lastRunAt    time.Time
	runCount     int64
	failureCount int64
	running      bool
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. The schedule is validated here.
func New(cfg Config, deps Deps) (*Service, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1h"
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	if deps.Runner == nil || deps.Querier == nil {
		return nil, errors.New("daemon needs a runner and a querier")
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.ReportLimit < 1 {
		cfg.ReportLimit = 20
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		log:       deps.Logger.With("component", "daemon"),
		registry:  reg,
		metrics:   newServiceMetrics(reg),
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	return s, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/risk", s.handleRisk)
	mux.HandleFunc("GET /v1/overview", s.handleOverview)
	mux.HandleFunc("GET /v1/hourly", s.handleHourly)
	mux.HandleFunc("GET /v1/zones/{id}", s.handleZone)
	mux.HandleFunc("GET /v1/revenue", s.handleRevenue)
	mux.HandleFunc("/v1/run", s.handleRun)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run starts HTTP endpoints and the recompute schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	entry, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.log.Warn("scheduled run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Schedule, err)
	}
	s.mu.Lock()
	s.entry = entry
	s.mu.Unlock()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon listening", "addr", s.cfg.Addr, "schedule", s.cfg.Schedule)

	if s.cfg.RunOnStart {
		go func() { _, _ = s.RunOnce(ctx) }()
	}
	s.cron.Start()

	select {
	case <-ctx.Done():
		stopped := s.cron.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		select {
		case <-stopped.Done():
		case <-shutdownCtx.Done():
		}
		return err
	case err := <-errCh:
		s.cron.Stop()
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// RunOnce performs one recompute, records it, and emits an event.
func (s *Service) RunOnce(ctx context.Context) (*pipeline.RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	s.setRunning(true)
	defer s.setRunning(false)

	start := time.Now()
	result, err := s.deps.Runner.Run(ctx)
	s.metrics.runDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.runs.WithLabelValues("failure").Inc()
		s.recordFailure(ctx, err)
		return nil, err
	}

	s.metrics.runs.WithLabelValues("success").Inc()
	s.metrics.tripsRead.Set(float64(result.TripsRead))
	s.metrics.zoneHours.Set(float64(len(result.Metrics)))
	s.metrics.anomalies.WithLabelValues("unparsable_pickup").Set(float64(result.SkippedPickups))
	s.metrics.anomalies.WithLabelValues("missing_duration").Set(float64(result.MissingDurations))
	s.metrics.anomalies.WithLabelValues("invalid_amount").Set(float64(result.InvalidAmounts))
	s.metrics.lastSuccess.SetToCurrentTime()

	s.recordSuccess(ctx, snapshotFromResult(result))
	return result, nil
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Service) recordSuccess(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastRunAt = snap.At
	s.runCount++
	s.lastError = ""

	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventRun,
		Timestamp: snap.At,
		Snapshot:  snap,
	}
	if prevExists {
		ev.Delta = diffSnapshots(prev, snap)
	}
	s.mu.Unlock()

	s.publishEvent(ev)
	s.notify(ctx, ev)
}

func (s *Service) recordFailure(ctx context.Context, err error) {
	now := time.Now()
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastRunAt = now
	s.runCount++
	s.failureCount++
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventRunFailed,
		Timestamp: now,
		Snapshot:  s.snapshot,
		Error:     err.Error(),
	}
	s.mu.Unlock()

	s.log.Error("run failed", "err", err)
	s.publishEvent(ev)
	s.notify(ctx, ev)
}

func (s *Service) notify(ctx context.Context, ev Event) {
	summary := notify.RunSummary{
		At:               ev.Timestamp,
		DurationMS:       ev.Snapshot.DurationMS,
		Trips:            ev.Snapshot.Trips,
		ZoneHours:        ev.Snapshot.ZoneHours,
		RevenueZones:     ev.Snapshot.RevenueZones,
		SkippedPickups:   ev.Snapshot.SkippedPickups,
		MissingDurations: ev.Snapshot.MissingDurations,
		InvalidAmounts:   ev.Snapshot.InvalidAmounts,
		Error:            ev.Error,
	}
	if err := s.deps.Publisher.Publish(ctx, summary); err != nil {
		s.metrics.publishErrors.Inc()
		s.log.Warn("run notification failed", "err", err)
	}
}

func snapshotFromResult(r *pipeline.RunResult) Snapshot {
	return Snapshot{
		At:               r.StartedAt.Add(r.Duration),
		DurationMS:       r.Duration.Milliseconds(),
		Trips:            r.TripsRead,
		ZoneHours:        len(r.Metrics),
		RevenueZones:     len(r.Revenue),
		SkippedPickups:   r.SkippedPickups,
		MissingDurations: r.MissingDurations,
		InvalidAmounts:   r.InvalidAmounts,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Trips:        curr.Trips - prev.Trips,
		ZoneHours:    curr.ZoneHours - prev.ZoneHours,
		RevenueZones: curr.RevenueZones - prev.RevenueZones,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		Schedule:        s.cfg.Schedule,
		RunCount:        s.runCount,
		FailureCount:    s.failureCount,
		Running:         s.running,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.entry != 0 {
		st.NextRunAt = s.cron.Entry(s.entry).Next
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

type riskResponse struct {
	Hour  int             `json:"hour"`
	Total int             `json:"total"`
	Rows  []riskRowOutput `json:"rows"`
}

type riskRowOutput struct {
	ZoneID             int     `json:"zone_id"`
	Borough            string  `json:"borough,omitempty"`
	Zone               string  `json:"zone,omitempty"`
	TripCount          int     `json:"trip_count"`
	ExposureIndex      float64 `json:"exposure_index"`
	AvgTripDurationMin float64 `json:"avg_trip_duration_min"`
	CongestionIndex    float64 `json:"congestion_index"`
	RiskScore          float64 `json:"risk_score"`
}

func toRiskOutput(r model.RiskRow) riskRowOutput {
	return riskRowOutput{
		ZoneID:             r.ZoneID,
		Borough:            r.Borough,
		Zone:               r.ZoneName,
		TripCount:          r.TripCount,
		ExposureIndex:      r.ExposureIndex,
		AvgTripDurationMin: r.AvgTripDurationMin,
		CongestionIndex:    r.CongestionIndex,
		RiskScore:          r.RiskScore,
	}
}

func (s *Service) handleRisk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hour, err := report.ParseHour(q.Get("hour"))
	if err != nil {
		s.riskError(w, http.StatusBadRequest, err)
		return
	}
	limit := s.cfg.ReportLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.riskError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	rep, err := report.ForHour(r.Context(), s.deps.Querier, hour, limit)
	if err != nil {
		s.riskError(w, http.StatusInternalServerError, err)
		return
	}

	out := riskResponse{Hour: rep.Hour, Total: rep.Total, Rows: make([]riskRowOutput, 0, len(rep.Rows))}
	for _, row := range rep.Rows {
		out.Rows = append(out.Rows, toRiskOutput(row))
	}
	s.metrics.riskRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) riskError(w http.ResponseWriter, code int, err error) {
	s.metrics.riskRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type overviewResponse struct {
	TotalTrips             int     `json:"total_trips"`
	HighRiskZonesCount     int     `json:"high_risk_zones_count"`
	PeakExposureHour       int     `json:"peak_exposure_hour"`
	RevenueVolatilityScore float64 `json:"revenue_volatility_score"`
}

func (s *Service) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := report.BuildOverview(r.Context(), s.deps.Querier)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, overviewResponse{
		TotalTrips:             ov.TotalTrips,
		HighRiskZonesCount:     ov.HighRiskZones,
		PeakExposureHour:       ov.PeakExposureHour,
		RevenueVolatilityScore: ov.RevenueVolatility,
	})
}

type hourlyOutput struct {
	Hour       int `json:"hour"`
	TotalTrips int `json:"total_trips"`
	Zones      int `json:"zones"`
}

func (s *Service) handleHourly(w http.ResponseWriter, r *http.Request) {
	hours, err := report.Hourly(r.Context(), s.deps.Querier)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]hourlyOutput, 0, len(hours))
	for _, h := range hours {
		out = append(out, hourlyOutput{Hour: h.Hour, TotalTrips: h.Trips, Zones: h.Zones})
	}
	writeJSON(w, http.StatusOK, out)
}

type revenueOutput struct {
	ZoneID            int     `json:"zone_id"`
	AvgRevenue        float64 `json:"avg_revenue"`
	RevenueVolatility float64 `json:"revenue_volatility"`
	TotalTrips        int     `json:"total_trips"`
}

func toRevenueOutput(r model.ZoneRevenueStat) revenueOutput {
	return revenueOutput{
		ZoneID:            r.ZoneID,
		AvgRevenue:        r.AvgRevenue,
		RevenueVolatility: r.RevenueVolatility,
		TotalTrips:        r.TotalTrips,
	}
}

type zoneResponse struct {
	riskRowOutput
	Hour    int            `json:"hour"`
	Revenue *revenueOutput `json:"revenue,omitempty"`
}

// handleZone serves one zone's metrics for ?hour=H, defaulting to hour 0.
func (s *Service) handleZone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid zone id %q", r.PathValue("id"))})
		return
	}
	hour := 0
	if v := r.URL.Query().Get("hour"); v != "" {
		if hour, err = report.ParseHour(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	detail, err := report.ForZone(r.Context(), s.deps.Querier, id, hour)
	switch {
	case errors.Is(err, report.ErrZoneNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := zoneResponse{riskRowOutput: toRiskOutput(detail.RiskRow), Hour: detail.Hour}
	if detail.Revenue != nil {
		rev := toRevenueOutput(*detail.Revenue)
		out.Revenue = &rev
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleRevenue(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid limit %q", v)})
			return
		}
		limit = n
	}
	stats, err := report.RevenueRanking(r.Context(), s.deps.Querier, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]revenueOutput, 0, len(stats))
	for _, st := range stats {
		out = append(out, toRevenueOutput(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}
	result, err := s.RunOnce(r.Context())
	switch {
	case errors.Is(err, ErrRunInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, snapshotFromResult(result))
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
