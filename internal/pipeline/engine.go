package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/theirongolddev/zonerisk/internal/config"
	"github.com/theirongolddev/zonerisk/internal/model"
)

// TripSource streams the trip snapshot to the engine.
type TripSource interface {
	EachTrip(ctx context.Context, fn func(model.TripRecord) error) error
}

// Store is everything a computation run needs from storage.
type Store interface {
	TripSource
	// Ready returns store.ErrMissingPrerequisite when tables are not provisioned.
	Ready(ctx context.Context) error
	// SaveRun upserts revenue stats and replaces all zone-hour metrics
	// in a single transaction.
	SaveRun(ctx context.Context, revenue []model.ZoneRevenueStat, metrics []model.ZoneHourMetric) error
}

// RunResult summarizes one computation run.
type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration

	TripsRead        int
	SkippedPickups   int // unparsable pickup, excluded from buckets
	MissingDurations int // counted with a 0.0 duration
	InvalidAmounts   int // excluded from revenue stats

	Revenue []model.ZoneRevenueStat
	Metrics []model.ZoneHourMetric
}

// Compute runs the full metrics computation over src without persisting.
func Compute(ctx context.Context, src TripSource, w config.Weights) (*RunResult, error) {
	start := time.Now()
	agg := NewZoneHourAggregator()
	rev := NewRevenueCalculator()
	result := &RunResult{StartedAt: start}

	err := src.EachTrip(ctx, func(t model.TripRecord) error {
		result.TripsRead++
		rev.Add(t.ZoneID, t.TotalAmount)

		nt, ok := NormalizeTrip(t.PickupRaw, t.DropoffRaw, t.ZoneID)
		if !ok {
			result.SkippedPickups++
			return nil
		}
		if !nt.HasDuration {
			result.MissingDurations++
		}
		agg.Add(nt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}

	result.InvalidAmounts = rev.Skipped()
	result.Revenue = rev.Stats()
	result.Metrics = ScoreZoneHours(w, ComputeLoad(agg.Buckets()), result.Revenue)
	result.Duration = time.Since(start)
	return result, nil
}

// Engine computes and persists zone metrics against a Store.
type Engine struct {
	store   Store
	weights config.Weights
	log     *slog.Logger
}

// NewEngine validates the weights and returns an engine bound to store.
func NewEngine(store Store, w config.Weights, logger *slog.Logger) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, weights: w, log: logger}, nil
}

// Run performs one full recompute. Nothing is written unless the whole
// computation succeeds.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	if err := e.store.Ready(ctx); err != nil {
		return nil, err
	}

	result, err := Compute(ctx, e.store, e.weights)
	if err != nil {
		return nil, err
	}

	if err := e.store.SaveRun(ctx, result.Revenue, result.Metrics); err != nil {
		return nil, fmt.Errorf("saving metrics: %w", err)
	}
	result.Duration = time.Since(result.StartedAt)

	e.log.Info("metrics computed",
		"trips", result.TripsRead,
		"revenue_zones", len(result.Revenue),
		"zone_hours", len(result.Metrics),
		"skipped_pickups", result.SkippedPickups,
		"missing_durations", result.MissingDurations,
		"invalid_amounts", result.InvalidAmounts,
		"duration", result.Duration,
	)
	return result, nil
}

func sortMetrics(rows []model.ZoneHourMetric) {
	sort.Slice(rows, func(i, j int) bool {
		a := model.ZoneHourKey{ZoneID: rows[i].ZoneID, Hour: rows[i].Hour}
		b := model.ZoneHourKey{ZoneID: rows[j].ZoneID, Hour: rows[j].Hour}
		return a.Less(b)
	})
}
