package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/source"
)

// DefaultBatchSize is the number of trips written per insert batch.
const DefaultBatchSize = 5000

// TripWriter is the storage side of ingestion.
type TripWriter interface {
	ClearTrips(ctx context.Context) error
	InsertTrips(ctx context.Context, trips []model.TripRecord) error
}

// ZoneWriter stores the zone dimension.
type ZoneWriter interface {
	UpsertZones(ctx context.Context, zones []model.Zone) error
}

// ProgressFunc is called after each committed batch with the running
// number of trips written.
type ProgressFunc func(written int)

// IngestOptions controls one ingestion.
type IngestOptions struct {
	BatchSize int
	Append    bool // keep existing trips instead of replacing them
	Progress  ProgressFunc
}

// IngestResult holds the output of loading one trip file.
type IngestResult struct {
	source.ReadStats
	Written  int
	Batches  int
	Duration time.Duration
}

// Ingest streams a trip file into w in fixed-size batches. Unless
// opts.Append is set, existing trips are cleared so the stored snapshot
// matches the file. The file is opened and its header read before anything
// is cleared; an unreadable path leaves the stored trips untouched.
func Ingest(ctx context.Context, path string, w TripWriter, opts IngestOptions) (*IngestResult, error) {
	start := time.Now()
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tr, err := source.OpenTrips(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = tr.Close() }()

	if !opts.Append {
		if err := w.ClearTrips(ctx); err != nil {
			return nil, fmt.Errorf("clearing trips: %w", err)
		}
	}

	result := &IngestResult{}
	batch := make([]model.TripRecord, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.InsertTrips(ctx, batch); err != nil {
			return fmt.Errorf("writing batch %d: %w", result.Batches+1, err)
		}
		result.Written += len(batch)
		result.Batches++
		batch = batch[:0]
		if opts.Progress != nil {
			opts.Progress(result.Written)
		}
		return nil
	}

	stats, err := tr.Each(func(t model.TripRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, t)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	result.ReadStats = stats
	if err != nil {
		return result, fmt.Errorf("ingesting %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// LoadZones reads a zone lookup file and upserts it into w.
func LoadZones(ctx context.Context, path string, w ZoneWriter) (int, error) {
	zones, err := source.ReadZones(path)
	if err != nil {
		return 0, err
	}
	if err := w.UpsertZones(ctx, zones); err != nil {
		return 0, fmt.Errorf("storing zones: %w", err)
	}
	return len(zones), nil
}
