// Package pgstore provides the PostgreSQL-backed trip and metrics storage.
package pgstore

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theirongolddev/zonerisk/internal/model"
	"github.com/theirongolddev/zonerisk/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS taxi_trips (
    id                     BIGSERIAL PRIMARY KEY,
    tpep_pickup_datetime   TEXT,
    tpep_dropoff_datetime  TEXT,
    pulocation_id          INTEGER NOT NULL,
    total_amount           DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS zones (
    zone_id                INTEGER PRIMARY KEY,
    borough                TEXT,
    zone_name              TEXT,
    service_zone           TEXT
);

CREATE TABLE IF NOT EXISTS zone_revenue_metrics (
    zone_id                INTEGER PRIMARY KEY,
    revenue_volatility     DOUBLE PRECISION NOT NULL,
    avg_revenue            DOUBLE PRECISION NOT NULL,
    total_trips            INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS zone_hourly_metrics (
    zone_id                INTEGER NOT NULL,
    hour                   SMALLINT NOT NULL CHECK (hour BETWEEN 0 AND 23),
    trip_count             INTEGER NOT NULL,
    exposure_index         DOUBLE PRECISION NOT NULL,
    avg_trip_duration_min  DOUBLE PRECISION NOT NULL,
    congestion_index       DOUBLE PRECISION NOT NULL,
    risk_score             DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (zone_id, hour)
);

CREATE INDEX IF NOT EXISTS idx_taxi_trips_zone ON taxi_trips(pulocation_id);
CREATE INDEX IF NOT EXISTS idx_zone_hourly_hour ON zone_hourly_metrics(hour, risk_score DESC);
`

var metricColumns = []string{
	"zone_id", "hour", "trip_count", "exposure_index",
	"avg_trip_duration_min", "congestion_index", "risk_score",
}

// Store is a PostgreSQL implementation of the zonerisk storage contract.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool init: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Init creates all tables.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Ready returns store.ErrMissingPrerequisite if any required table is absent.
func (s *Store) Ready(ctx context.Context) error {
	var missing []string
	for _, name := range []string{"taxi_trips", "zones", "zone_revenue_metrics", "zone_hourly_metrics"} {
		var present bool
		if err := s.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", name).Scan(&present); err != nil {
			return fmt.Errorf("checking schema: %w", err)
		}
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing tables %v", store.ErrMissingPrerequisite, missing)
	}
	return nil
}

// ClearTrips deletes every ingested trip.
func (s *Store) ClearTrips(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE taxi_trips")
	return err
}

// InsertTrips appends trips with COPY.
func (s *Store) InsertTrips(ctx context.Context, trips []model.TripRecord) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"taxi_trips"},
		[]string{"tpep_pickup_datetime", "tpep_dropoff_datetime", "pulocation_id", "total_amount"},
		pgx.CopyFromSlice(len(trips), func(i int) ([]any, error) {
			t := trips[i]
			return []any{textOrNil(t.PickupRaw), textOrNil(t.DropoffRaw), t.ZoneID, t.TotalAmount}, nil
		}),
	)
	return err
}

// TripCount returns the number of stored trips.
func (s *Store) TripCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM taxi_trips").Scan(&count)
	return count, err
}

// EachTrip streams all trips in insertion order.
func (s *Store) EachTrip(ctx context.Context, fn func(model.TripRecord) error) error {
	rows, err := s.pool.Query(ctx, `SELECT
		COALESCE(tpep_pickup_datetime, ''), COALESCE(tpep_dropoff_datetime, ''), pulocation_id, total_amount
		FROM taxi_trips ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t model.TripRecord
		var amount *float64
		if err := rows.Scan(&t.PickupRaw, &t.DropoffRaw, &t.ZoneID, &amount); err != nil {
			return err
		}
		if amount != nil && !math.IsNaN(*amount) {
			t.TotalAmount = amount
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

// UpsertZones inserts or updates zone dimension rows by zone_id.
func (s *Store) UpsertZones(ctx context.Context, zones []model.Zone) error {
	batch := &pgx.Batch{}
	for _, z := range zones {
		batch.Queue(`INSERT INTO zones (zone_id, borough, zone_name, service_zone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (zone_id) DO UPDATE SET
				borough = EXCLUDED.borough,
				zone_name = EXCLUDED.zone_name,
				service_zone = EXCLUDED.service_zone`,
			z.ZoneID, z.Borough, z.Name, z.ServiceZone)
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// SaveRun upserts revenue stats and swaps in the new zone-hour metrics in a
// single transaction, staging rows in a temp table first.
func (s *Store) SaveRun(ctx context.Context, revenue []model.ZoneRevenueStat, metrics []model.ZoneHourMetric) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range revenue {
		batch.Queue(`INSERT INTO zone_revenue_metrics (zone_id, revenue_volatility, avg_revenue, total_trips)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (zone_id) DO UPDATE SET
				revenue_volatility = EXCLUDED.revenue_volatility,
				avg_revenue = EXCLUDED.avg_revenue,
				total_trips = EXCLUDED.total_trips`,
			r.ZoneID, r.RevenueVolatility, r.AvgRevenue, r.TotalTrips)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting revenue: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `CREATE TEMP TABLE zone_hourly_metrics_stage
		(LIKE zone_hourly_metrics INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return fmt.Errorf("creating stage table: %w", err)
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"zone_hourly_metrics_stage"},
		metricColumns,
		pgx.CopyFromSlice(len(metrics), func(i int) ([]any, error) {
			m := metrics[i]
			return []any{m.ZoneID, m.Hour, m.TripCount, m.ExposureIndex,
				m.AvgTripDurationMin, m.CongestionIndex, m.RiskScore}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("staging metrics: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM zone_hourly_metrics"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO zone_hourly_metrics SELECT * FROM zone_hourly_metrics_stage"); err != nil {
		return fmt.Errorf("swapping metrics: %w", err)
	}
	return tx.Commit(ctx)
}

// RiskByHour returns the metrics for one hour, highest risk first.
func (s *Store) RiskByHour(ctx context.Context, hour int) ([]model.RiskRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT
		m.zone_id, m.hour, m.trip_count, m.exposure_index, m.avg_trip_duration_min,
		m.congestion_index, m.risk_score, COALESCE(z.borough, ''), COALESCE(z.zone_name, '')
		FROM zone_hourly_metrics m
		LEFT JOIN zones z ON z.zone_id = m.zone_id
		WHERE m.hour = $1
		ORDER BY m.risk_score DESC, m.zone_id ASC`, hour)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RiskRow, error) {
		var r model.RiskRow
		err := row.Scan(&r.ZoneID, &r.Hour, &r.TripCount, &r.ExposureIndex,
			&r.AvgTripDurationMin, &r.CongestionIndex, &r.RiskScore, &r.Borough, &r.ZoneName)
		return r, err
	})
}

// RevenueStats returns all revenue rows ordered by zone.
func (s *Store) RevenueStats(ctx context.Context) ([]model.ZoneRevenueStat, error) {
	rows, err := s.pool.Query(ctx, `SELECT zone_id, avg_revenue, revenue_volatility, total_trips
		FROM zone_revenue_metrics ORDER BY zone_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ZoneRevenueStat, error) {
		var r model.ZoneRevenueStat
		err := row.Scan(&r.ZoneID, &r.AvgRevenue, &r.RevenueVolatility, &r.TotalTrips)
		return r, err
	})
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
