// Package store provides the SQLite-backed trip and metrics storage.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theirongolddev/zonerisk/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrMissingPrerequisite means the database or its tables have not been
// provisioned. Run `zonerisk init` first.
var ErrMissingPrerequisite = errors.New("storage not provisioned")

// Store provides SQLite-backed trip and metrics storage.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}
	return open(dbPath)
}

// OpenExisting opens the database only if the file already exists.
func OpenExisting(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: database %s not found", ErrMissingPrerequisite, dbPath)
		}
		return nil, err
	}
	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates all tables. It is safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Ready returns ErrMissingPrerequisite if any required table is absent.
func (s *Store) Ready(ctx context.Context) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tableNames)), ",")
	args := make([]any, len(tableNames))
	for i, n := range tableNames {
		args[i] = n
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ("+placeholders+")",
		args...,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if count != len(tableNames) {
		return fmt.Errorf("%w: %d of %d tables present", ErrMissingPrerequisite, count, len(tableNames))
	}
	return nil
}

// ClearTrips deletes every ingested trip.
func (s *Store) ClearTrips(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM taxi_trips")
	return err
}

// InsertTrips appends trips in a single transaction.
func (s *Store) InsertTrips(ctx context.Context, trips []model.TripRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO taxi_trips
		(tpep_pickup_datetime, tpep_dropoff_datetime, pulocation_id, total_amount)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range trips {
		var amount sql.NullFloat64
		if t.TotalAmount != nil {
			amount = sql.NullFloat64{Float64: *t.TotalAmount, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, nullString(t.PickupRaw), nullString(t.DropoffRaw), t.ZoneID, amount); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TripCount returns the number of stored trips.
func (s *Store) TripCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM taxi_trips").Scan(&count)
	return count, err
}

// EachTrip streams all trips in insertion order. Amounts stored as
// non-numeric text surface as a nil TotalAmount.
func (s *Store) EachTrip(ctx context.Context, fn func(model.TripRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT
		tpep_pickup_datetime, tpep_dropoff_datetime, pulocation_id, total_amount
		FROM taxi_trips ORDER BY id`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pickup, dropoff sql.NullString
		var amount any
		var t model.TripRecord
		if err := rows.Scan(&pickup, &dropoff, &t.ZoneID, &amount); err != nil {
			return err
		}
		t.PickupRaw = pickup.String
		t.DropoffRaw = dropoff.String
		t.TotalAmount = coerceAmount(amount)
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

// UpsertZones inserts or replaces zone dimension rows by zone_id.
func (s *Store) UpsertZones(ctx context.Context, zones []model.Zone) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, z := range zones {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO zones
			(zone_id, borough, zone_name, service_zone) VALUES (?, ?, ?, ?)`,
			z.ZoneID, z.Borough, z.Name, z.ServiceZone)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveRun upserts revenue stats and replaces the zone-hour metrics table.
// New rows are staged in a temp table first, then swapped in; the whole
// write commits or rolls back as one transaction.
func (s *Store) SaveRun(ctx context.Context, revenue []model.ZoneRevenueStat, metrics []model.ZoneHourMetric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range revenue {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO zone_revenue_metrics
			(zone_id, revenue_volatility, avg_revenue, total_trips) VALUES (?, ?, ?, ?)`,
			r.ZoneID, r.RevenueVolatility, r.AvgRevenue, r.TotalTrips)
		if err != nil {
			return fmt.Errorf("upserting revenue for zone %d: %w", r.ZoneID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, stageSQL); err != nil {
		return fmt.Errorf("creating stage table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM zone_hourly_metrics_stage"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO zone_hourly_metrics_stage
		(zone_id, hour, trip_count, exposure_index, avg_trip_duration_min, congestion_index, risk_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, m.ZoneID, m.Hour, m.TripCount, m.ExposureIndex,
			m.AvgTripDurationMin, m.CongestionIndex, m.RiskScore); err != nil {
			return fmt.Errorf("staging zone %d hour %d: %w", m.ZoneID, m.Hour, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM zone_hourly_metrics"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO zone_hourly_metrics
		SELECT zone_id, hour, trip_count, exposure_index, avg_trip_duration_min, congestion_index, risk_score
		FROM zone_hourly_metrics_stage`); err != nil {
		return fmt.Errorf("swapping metrics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE zone_hourly_metrics_stage"); err != nil {
		return err
	}

	return tx.Commit()
}

// RiskByHour returns the metrics for one hour, highest risk first.
func (s *Store) RiskByHour(ctx context.Context, hour int) ([]model.RiskRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		m.zone_id, m.hour, m.trip_count, m.exposure_index, m.avg_trip_duration_min,
		m.congestion_index, m.risk_score, z.borough, z.zone_name
		FROM zone_hourly_metrics m
		LEFT JOIN zones z ON z.zone_id = m.zone_id
		WHERE m.hour = ?
		ORDER BY m.risk_score DESC, m.zone_id ASC`, hour)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.RiskRow
	for rows.Next() {
		var r model.RiskRow
		var borough, name sql.NullString
		if err := rows.Scan(&r.ZoneID, &r.Hour, &r.TripCount, &r.ExposureIndex,
			&r.AvgTripDurationMin, &r.CongestionIndex, &r.RiskScore, &borough, &name); err != nil {
			return nil, err
		}
		r.Borough = borough.String
		r.ZoneName = name.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// RevenueStats returns all revenue rows ordered by zone.
func (s *Store) RevenueStats(ctx context.Context) ([]model.ZoneRevenueStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT zone_id, avg_revenue, revenue_volatility, total_trips
		FROM zone_revenue_metrics ORDER BY zone_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ZoneRevenueStat
	for rows.Next() {
		var r model.ZoneRevenueStat
		if err := rows.Scan(&r.ZoneID, &r.AvgRevenue, &r.RevenueVolatility, &r.TotalTrips); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// coerceAmount converts a dynamically typed SQLite value to a float.
// Text that does not parse yields nil.
func coerceAmount(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
