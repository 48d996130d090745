package store

// tableNames are the tables Ready requires.
var tableNames = []string{
	"taxi_trips",
	"zones",
	"zone_revenue_metrics",
	"zone_hourly_metrics",
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS taxi_trips (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    tpep_pickup_datetime   TEXT,
    tpep_dropoff_datetime  TEXT,
    pulocation_id          INTEGER NOT NULL,
    total_amount           REAL
);

CREATE TABLE IF NOT EXISTS zones (
    zone_id                INTEGER PRIMARY KEY,
    borough                TEXT,
    zone_name              TEXT,
    service_zone           TEXT
);

CREATE TABLE IF NOT EXISTS zone_revenue_metrics (
    zone_id                INTEGER PRIMARY KEY,
    revenue_volatility     REAL NOT NULL,
    avg_revenue            REAL NOT NULL,
    total_trips            INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS zone_hourly_metrics (
    zone_id                INTEGER NOT NULL,
    hour                   INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
    trip_count             INTEGER NOT NULL,
    exposure_index         REAL NOT NULL,
    avg_trip_duration_min  REAL NOT NULL,
    congestion_index       REAL NOT NULL,
    risk_score             REAL NOT NULL,
    PRIMARY KEY (zone_id, hour)
);

CREATE INDEX IF NOT EXISTS idx_taxi_trips_zone ON taxi_trips(pulocation_id);
CREATE INDEX IF NOT EXISTS idx_zone_hourly_hour ON zone_hourly_metrics(hour, risk_score DESC);
`

const stageSQL = `
CREATE TEMP TABLE IF NOT EXISTS zone_hourly_metrics_stage (
    zone_id                INTEGER NOT NULL,
    hour                   INTEGER NOT NULL,
    trip_count             INTEGER NOT NULL,
    exposure_index         REAL NOT NULL,
    avg_trip_duration_min  REAL NOT NULL,
    congestion_index       REAL NOT NULL,
    risk_score             REAL NOT NULL
)`
