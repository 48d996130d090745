// Package config loads and validates zonerisk configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrInvalidWeights is returned when risk weights are out of range or do not sum to 1.
var ErrInvalidWeights = errors.New("invalid risk weights")

// Driver names accepted in general.db_driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all zonerisk configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Weights Weights       `toml:"weights"`
	Ingest  IngestConfig  `toml:"ingest"`
	Serve   ServeConfig   `toml:"serve"`
	Redis   RedisConfig   `toml:"redis"`
}

// GeneralConfig holds storage and logging preferences.
type GeneralConfig struct {
	DBDriver    string `toml:"db_driver"`
	DBPath      string `toml:"db_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	TripFile    string `toml:"trip_file,omitempty"`
	LogLevel    string `toml:"log_level"`
	LogJSON     bool   `toml:"log_json"`
	Theme       string `toml:"theme"`
}

// Weights are the risk score coefficients.
type Weights struct {
	Exposure   float64 `toml:"exposure"`
	Congestion float64 `toml:"congestion"`
	Volatility float64 `toml:"volatility"`
}

// IngestConfig controls trip file loading.
type IngestConfig struct {
	BatchSize int `toml:"batch_size"`
}

// ServeConfig controls the background daemon.
type ServeConfig struct {
	Addr         string `toml:"addr"`
	Schedule     string `toml:"schedule"`
	EventsBuffer int    `toml:"events_buffer"`
	ReportLimit  int    `toml:"report_limit"`
}

// RedisConfig controls run notifications. An empty URL disables them.
type RedisConfig struct {
	URL     string `toml:"url,omitempty"`
	Channel string `toml:"channel"`
}

// DefaultWeights returns the standard 0.4 / 0.3 / 0.3 split.
func DefaultWeights() Weights {
	return Weights{Exposure: 0.4, Congestion: 0.3, Volatility: 0.3}
}

// Validate checks that every weight is in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"exposure":   w.Exposure,
		"congestion": w.Congestion,
		"volatility": w.Volatility,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v outside [0,1]", ErrInvalidWeights, name, v)
		}
	}
	sum := w.Exposure + w.Congestion + w.Volatility
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: sum is %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DBDriver: DriverSQLite,
			DBPath:   filepath.Join(DataDir(), "zonerisk.db"),
			LogLevel: "info",
			Theme:    "flexoki-dark",
		},
		Weights: DefaultWeights(),
		Ingest: IngestConfig{
			BatchSize: 5000,
		},
		Serve: ServeConfig{
			Addr:         "127.0.0.1:8788",
			Schedule:     "@every 1h",
			EventsBuffer: 200,
			ReportLimit:  20,
		},
		Redis: RedisConfig{
			Channel: "zonerisk:runs",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zonerisk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "zonerisk")
}

// DataDir returns the XDG-compliant data directory holding the SQLite database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "zonerisk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "zonerisk")
}

// Path returns the full path to the default config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path, returning defaults if it doesn't exist.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.General.DBDriver {
	case DriverSQLite:
		if c.General.DBPath == "" {
			return errors.New("general.db_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.General.PostgresDSN == "" {
			return errors.New("general.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown general.db_driver %q", c.General.DBDriver)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	return c.Weights.Validate()
}

func applyEnv(cfg *Config) {
	if dsn := os.Getenv("ZONERISK_POSTGRES_DSN"); dsn != "" {
		cfg.General.PostgresDSN = dsn
	}
	if url := os.Getenv("ZONERISK_REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
}

// Save writes the config to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
