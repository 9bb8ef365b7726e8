// Package config loads the service configuration from YAML with environment
// overrides for the listen address.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config is the whole service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	ML       MLConfig       `yaml:"ml"`
	Database DatabaseConfig `yaml:"database"`
}

// HTTPConfig configures the listener and request limits.
type HTTPConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// LogConfig configures logging.New.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	File       string `yaml:"file"`   // rotated by lumberjack when set
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DatasetConfig names where training rows come from.
type DatasetConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	Watch  bool   `yaml:"watch"`
}

// MLConfig tunes the classifier.
type MLConfig struct {
	VarSmoothing float64 `yaml:"var_smoothing"`
}

// DatabaseConfig points at the SQLite file holding the training log. An
// empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   64 << 10,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Dataset: DatasetConfig{
			Source: SourceCSV,
			Path:   "heart.csv",
			Table:  "heart_records",
		},
		ML: MLConfig{
			VarSmoothing: 1e-9,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// HEARTCHECK_HOST and HEARTCHECK_PORT override the listen address.
func Load(path string) (*Config, error) {
	cfg := Default()

	payload, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(payload, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.HTTP.Host = getEnv("HEARTCHECK_HOST", cfg.HTTP.Host)
	if port := os.Getenv("HEARTCHECK_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("HEARTCHECK_PORT: %w", err)
		}
		cfg.HTTP.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be served.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	switch c.Dataset.Source {
	case SourceCSV, SourceSQLite:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for %s source", c.Dataset.Source)
		}
	case SourcePostgres:
		if c.Dataset.DSN == "" {
			return errors.New("dataset.dsn is required for postgres source")
		}
	default:
		return fmt.Errorf("unknown dataset.source %q", c.Dataset.Source)
	}
	if c.Dataset.Table == "" {
		return errors.New("dataset.table is required")
	}
	if c.ML.VarSmoothing <= 0 {
		return errors.New("ml.var_smoothing must be positive")
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
