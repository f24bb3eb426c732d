// Package config provides centralized configuration management for the
// ingester. It loads configuration from environment variables (with optional
// .env support) and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Engine names for the destination storage.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Dataset  DatasetConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds destination storage settings.
type DatabaseConfig struct {
	// Engine selects the sink: "postgres" or "sqlite" (default: postgres)
	Engine string `env:"DB_ENGINE" default:"postgres"`

	// URL is the PostgreSQL maintenance connection string, pointing at a
	// database that already exists (required for the postgres engine).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Name is the destination database, created if missing (default: netflix_titles_db)
	Name string `env:"DB_NAME" default:"netflix_titles_db"`

	// SQLitePath is the database file for the sqlite engine (default: netflix_titles.db)
	SQLitePath string `env:"SQLITE_PATH" default:"netflix_titles.db"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// DatasetConfig holds source dataset settings.
type DatasetConfig struct {
	// CSVPath is the wide source table to normalize (default: datasets/netflix_titles.csv)
	CSVPath string `env:"DATASET_CSV" default:"datasets/netflix_titles.csv"`

	// MaxFileSize is the maximum allowed CSV size in bytes (default: 100MB)
	MaxFileSize int64 `env:"DATASET_MAX_FILE_SIZE" default:"104857600"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TargetURL returns the PostgreSQL connection string for the destination
// database, derived from the maintenance URL with the path swapped for Name.
func (c *DatabaseConfig) TargetURL() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse database URL: %w", err)
	}
	u.Path = "/" + c.Name
	return u.String(), nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Engine {
	case EnginePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres engine")
		}
		if c.Database.Name == "" {
			errs = append(errs, "DB_NAME must not be empty")
		}
	case EngineSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_ENGINE (%q) must be one of: postgres, sqlite", c.Database.Engine))
	}

	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Dataset.CSVPath == "" {
		errs = append(errs, "DATASET_CSV must not be empty")
	}
	if c.Dataset.MaxFileSize <= 0 {
		errs = append(errs, "DATASET_MAX_FILE_SIZE must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Database: {Engine: %q, URL: [MASKED], Name: %q, MaxConns: %d, MinConns: %d}, ",
		c.Database.Engine, c.Database.Name, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Dataset: {CSVPath: %q, MaxFileSize: %d}, ",
		c.Dataset.CSVPath, c.Dataset.MaxFileSize))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
