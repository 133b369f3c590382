// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Candidate sources.
const (
	SourceCatalog = "catalog"
	SourceTMDB    = "tmdb"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the session store: memory, badger or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// StorePath is the badger directory or the sqlite database file.
	StorePath string `koanf:"store_path"`

	// CandidateSource selects where figures come from: catalog or tmdb.
	CandidateSource string `koanf:"candidate_source"`

	// CatalogPath points at a YAML catalog. Empty uses the built-in catalog.
	CatalogPath string `koanf:"catalog_path"`

	TMDBBaseURL           string  `koanf:"tmdb_base_url"`
	TMDBToken             string  `koanf:"tmdb_token"`
	TMDBPages             int     `koanf:"tmdb_pages"`
	TMDBRequestsPerSecond float64 `koanf:"tmdb_requests_per_second"`

	// FiguresPerSession is the number of figures drawn for each session.
	FiguresPerSession int `koanf:"figures_per_session"`

	// MinFigures is the smallest usable pool a session can start from.
	MinFigures int `koanf:"min_figures"`

	// PoolTTLSeconds controls how long a fetched candidate pool is reused.
	PoolTTLSeconds int `koanf:"pool_ttl_seconds"`

	// RateLimitPerMinute caps session requests per client IP. Zero disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// ShuffleSeed makes figure selection reproducible. Zero seeds from time.
	ShuffleSeed int64 `koanf:"shuffle_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		StoreBackend:          StoreMemory,
		CandidateSource:       SourceCatalog,
		TMDBBaseURL:           "https://api.themoviedb.org/3",
		TMDBPages:             3,
		TMDBRequestsPerSecond: 4,
		FiguresPerSession:     40,
		MinFigures:            5,
		PoolTTLSeconds:        3600,
		RateLimitPerMinute:    120,
	}
}

// PoolTTL returns the pool cache lifetime.
func (c *Config) PoolTTL() time.Duration {
	return time.Duration(c.PoolTTLSeconds) * time.Second
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel):
		return fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	case !slices.Contains([]string{StoreMemory, StoreBadger, StoreSQLite}, c.StoreBackend):
		return fmt.Errorf("store_backend %q: %w", c.StoreBackend, ErrInvalidConfig)
	case c.StoreBackend != StoreMemory && c.StorePath == "":
		return fmt.Errorf("store_path is required for %s: %w", c.StoreBackend, ErrInvalidConfig)
	case c.CandidateSource != SourceCatalog && c.CandidateSource != SourceTMDB:
		return fmt.Errorf("candidate_source %q: %w", c.CandidateSource, ErrInvalidConfig)
	case c.CandidateSource == SourceTMDB && c.TMDBToken == "":
		return fmt.Errorf("tmdb_token is required for the tmdb source: %w", ErrInvalidConfig)
	case c.CandidateSource == SourceTMDB && c.TMDBPages < 1:
		return fmt.Errorf("tmdb_pages must be positive: %w", ErrInvalidConfig)
	case c.CandidateSource == SourceTMDB && c.TMDBRequestsPerSecond <= 0:
		return fmt.Errorf("tmdb_requests_per_second must be positive: %w", ErrInvalidConfig)
	case c.FiguresPerSession < 1:
		return fmt.Errorf("figures_per_session must be positive: %w", ErrInvalidConfig)
	case c.MinFigures < 1:
		return fmt.Errorf("min_figures must be positive: %w", ErrInvalidConfig)
	case c.PoolTTLSeconds < 0 || c.RateLimitPerMinute < 0:
		return fmt.Errorf("pool_ttl_seconds and rate_limit_per_minute must not be negative: %w", ErrInvalidConfig)
	}
	return nil
}
