// Package config defines service configuration and how it is loaded.
package config

import (
	"time"

	"github.com/okian/depthchart/internal/domain/roster"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the player store: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// RateLimitPerSecond and RateLimitBurst bound mutating requests per client IP.
	// A zero rate disables limiting.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	RateLimitBurst     int     `koanf:"rate_limit_burst"`

	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Games lists the supported games and their positions.
	Games []roster.Game `koanf:"games"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Store:              StoreMemory,
		SQLitePath:         "depthchart.db",
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    10 * time.Second,
		Games:              DefaultGames(),
	}
}

// DefaultGames is the roster used when no games are configured.
func DefaultGames() []roster.Game {
	return []roster.Game{
		{Name: "NFL", Positions: []string{"QB", "WR", "RB", "TE", "K", "P", "KR", "PR", "LWR", "RWR", "SWR"}},
		{Name: "NHL", Positions: []string{"LW", "RW", "C", "D", "G"}},
		{Name: "MLB", Positions: []string{"SP", "RP", "C", "1B", "2B", "3B", "SS", "LF", "RF", "CF", "DH"}},
	}
}
