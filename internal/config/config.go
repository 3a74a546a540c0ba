// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/lunalira/transit/internal/domain/astro"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory scan job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scan workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// DefaultMinScore is the score filter applied when a request omits one.
	// The lowest catalogue score keeps everything.
	DefaultMinScore float64 `koanf:"default_min_score"`

	// DefaultScanTime is the wall-clock sampling time when a request gives
	// no time policy, as "HH:MM".
	DefaultScanTime string `koanf:"default_scan_time"`

	// StepMinutes is the sampling step for stepped time ranges.
	StepMinutes int `koanf:"step_minutes"`

	// Timezone names the location scan instants are interpreted in.
	Timezone string `koanf:"timezone"`

	// TradingDaysOnly restricts scans to exchange business days.
	TradingDaysOnly bool `koanf:"trading_days_only"`

	// Orbs maps aspect names to their maximum orb in degrees.
	Orbs map[string]float64 `koanf:"orbs"`

	// Scores maps aspect names to their event score.
	Scores map[string]float64 `koanf:"scores"`
}

// New creates a Config with the service defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU(),
		MaxRankingLimit: 100,
		DefaultMinScore: -5,
		DefaultScanTime: "09:30",
		StepMinutes:     30,
		Timezone:        "America/New_York",
		TradingDaysOnly: false,
		Orbs:            astro.DefaultOrbs(),
		Scores:          astro.DefaultScores(),
	}
}
