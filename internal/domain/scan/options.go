package scan

import (
	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithExchangeChart replaces the fixed exchange reference chart.
func WithExchangeChart(chart []astro.Position) Option {
	return func(e *Engine) {
		if len(chart) > 0 {
			e.exchange = chart
		}
	}
}

// WithBodies replaces the set of tracked transit bodies.
func WithBodies(bodies []string) Option {
	return func(e *Engine) {
		if len(bodies) > 0 {
			e.bodies = bodies
		}
	}
}

// WithCalendar restricts sampling to dates the calendar marks as business
// days. Without a calendar every date in range is eligible.
func WithCalendar(cal Calendar) Option {
	return func(e *Engine) {
		e.calendar = cal
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
