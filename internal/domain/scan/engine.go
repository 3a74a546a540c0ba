package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/internal/domain/orbtrack"
	"github.com/lunalira/transit/pkg/logger"
)

// Ephemeris is the external collaborator that resolves ecliptic longitudes.
// Implementations must be deterministic: identical instants yield identical
// longitudes for the fixed set of tracked bodies.
type Ephemeris interface {
	LongitudesAt(ctx context.Context, at time.Time) (map[string]float64, error)
}

// Calendar reports which calendar dates may be sampled at all. It exists so
// scans can be restricted to exchange trading days.
type Calendar interface {
	IsBusinessDay(date time.Time) bool
}

// Spec describes one engine scan: one symbol over one date range under one
// time-selection policy.
type Spec struct {
	Symbol      string
	ListingDate time.Time // the symbol's reference event date
	Start       time.Time
	End         time.Time
	Policy      TimePolicy

	// Catalogue overrides the engine's default aspect catalogue for this
	// scan only. Nil keeps the default.
	Catalogue *astro.Catalogue

	// TradingDaysOnly restricts sampling to the engine calendar's business
	// days. Without a calendar the flag has no effect.
	TradingDaysOnly bool
}

// Engine walks a date range, sampling transit longitudes at each instant the
// policy selects and accumulating aspect events against the symbol's IPO
// chart, the fixed exchange chart, and the transit bodies themselves.
type Engine struct {
	ephemeris Ephemeris
	catalogue *astro.Catalogue
	exchange  []astro.Position
	bodies    []string
	calendar  Calendar
	log       logger.Logger
}

// NewEngine constructs an engine around an ephemeris collaborator and an
// aspect catalogue.
func NewEngine(eph Ephemeris, cat *astro.Catalogue, opts ...Option) *Engine {
	e := &Engine{
		ephemeris: eph,
		catalogue: cat,
		exchange:  astro.NYSEChart(),
		bodies:    astro.TransitBodies(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = logger.Get().Named("scan")
	}
	return e
}

// Scan runs one scan and returns the accumulated, deduplicated event table.
// Endpoints given in reverse order are swapped. A failure while sampling a
// single instant is logged and skipped; the scan continues with the next
// instant. Only a failed reference-chart resolution fails the whole scan,
// since every IPO comparison depends on it.
func (e *Engine) Scan(ctx context.Context, spec Spec) ([]model.AspectEvent, error) {
	policy := spec.Policy
	if policy == nil {
		policy = FixedDaily{Time: MarketOpen()}
	}

	cat := e.catalogue
	if spec.Catalogue != nil {
		cat = spec.Catalogue
	}

	start, end := model.Day(spec.Start), model.Day(spec.End)
	if start.After(end) {
		start, end = end, start
	}

	refInstant := policy.Reference().On(model.Day(spec.ListingDate))
	refLongitudes, err := e.ephemeris.LongitudesAt(ctx, refInstant)
	if err != nil {
		return nil, fmt.Errorf("resolving reference chart for %s: %w", spec.Symbol, err)
	}
	ipoChart := e.positions(refLongitudes)

	acc := newAccumulator(spec.Symbol, orbtrack.NewInMemoryTracker(), policy.Multiple())

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if spec.TradingDaysOnly && e.calendar != nil && !e.calendar.IsBusinessDay(day) {
			continue
		}
		for _, tod := range policy.Times(day) {
			if err := ctx.Err(); err != nil {
				return acc.Events(), fmt.Errorf("scan interrupted: %w", err)
			}

			at := tod.On(day)
			longitudes, err := e.ephemeris.LongitudesAt(ctx, at)
			if err != nil {
				e.log.Warn(ctx, "skipping instant after ephemeris failure",
					logger.String("symbol", spec.Symbol),
					logger.String("at", at.Format(time.RFC3339)),
					logger.Error(err),
				)
				continue
			}

			transit := e.positions(longitudes)
			acc.observePairs(ctx, at, model.SourceIPO, transit, ipoChart, cat)
			acc.observePairs(ctx, at, model.SourceNYSE, transit, e.exchange, cat)
			acc.observeMutual(ctx, at, transit, cat)
		}
	}

	return acc.Events(), nil
}

// positions projects an ephemeris longitude map onto the tracked bodies in
// canonical order, dropping bodies the collaborator did not return.
func (e *Engine) positions(longitudes map[string]float64) []astro.Position {
	out := make([]astro.Position, 0, len(e.bodies))
	for _, name := range e.bodies {
		lon, ok := longitudes[name]
		if !ok {
			continue
		}
		out = append(out, astro.NewPosition(name, lon))
	}
	return out
}
