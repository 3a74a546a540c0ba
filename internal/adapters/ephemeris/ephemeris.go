// Package ephemeris resolves geocentric ecliptic longitudes for the ten
// tracked bodies from closed-form orbital theory. It keeps the scan engine
// deterministic: the same instant always maps to the same longitudes, with
// no kernel files or network calls involved.
package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/pkg/metrics"
)

// Mean-element fits hold between these years; outside them the theory
// degrades enough that lookups are refused instead of silently drifting.
const (
	minYear = 1800
	maxYear = 2050
)

// Analytic computes longitudes from Keplerian mean elements with secular
// rates. Wall-clock fields of incoming instants are interpreted in the
// configured location before conversion to UTC.
type Analytic struct {
	loc *time.Location
}

// New builds an ephemeris interpreting instants in America/New_York unless
// WithLocation overrides it.
func New(opts ...Option) (*Analytic, error) {
	a := &Analytic{}
	for _, opt := range opts {
		opt(a)
	}

	if a.loc == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return nil, fmt.Errorf("loading default ephemeris location: %w", err)
		}
		a.loc = loc
	}
	return a, nil
}

// Loc returns the location instants are interpreted in.
func (a *Analytic) Loc() *time.Location {
	return a.loc
}

// LongitudesAt resolves the geocentric ecliptic longitudes, in degrees on
// [0, 360), of Sun, Moon and the eight planets at the given instant.
func (a *Analytic) LongitudesAt(ctx context.Context, at time.Time) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local := a.rebind(at)
	if y := local.Year(); y < minYear || y > maxYear {
		metrics.RecordEphemerisError()
		metrics.RecordInstantSkipped()
		return nil, fmt.Errorf("instant %s outside supported ephemeris range %d-%d",
			local.Format(time.RFC3339), minYear, maxYear)
	}

	t := centuriesSinceJ2000(julianDay(local.UTC()))
	earth := heliocentric(elementsEarth, t)

	out := make(map[string]float64, 10)
	out[astro.Sun] = astro.Normalize(degrees(math.Atan2(-earth.y, -earth.x)))
	out[astro.Moon] = lunarLongitude(t)
	for name, el := range elementsPlanets {
		p := heliocentric(el, t)
		out[name] = astro.Normalize(degrees(math.Atan2(p.y-earth.y, p.x-earth.x)))
	}
	metrics.RecordInstantSampled()
	return out, nil
}

// rebind reinterprets the instant's wall-clock fields in the configured
// location, matching how scan instants are specified.
func (a *Analytic) rebind(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(),
		at.Hour(), at.Minute(), at.Second(), 0, a.loc)
}

// julianDay converts a UTC instant to a Julian day number.
func julianDay(utc time.Time) float64 {
	return float64(utc.Unix())/86400.0 + 2440587.5
}

// centuriesSinceJ2000 is the standard time argument of the element fits.
func centuriesSinceJ2000(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}
