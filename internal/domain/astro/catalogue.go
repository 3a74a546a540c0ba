package astro

import "math"

// The nine aspect types, in canonical order. Resolver iteration follows this
// order, so when two configured aspects both tolerate the same separation the
// earlier one wins. That first-match behavior is a compatibility contract
// with previously published scoring tables; do not replace it with a
// smallest-residual search across names.
const (
	Conjunction  = "Conjunction"
	Opposition   = "Opposition"
	Trine        = "Trine"
	Sextile      = "Sextile"
	Square       = "Square"
	Quincunx     = "Quincunx"
	Semisextile  = "Semisextile"
	Semisquare   = "Semisquare"
	Sesquisquare = "Sesquisquare"
)

// AspectNames lists the aspect types in canonical resolution order.
func AspectNames() []string {
	return []string{
		Conjunction, Opposition, Trine, Sextile, Square,
		Quincunx, Semisextile, Semisquare, Sesquisquare,
	}
}

// aspectAngles maps each aspect type to its exact separation in degrees.
var aspectAngles = map[string]float64{
	Conjunction:  0,
	Opposition:   180,
	Trine:        120,
	Sextile:      60,
	Square:       90,
	Quincunx:     150,
	Semisextile:  30,
	Semisquare:   45,
	Sesquisquare: 135,
}

// AspectAngle returns the exact separation for a known aspect name.
func AspectAngle(name string) (float64, bool) {
	a, ok := aspectAngles[name]
	return a, ok
}

// DefaultOrbs returns the stock tolerance window per aspect, in degrees.
func DefaultOrbs() map[string]float64 {
	return map[string]float64{
		Conjunction: 5, Opposition: 5, Trine: 3, Sextile: 3,
		Square: 3, Quincunx: 2, Semisextile: 2,
		Semisquare: 2, Sesquisquare: 2,
	}
}

// DefaultScores returns the stock signed score per aspect. Positive scores
// mark harmonic aspects, negative scores disharmonic ones.
func DefaultScores() map[string]float64 {
	return map[string]float64{
		Conjunction: 5, Opposition: -5, Trine: 3, Sextile: 2,
		Square: -3, Quincunx: -1, Semisextile: 1,
		Semisquare: -1, Sesquisquare: -1,
	}
}

// Definition is one configured aspect: its exact angle, the tolerance window
// within which a separation still matches, and the signed score awarded.
type Definition struct {
	Angle float64
	Orb   float64
	Score float64
}

// Match is the result of resolving a separation against the catalogue.
type Match struct {
	Name     string
	Residual float64
	Score    float64
}

// Catalogue holds the configured aspect definitions for one analysis run.
// It is immutable once built and safe for concurrent readers.
type Catalogue struct {
	defs  map[string]Definition
	order []string
}

// NewCatalogue builds a catalogue from per-aspect orbs and scores. Only
// names from the canonical aspect table with a positive orb are kept; a
// name present in orbs but missing from scores gets score 0.
func NewCatalogue(orbs, scores map[string]float64) *Catalogue {
	c := &Catalogue{defs: make(map[string]Definition, len(aspectAngles))}
	for _, name := range AspectNames() {
		orb, ok := orbs[name]
		if !ok || orb <= 0 {
			continue
		}
		c.defs[name] = Definition{
			Angle: aspectAngles[name],
			Orb:   orb,
			Score: scores[name],
		}
		c.order = append(c.order, name)
	}
	return c
}

// DefaultCatalogue builds a catalogue from the stock orbs and scores.
func DefaultCatalogue() *Catalogue {
	return NewCatalogue(DefaultOrbs(), DefaultScores())
}

// Len returns the number of configured aspects.
func (c *Catalogue) Len() int {
	return len(c.order)
}

// Definition returns the configured definition for an aspect name.
func (c *Catalogue) Definition(name string) (Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Match resolves a separation (degrees, [0, 180]) against the catalogue.
// Aspects are tried in canonical order and the first definition whose
// |separation - angle| <= orb wins; the boundary is inclusive. The second
// return is false when no configured aspect tolerates the separation.
func (c *Catalogue) Match(separation float64) (Match, bool) {
	for _, name := range c.order {
		def := c.defs[name]
		residual := math.Abs(separation - def.Angle)
		if residual <= def.Orb {
			return Match{Name: name, Residual: residual, Score: def.Score}, true
		}
	}
	return Match{}, false
}
