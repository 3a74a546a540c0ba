// Package astro contains the angular math and the aspect catalogue used to
// classify separations between ecliptic longitudes.
package astro

import "math"

// Full circle and half circle in degrees.
const (
	circleDegrees = 360.0
	halfCircle    = 180.0
)

// Normalize maps an angle in degrees onto [0, 360).
// Negative inputs wrap: Normalize(-30) == 330.
func Normalize(deg float64) float64 {
	m := math.Mod(deg, circleDegrees)
	if m < 0 {
		m += circleDegrees
	}
	return m
}

// Separation returns the minimal rotation between two directions on the
// circle, in [0, 180]. It is commutative: Separation(a, b) == Separation(b, a).
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a - b))
	e := math.Abs(Normalize(b - a))
	return math.Min(math.Min(d, e), circleDegrees-d)
}

// Position pairs a body or reference-point name with an ecliptic longitude
// in degrees. Longitudes are stored normalized to [0, 360).
type Position struct {
	Name      string
	Longitude float64
}

// NewPosition builds a Position with a normalized longitude.
func NewPosition(name string, lon float64) Position {
	return Position{Name: name, Longitude: Normalize(lon)}
}
