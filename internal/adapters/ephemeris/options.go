package ephemeris

import "time"

// Option applies a configuration option to the Analytic ephemeris.
type Option func(*Analytic)

// WithLocation sets the location wall-clock instants are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(a *Analytic) {
		if loc != nil {
			a.loc = loc
		}
	}
}
