// Package orbtrack defines the interface for tightest-orb tracking.
package orbtrack

// defaultCapacityHint sizes the map for a typical single-symbol scan:
// ten bodies against three comparison sets over nine aspect types.
const defaultCapacityHint = 1024

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithCapacityHint pre-sizes the tracking map for the expected key count.
func WithCapacityHint(n int) Option {
	return func(t *inMemoryTracker) {
		if n > 0 {
			t.capacityHint = n
		}
	}
}
