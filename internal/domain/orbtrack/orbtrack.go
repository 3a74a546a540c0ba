// Package orbtrack defines the interface for tightest-orb tracking.
//
// A scan samples the same aspect relationship at many instants; only the
// occurrence with the smallest residual may stand. The tracker records the
// best residual seen per key and reports whether a new observation improves
// on it.
package orbtrack

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records the smallest residual observed per aspect key.
type Tracker interface {
	// Observe atomically compares residual against the best recorded value
	// for key. It returns true and records the residual when the key is new
	// or the residual is strictly smaller than the recorded best; equal or
	// larger residuals return false and leave the record untouched.
	Observe(ctx context.Context, key string, residual float64) bool

	// Best returns the smallest residual recorded for key, if any.
	Best(ctx context.Context, key string) (float64, bool)

	// Size returns the number of tracked keys.
	Size() int64
}

// inMemoryTracker implements Tracker with a plain map. A scan owns exactly
// one tracker and discards it at completion, so the map never needs
// eviction.
type inMemoryTracker struct {
	mu           sync.RWMutex
	best         map[string]float64
	capacityHint int
	size         atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		capacityHint: defaultCapacityHint,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.best = make(map[string]float64, t.capacityHint)
	return t
}

// Observe atomically records residual when it improves on the best seen.
func (t *inMemoryTracker) Observe(_ context.Context, key string, residual float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, exists := t.best[key]
	if exists && residual >= prev {
		return false
	}
	t.best[key] = residual
	if !exists {
		t.size.Add(1)
	}
	return true
}

// Best returns the smallest residual recorded for key.
func (t *inMemoryTracker) Best(_ context.Context, key string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.best[key]
	return r, ok
}

// Size returns the number of tracked keys.
func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}
