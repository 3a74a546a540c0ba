package repository

import (
	"context"
	"sync"
	"time"

	"github.com/lunalira/transit/internal/domain/model"
)

// Run lifecycle states.
const (
	RunStatusPending  = "pending"
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
)

// Diagnostic records why one symbol of a run produced no events.
type Diagnostic struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Run is the state of one submitted analysis run.
type Run struct {
	ID          string              `json:"run_id"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	Total       int                 `json:"symbols_total"`
	Completed   int                 `json:"symbols_completed"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Events      []model.AspectEvent `json:"-"`
}

// RunStore tracks submitted runs in memory.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunStore constructs an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Create registers a new run covering total symbols. A run with nothing to
// scan completes immediately.
func (s *RunStore) Create(ctx context.Context, id string, total int) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Run{
		ID:        id,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
		Total:     total,
	}
	if total == 0 {
		r.Status = RunStatusComplete
	}
	s.runs[id] = r
	return snapshotRun(r)
}

// AppendEvents records one symbol's surviving events and advances the run.
func (s *RunStore) AppendEvents(ctx context.Context, id string, events []model.AspectEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	r.Events = append(r.Events, events...)
	s.advance(r)
	return nil
}

// AddDiagnostic records why one symbol produced nothing and advances the run.
func (s *RunStore) AddDiagnostic(ctx context.Context, id, symbol, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Symbol: symbol, Reason: reason})
	s.advance(r)
	return nil
}

// Get returns a copy of the run's current state.
func (s *RunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return snapshotRun(r), nil
}

// Count returns the number of tracked runs.
func (s *RunStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// advance moves the run through its lifecycle as symbols finish.
// Caller holds the lock.
func (s *RunStore) advance(r *Run) {
	r.Completed++
	switch {
	case r.Completed >= r.Total:
		r.Completed = r.Total
		r.Status = RunStatusComplete
	default:
		r.Status = RunStatusRunning
	}
}

// snapshotRun copies the run so readers never alias store-owned slices.
func snapshotRun(r *Run) *Run {
	out := *r
	out.Diagnostics = append([]Diagnostic(nil), r.Diagnostics...)
	out.Events = append([]model.AspectEvent(nil), r.Events...)
	return &out
}
