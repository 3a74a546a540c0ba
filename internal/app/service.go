// Package service wires the scan pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scmhub/calendar"

	"github.com/lunalira/transit/internal/adapters/ephemeris"
	jobqueue "github.com/lunalira/transit/internal/adapters/mq/queue"
	workerpool "github.com/lunalira/transit/internal/adapters/mq/worker"
	repository "github.com/lunalira/transit/internal/adapters/repository"
	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/internal/domain/scan"
	"github.com/lunalira/transit/internal/domain/types"
	"github.com/lunalira/transit/pkg/logger"
	"github.com/lunalira/transit/pkg/metrics"
)

// nyseMIC is the ISO 10383 market identifier the trading calendar is
// resolved from.
const nyseMIC = "xnys"

// RunRequest describes one analysis run: the symbols to scan, the date
// range, and the knobs that override the service defaults when set.
type RunRequest struct {
	Listings []model.Listing
	Start    time.Time
	End      time.Time

	// Policy selects the wall-clock sampling times. Nil samples once per
	// day at the service's default scan time.
	Policy scan.TimePolicy

	// Orbs and Scores partially override the default aspect catalogue for
	// this run only.
	Orbs   map[string]float64
	Scores map[string]float64

	// MinScore drops events scoring below it. Nil uses the service default.
	MinScore *float64

	// TradingDaysOnly restricts sampling to exchange business days. Nil
	// uses the service default.
	TradingDaysOnly *bool
}

// Service implements the API dependencies for the transit scan system. It
// owns the ranking store, the run records, the scan queue, and the worker
// pool, and acts as the pool's result recorder.
type Service struct {
	mu sync.RWMutex

	// Core components
	rankings  repository.Store
	runs      *repository.RunStore
	jobQueue  jobqueue.Queue
	engine    *scan.Engine
	pool      *workerpool.Pool
	ephemeris *ephemeris.Analytic

	// Configuration
	workerCount     int
	queueSize       int
	defaultMinScore float64
	defaultScanTime scan.TimeOfDay
	stepMinutes     int
	timezone        string
	tradingDaysOnly bool
	orbs            map[string]float64
	scores          map[string]float64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scan workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the scan job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDefaultMinScore sets the score filter applied when a run does not
// carry its own.
func WithDefaultMinScore(min float64) Option {
	return func(s *Service) {
		s.defaultMinScore = min
	}
}

// WithDefaultScanTime sets the wall-clock time sampled when a run does not
// carry a time policy.
func WithDefaultScanTime(t scan.TimeOfDay) Option {
	return func(s *Service) {
		s.defaultScanTime = t
	}
}

// WithStepMinutes sets the default step for stepped time-range policies.
func WithStepMinutes(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.stepMinutes = minutes
		}
	}
}

// WithTimezone sets the IANA zone scan instants are bound to.
func WithTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.timezone = tz
		}
	}
}

// WithTradingDaysOnly makes runs skip non-business days unless the request
// says otherwise.
func WithTradingDaysOnly(only bool) Option {
	return func(s *Service) {
		s.tradingDaysOnly = only
	}
}

// WithOrbs sets the default per-aspect orb limits.
func WithOrbs(orbs map[string]float64) Option {
	return func(s *Service) {
		if len(orbs) > 0 {
			s.orbs = orbs
		}
	}
}

// WithScores sets the default per-aspect scores.
func WithScores(scores map[string]float64) Option {
	return func(s *Service) {
		if len(scores) > 0 {
			s.scores = scores
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       10000,
		defaultMinScore: -5,
		defaultScanTime: scan.MarketOpen(),
		stepMinutes:     30,
		timezone:        "America/New_York",
		orbs:            astro.DefaultOrbs(),
		scores:          astro.DefaultScores(),
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting transit scan service...")

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", s.timezone, err)
	}
	eph, err := ephemeris.New(ephemeris.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("building ephemeris: %w", err)
	}
	s.ephemeris = eph

	s.rankings = repository.NewTreapStore(ctx)
	s.runs = repository.NewRunStore()
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	engineOpts := []scan.Option{scan.WithLogger(s.logger.Named("scan"))}
	if cal := calendar.GetCalendar(nyseMIC); cal != nil {
		engineOpts = append(engineOpts, scan.WithCalendar(cal))
	} else {
		s.logger.Warn(ctx, "trading calendar unavailable, scanning every date",
			logger.String("mic", nyseMIC))
	}
	s.engine = scan.NewEngine(eph, astro.NewCatalogue(s.orbs, s.scores), engineOpts...)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "transit scan service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("timezone", s.timezone),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping transit scan service...")

	if s.pool != nil {
		s.pool.Stop()
	}

	if s.rankings != nil {
		if closer, ok := s.rankings.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "transit scan service stopped")
}

// SubmitRun validates a run request, records the run, and enqueues one scan
// job per symbol and sampling time. It returns the run id immediately;
// scanning happens on the worker pool. Symbols without a listing date are
// recorded as diagnostics and never enqueued.
func (s *Service) SubmitRun(ctx context.Context, req RunRequest) (string, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return "", ErrNotStarted
	}

	if len(req.Listings) == 0 {
		return "", fmt.Errorf("%w: no symbols", ErrInvalidRequest)
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return "", fmt.Errorf("%w: missing date range", ErrInvalidRequest)
	}

	minScore := s.defaultMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}
	tradingDays := s.tradingDaysOnly
	if req.TradingDaysOnly != nil {
		tradingDays = *req.TradingDaysOnly
	}

	var cat *astro.Catalogue
	if len(req.Orbs) > 0 || len(req.Scores) > 0 {
		cat = astro.NewCatalogue(
			overlay(s.orbs, req.Orbs),
			overlay(s.scores, req.Scores),
		)
	}

	policies := s.splitPolicy(req.Policy)

	var jobs []jobqueue.Job
	var missing []string
	seen := make(map[string]struct{}, len(req.Listings))
	for _, listing := range req.Listings {
		if listing.Symbol == "" {
			return "", fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
		}
		if _, dup := seen[listing.Symbol]; dup {
			continue
		}
		seen[listing.Symbol] = struct{}{}

		if listing.Date.IsZero() {
			missing = append(missing, listing.Symbol)
			continue
		}
		for _, pol := range policies {
			jobs = append(jobs, jobqueue.Job{
				Symbol:          listing.Symbol,
				ListingDate:     listing.Date,
				Start:           req.Start,
				End:             req.End,
				Policy:          pol,
				MinScore:        minScore,
				Catalogue:       cat,
				TradingDaysOnly: tradingDays,
			})
		}
	}

	runID := uuid.NewString()
	s.runs.Create(ctx, runID, len(jobs)+len(missing))
	for _, symbol := range missing {
		_ = s.runs.AddDiagnostic(ctx, runID, symbol, "missing listing date")
	}

	rejected := 0
	for _, job := range jobs {
		job.RunID = runID
		if !s.jobQueue.Enqueue(ctx, job) {
			rejected++
			_ = s.runs.AddDiagnostic(ctx, runID, job.Symbol, "scan queue full")
		}
	}

	metrics.RecordRunSubmitted()
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	metrics.UpdateRunsTotal(s.runs.Count(ctx))

	s.logger.Info(ctx, "run submitted",
		logger.String("runID", runID),
		logger.Int("jobs", len(jobs)-rejected),
		logger.Int("missing", len(missing)),
		logger.Int("rejected", rejected),
	)

	if rejected > 0 && rejected == len(jobs) {
		return runID, ErrBacklogged
	}
	return runID, nil
}

// splitPolicy turns the request's time policy into the policies actually
// scanned. A list of several explicit times becomes one tagged policy per
// distinct time, so each time of day is scanned across the full date range
// in a single pass.
func (s *Service) splitPolicy(policy scan.TimePolicy) []scan.TimePolicy {
	if policy == nil {
		return []scan.TimePolicy{scan.FixedDaily{Time: s.defaultScanTime}}
	}

	if sr, ok := policy.(scan.SteppedRange); ok {
		if sr.Step <= 0 {
			sr.Step = time.Duration(s.stepMinutes) * time.Minute
		}
		return []scan.TimePolicy{sr}
	}

	list, ok := policy.(scan.ExplicitTimes)
	if !ok {
		return []scan.TimePolicy{policy}
	}

	times := list.Times(time.Time{})
	switch len(times) {
	case 0:
		return []scan.TimePolicy{scan.FixedDaily{Time: s.defaultScanTime}}
	case 1:
		return []scan.TimePolicy{scan.FixedDaily{Time: times[0]}}
	}

	out := make([]scan.TimePolicy, 0, len(times))
	for _, t := range times {
		out = append(out, scan.TaggedDaily{Time: t})
	}
	return out
}

// RecordEvents folds one finished symbol scan into the run record and the
// per-day rankings. It is called by the worker pool.
func (s *Service) RecordEvents(ctx context.Context, runID, symbol string, events []model.AspectEvent) error {
	if err := s.runs.AppendEvents(ctx, runID, events); err != nil {
		return fmt.Errorf("recording events for run %s: %w", runID, err)
	}

	for _, ev := range events {
		if _, err := s.rankings.AddScore(ctx, ev.Date, ev.Symbol, ev.Score); err != nil {
			return fmt.Errorf("ranking %s on %s: %w", ev.Symbol, ev.Date.Format(repository.DateLayout), err)
		}
	}

	s.logger.Debug(ctx, "scan recorded",
		logger.String("runID", runID),
		logger.String("symbol", symbol),
		logger.Int("events", len(events)),
	)
	return nil
}

// RecordFailure records a failed symbol scan as a run diagnostic. It is
// called by the worker pool.
func (s *Service) RecordFailure(ctx context.Context, runID, symbol, reason string) error {
	return s.runs.AddDiagnostic(ctx, runID, symbol, reason)
}

// GetRun returns a snapshot of a run's status, diagnostics, and events.
func (s *Service) GetRun(ctx context.Context, id string) (*repository.Run, error) {
	return s.runs.Get(ctx, id)
}

// TopN returns the top n ranked symbols for one calendar date.
func (s *Service) TopN(ctx context.Context, date string, n int) ([]types.Entry, error) {
	day, err := time.Parse(repository.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, date)
	}
	return s.rankings.TopN(ctx, day, n)
}

// Rank returns one symbol's rank and accumulated score on one date.
func (s *Service) Rank(ctx context.Context, date, symbol string) (types.Entry, error) {
	day, err := time.Parse(repository.DateLayout, date)
	if err != nil {
		return types.Entry{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, date)
	}
	return s.rankings.Rank(ctx, day, symbol)
}

// BestByDay returns the top-ranked symbol of every tracked date, ascending
// by date.
func (s *Service) BestByDay(ctx context.Context) ([]types.Entry, error) {
	return s.rankings.BestByDay(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		days := s.rankings.Days(ctx)

		stats["queueLength"] = queueLen
		stats["runs"] = s.runs.Count(ctx)
		stats["rankingDays"] = len(days)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
		metrics.UpdateRunsTotal(s.runs.Count(ctx))
	}

	return stats
}

// overlay copies base and applies every override on top.
func overlay(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
