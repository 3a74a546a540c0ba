// Package worker defines worker contracts for asynchronous transit scans.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/lunalira/transit/internal/adapters/mq/queue"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/internal/domain/scan"
	"github.com/lunalira/transit/pkg/logger"
	"github.com/lunalira/transit/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the scan.Job type for consistency.
type Job = scan.Job

// Scanner runs one symbol scan and returns its event table.
type Scanner interface {
	Scan(ctx context.Context, spec scan.Spec) ([]model.AspectEvent, error)
}

// Recorder receives the outcome of one job: either the symbol's surviving
// events or the reason the symbol produced nothing.
type Recorder interface {
	RecordEvents(ctx context.Context, runID, symbol string, events []model.AspectEvent) error
	RecordFailure(ctx context.Context, runID, symbol, reason string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes scan jobs and records their results using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing scan jobs.
type InMemoryWorker struct {
	queue    Queue
	scanner  Scanner
	recorder Recorder
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scanner Scanner, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scanner:  scanner,
		recorder: recorder,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing scan job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob scans one symbol and records the outcome. A scan failure is
// recorded as a diagnostic on the run so the other symbols stay unaffected.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	scanStart := time.Now()
	events, err := w.scanner.Scan(ctx, job.Spec())
	metrics.RecordScanLatency(float64(time.Since(scanStart).Milliseconds()))

	if err != nil {
		metrics.RecordScanFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scan_error")
		metrics.RecordErrorByType("scan_error", "high")
		w.logger.Error(ctx, "scan failed for symbol",
			logger.String("runID", job.RunID),
			logger.String("symbol", job.Symbol),
			logger.Error(err),
		)
		if rerr := w.recorder.RecordFailure(ctx, job.RunID, job.Symbol, err.Error()); rerr != nil {
			return fmt.Errorf("recording scan failure for %s: %w", job.Symbol, rerr)
		}
		return fmt.Errorf("scan failed for %s: %w", job.Symbol, err)
	}

	// Min-score filter: only events at or above the threshold survive.
	filtered := make([]model.AspectEvent, 0, len(events))
	for _, ev := range events {
		if ev.Score >= job.MinScore {
			filtered = append(filtered, ev)
		}
	}

	if err := w.recorder.RecordEvents(ctx, job.RunID, job.Symbol, filtered); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		metrics.RecordErrorByType("record_error", "high")
		w.logger.Error(ctx, "recording scan results failed",
			logger.String("runID", job.RunID),
			logger.String("symbol", job.Symbol),
			logger.Error(err),
		)
		return fmt.Errorf("recording scan results for %s: %w", job.Symbol, err)
	}

	metrics.RecordScanCompleted()
	for _, ev := range filtered {
		metrics.RecordAspectEvent(string(ev.Source))
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	scanner  Scanner
	recorder Recorder

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, scanner Scanner, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		scanner:  scanner,
		recorder: recorder,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			scanner,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that refreshes worker
// gauges.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerCount(len(p.workers))
		}
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	// Signal every worker before waiting on any of them
	for _, worker := range p.workers {
		select {
		case <-worker.shutdown:
			// already signalled
		default:
			close(worker.shutdown)
		}
	}

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
