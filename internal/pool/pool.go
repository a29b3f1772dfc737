// Package pool runs jobs on a fixed-size pool of workers fed by a
// pre-filled queue.
package pool

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"fanout/internal/apperrors"
	"fanout/internal/job"
)

// Launcher runs a single job. The returned error mirrors Result.Err.
type Launcher interface {
	Launch(ctx context.Context, j job.Job) (*job.Result, error)
}

// Observer is notified of every result, including skipped jobs. Observers
// are called from a single goroutine, in completion order.
type Observer interface {
	Observe(ctx context.Context, r *job.Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, r *job.Result)

func (f ObserverFunc) Observe(ctx context.Context, r *job.Result) { f(ctx, r) }

// MetricsRecorder is an optional interface for recording pool metrics.
type MetricsRecorder interface {
	RecordJobStarted(ctx context.Context, command string)
	RecordJobFinished(ctx context.Context, command, state, reason string, durationSeconds float64)
	RecordQueueDepth(ctx context.Context, depth int64)
}

// Config configures a Pool.
type Config struct {
	Workers   int
	Launcher  Launcher
	Metrics   MetricsRecorder
	Observers []Observer

	// Resume classifies each job against an earlier run. Nil runs every job.
	Resume func(job.Job) Resumption
}

// Resumption says what to do with a job an earlier run may have seen.
type Resumption int

const (
	// RunFresh runs the job as built.
	RunFresh Resumption = iota
	// SkipDone reports the job as skipped without launching it.
	SkipDone
	// RerunPrior runs the job again and lets it overwrite the output an
	// earlier run of the same job left behind.
	RerunPrior
)

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Active    int64 `json:"active"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Running   bool  `json:"running"`
}

// Pool dispatches jobs to a fixed number of workers.
type Pool struct {
	workers   int
	launcher  Launcher
	metrics   MetricsRecorder
	observers []Observer
	resume    func(job.Job) Resumption
	logger    *slog.Logger

	total     atomic.Int64
	pending   atomic.Int64
	active    atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	running   atomic.Bool
}

// New creates a pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Workers < 1 {
		return nil, apperrors.Validation("threads", "thread count must be at least 1")
	}
	if cfg.Launcher == nil {
		return nil, apperrors.Validation("launcher", "launcher is required")
	}
	return &Pool{
		workers:   cfg.Workers,
		launcher:  cfg.Launcher,
		metrics:   cfg.Metrics,
		observers: cfg.Observers,
		resume:    cfg.Resume,
		logger:    slog.With("component", "pool"),
	}, nil
}

// Run executes jobs and blocks until every worker has terminated. A failed
// job never stops its worker. Cancelling ctx stops workers from taking more
// jobs; the jobs left in the queue are reported as skipped.
func (p *Pool) Run(ctx context.Context, jobs []job.Job) job.Summary {
	start := time.Now()
	queue := NewQueue(jobs)

	p.total.Add(int64(len(jobs)))
	p.pending.Add(int64(len(jobs)))
	p.running.Store(true)
	defer p.running.Store(false)
	p.recordQueueDepth(ctx, queue)

	p.logger.Info("Run started", "jobs", len(jobs), "workers", p.workers)

	results := make(chan *job.Result, p.workers)
	tracker := newTracker()
	for id := range p.workers {
		tracker.Go(func() { p.worker(ctx, id, queue, results) })
	}
	tracker.seal()

	go func() {
		// Cannot fail: the background context is never done
		_ = tracker.Wait(context.Background())
		close(results)
	}()

	// Observers must still see results once the run has been cancelled
	observeCtx := context.WithoutCancel(ctx)

	var summary job.Summary
	for r := range results {
		summary.Add(r)
		p.notify(observeCtx, r)
	}

	// Workers are gone; whatever is still queued was cut off by cancellation
	for {
		j, ok := queue.Next()
		if !ok {
			break
		}
		p.pending.Add(-1)
		p.skipped.Add(1)
		r := &job.Result{
			Job:      j,
			ExitCode: -1,
			Skipped:  true,
			Err:      apperrors.Interrupted(j.Command(), context.Cause(ctx)),
		}
		summary.Add(r)
		p.notify(observeCtx, r)
	}
	p.recordQueueDepth(observeCtx, queue)

	summary.Duration = time.Since(start)
	if summary.Cancelled > 0 {
		p.logger.Warn("Run interrupted", "cancelled", summary.Cancelled, "error", context.Cause(ctx))
	}
	return summary
}

func (p *Pool) worker(ctx context.Context, id int, queue *Queue, results chan<- *job.Result) {
	logger := p.logger.With("worker", id)
	logger.Debug("Worker started")
	defer logger.Debug("Worker stopped")

	for ctx.Err() == nil {
		j, ok := queue.Next()
		if !ok {
			return
		}
		p.pending.Add(-1)
		p.recordQueueDepth(ctx, queue)

		results <- p.runOne(ctx, logger, j)
	}
}

func (p *Pool) runOne(ctx context.Context, logger *slog.Logger, j job.Job) *job.Result {
	if p.resume != nil {
		switch p.resume(j) {
		case SkipDone:
			p.skipped.Add(1)
			logger.Info("Job skipped, already completed", "jobId", j.ID(), "input", j.Line())
			return &job.Result{Job: j, ExitCode: -1, Skipped: true}
		case RerunPrior:
			logger.Debug("Rerunning job over its earlier output", "jobId", j.ID(), "input", j.Line())
			j = j.WithClobber()
		}
	}

	p.active.Add(1)
	if p.metrics != nil {
		p.metrics.RecordJobStarted(ctx, j.Command())
	}

	result, err := p.launcher.Launch(ctx, j)
	p.active.Add(-1)

	if err != nil {
		p.failed.Add(1)
		logger.Warn("Job failed",
			"jobId", j.ID(),
			"command", j.Command(),
			"input", j.Line(),
			"reason", apperrors.Reason(err),
			"error", err,
		)
	} else {
		p.succeeded.Add(1)
		logger.Debug("Job completed",
			"jobId", j.ID(),
			"input", j.Line(),
			"exitCode", result.ExitCode,
			"duration", result.Duration,
		)
	}

	if p.metrics != nil {
		p.metrics.RecordJobFinished(ctx, j.Command(), result.State(), apperrors.Reason(err), result.Duration.Seconds())
	}
	return result
}

func (p *Pool) notify(ctx context.Context, r *job.Result) {
	for _, o := range p.observers {
		o.Observe(ctx, r)
	}
}

func (p *Pool) recordQueueDepth(ctx context.Context, queue *Queue) {
	if p.metrics != nil {
		p.metrics.RecordQueueDepth(ctx, int64(queue.Len()))
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Total:     p.total.Load(),
		Pending:   p.pending.Load(),
		Active:    p.active.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
		Running:   p.running.Load(),
	}
}
