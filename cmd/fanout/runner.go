package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"fanout/internal/api"
	"fanout/internal/apperrors"
	"fanout/internal/config"
	"fanout/internal/dispatcher"
	"fanout/internal/health"
	"fanout/internal/input"
	"fanout/internal/job"
	"fanout/internal/journal"
	"fanout/internal/launcher"
	"fanout/internal/observability"
	"fanout/internal/pool"
)

// runner wires the components of one run together.
type runner struct {
	cfg    config.RunConfig
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func (r *runner) run(ctx context.Context) (job.Summary, error) {
	cfg := r.cfg
	runID := uuid.NewString()
	logger := r.logger.With("runId", runID)

	lines, err := input.LoadLines(cfg.InputFile)
	if err != nil {
		return job.Summary{}, err
	}

	tmpl, err := job.ParseTemplate(cfg.Command)
	if err != nil {
		return job.Summary{}, apperrors.Validation("command", err.Error())
	}
	if !tmpl.Templated() {
		logger.Warn("Command has no placeholder, every job runs the same command", "placeholder", job.Placeholder)
	}

	if cfg.Record() {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return job.Summary{}, apperrors.CaptureIO("create output directory", cfg.OutputDir, err)
		}
	}

	jobs := job.Builder{
		Template:   tmpl,
		OutputDir:  cfg.OutputDir,
		Prefix:     cfg.Prefix,
		Clobber:    cfg.Clobber,
		Record:     cfg.Record(),
		HashSuffix: cfg.HashSuffix,
	}.Build(lines)

	executor, err := r.newExecutor(ctx, tmpl.Command)
	if err != nil {
		return job.Summary{}, err
	}
	defer executor.Close()

	poolCfg := pool.Config{
		Workers: cfg.Threads,
		Launcher: launcher.New(launcher.Config{
			Executor: executor,
			Stdout:   r.stdout,
			Stderr:   r.stderr,
			Timeout:  cfg.Timeout,
		}),
	}

	var metrics *observability.Metrics
	var metricsHandler http.Handler
	if cfg.MetricsAddr != "" {
		metrics, metricsHandler, err = observability.NewMetrics(ctx)
		if err != nil {
			return job.Summary{}, err
		}
		poolCfg.Metrics = metrics
	}

	var results *journal.Journal
	if cfg.JournalDir != "" {
		results, err = journal.Open(cfg.JournalDir, runID)
		if err != nil {
			return job.Summary{}, apperrors.Unavailable("journal", err)
		}
		defer func() {
			if err := results.Close(); err != nil {
				logger.Warn("Failed to close journal", "error", err)
			}
		}()
		poolCfg.Observers = append(poolCfg.Observers, results)
		if cfg.Resume {
			poolCfg.Resume = results.Resume
		}
	}

	var notifier *dispatcher.Notifier
	var events *dispatcher.MemoryDispatcher
	if cfg.CallbackURL != "" {
		var recorder dispatcher.MetricsRecorder
		if metrics != nil {
			recorder = metrics
		}
		events = dispatcher.NewMemory(dispatcher.LoadConfigFromEnv(), recorder)
		notifier = dispatcher.NewNotifier(events, runID, cfg.CallbackURL, cfg.CallbackKey)
		poolCfg.Observers = append(poolCfg.Observers, notifier)
	}

	p, err := pool.New(poolCfg)
	if err != nil {
		return job.Summary{}, err
	}

	checker := health.NewChecker(executor)
	if results != nil {
		checker.AddCheck("journal", results)
	}

	var status *http.Server
	if cfg.MetricsAddr != "" {
		handler := api.NewHandler(api.RunInfo{
			RunID:     runID,
			Command:   cfg.Command,
			Executor:  executor.Name(),
			StartedAt: time.Now(),
		}, p, resultStore(results), checker)

		status, err = startStatusServer(cfg.MetricsAddr, api.NewRouter(api.RouterConfig{
			Handler:        handler,
			Metrics:        metrics,
			MetricsHandler: metricsHandler,
			Token:          cfg.StatusToken,
		}), logger)
		if err != nil {
			return job.Summary{}, err
		}
	}

	logger.Info("Starting run",
		"jobs", len(jobs),
		"threads", cfg.Threads,
		"executor", executor.Name(),
		"output", cfg.OutputDir,
		"record", cfg.Record(),
	)

	summary := p.Run(ctx, jobs)

	logger.Info("Run finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"nonZero", summary.NonZero,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)

	if notifier != nil {
		notifier.NotifyRun(summary)
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := events.Close(drainCtx); err != nil {
			logger.Warn("Callbacks not fully delivered", "error", err)
		}
		cancel()
	}

	if status != nil {
		checker.SetShuttingDown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := status.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Status server shutdown error", "error", err)
		}
		cancel()
	}

	return summary, nil
}

// newExecutor picks the job backend and checks it can run command.
func (r *runner) newExecutor(ctx context.Context, command string) (launcher.Executor, error) {
	if r.cfg.Image == "" {
		executor := launcher.NewProcessExecutor()
		if err := executor.Preflight(ctx, command); err != nil {
			// Not fatal: every job will report its own spawn failure
			r.logger.Warn("Command not found on PATH", "command", command, "error", err)
		}
		return executor, nil
	}

	executor, err := launcher.NewDockerExecutor(launcher.LoadDockerConfigFromEnv(r.cfg.Image))
	if err != nil {
		return nil, err
	}
	if err := executor.Preflight(ctx, command); err != nil {
		executor.Close()
		return nil, err
	}
	r.logger.Info("Connected to Docker daemon", "image", r.cfg.Image)
	return executor, nil
}

// resultStore avoids handing the API a non-nil interface around a nil journal.
func resultStore(j *journal.Journal) api.ResultStore {
	if j == nil {
		return nil
	}
	return j
}

// startStatusServer binds addr before returning, so a bad address fails the
// run up front.
func startStatusServer(addr string, handler http.Handler, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, apperrors.Unavailable("status server", err)
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed", "error", err)
		}
	}()

	logger.Info("Serving status", "addr", ln.Addr().String())
	return server, nil
}
