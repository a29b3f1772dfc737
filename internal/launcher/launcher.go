// Package launcher executes a single job: clobber protection, subprocess
// execution through an Executor, console mirroring and output persistence.
package launcher

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"fanout/internal/apperrors"
	"fanout/internal/job"
)

// Config holds dependencies for a Launcher.
type Config struct {
	Executor Executor
	Stdout   io.Writer     // Console stdout mirror (default os.Stdout)
	Stderr   io.Writer     // Console stderr mirror (default os.Stderr)
	Timeout  time.Duration // Per-job timeout, 0 disables
}

// Launcher runs jobs. It is safe for concurrent use by multiple workers.
type Launcher struct {
	executor Executor
	stdout   io.Writer
	stderr   io.Writer
	timeout  time.Duration

	// Held across a job's stdout and stderr writes, so each job's output
	// reaches the console as one block. Blocks appear in completion order.
	consoleMu sync.Mutex
}

// New creates a Launcher.
func New(cfg Config) *Launcher {
	if cfg.Executor == nil {
		cfg.Executor = NewProcessExecutor()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Launcher{
		executor: cfg.Executor,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		timeout:  cfg.Timeout,
	}
}

// Executor returns the backend jobs run on.
func (l *Launcher) Executor() Executor {
	return l.executor
}

// Launch runs one job and returns its result. The returned error is the
// same as Result.Err; the result is never nil.
//
// With recording on and clobbering off, an existing output file fails the
// job with apperrors.ErrClobberRefused before anything is executed.
func (l *Launcher) Launch(ctx context.Context, j job.Job) (*job.Result, error) {
	result := &job.Result{Job: j, ExitCode: -1, StartedAt: time.Now()}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	if j.Record() && !j.Clobber() {
		if err := refuseExisting(j.StdoutFile(), j.StderrFile()); err != nil {
			result.Err = err
			return result, err
		}
	}

	runCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	out, err := l.executor.Execute(runCtx, j.Command(), j.Args())
	if out != nil {
		result.Stdout = out.Stdout
		result.Stderr = out.Stderr
		result.ExitCode = out.ExitCode
	}
	if err != nil && !errors.Is(err, apperrors.ErrInterrupted) {
		result.Err = err
		return result, err
	}

	l.mirror(result.Stdout, result.Stderr)

	if j.Record() {
		if perr := persist(j, result.Stdout, result.Stderr); perr != nil {
			if err == nil {
				err = perr
			} else {
				err = errors.Join(err, perr)
			}
		}
	}

	result.Err = err
	return result, err
}

func (l *Launcher) mirror(stdout, stderr []byte) {
	l.consoleMu.Lock()
	defer l.consoleMu.Unlock()

	if len(stdout) > 0 {
		if _, err := l.stdout.Write(stdout); err != nil {
			slog.Debug("Failed to mirror stdout", "error", err)
		}
	}
	if len(stderr) > 0 {
		if _, err := l.stderr.Write(stderr); err != nil {
			slog.Debug("Failed to mirror stderr", "error", err)
		}
	}
}

// refuseExisting fails if any of paths already exists.
func refuseExisting(paths ...string) error {
	for _, path := range paths {
		_, err := os.Lstat(path)
		switch {
		case err == nil:
			return apperrors.ClobberRefused(path)
		case !errors.Is(err, fs.ErrNotExist):
			return apperrors.CaptureIO("stat", path, err)
		}
	}
	return nil
}

// persist writes captured stdout to the job's stdout file and, when there is
// any, captured stderr to its stderr file. Without clobber the files are
// created exclusively, so a colliding job that got there first wins.
func persist(j job.Job, stdout, stderr []byte) error {
	if err := writeOutput(j.StdoutFile(), stdout, j.Clobber()); err != nil {
		return err
	}

	if len(stderr) == 0 {
		if j.Clobber() {
			// Drop a stale stderr file from an earlier run of the same job
			if err := os.Remove(j.StderrFile()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return apperrors.CaptureIO("remove stale stderr", j.StderrFile(), err)
			}
		}
		return nil
	}
	return writeOutput(j.StderrFile(), stderr, j.Clobber())
}

func writeOutput(path string, data []byte, clobber bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !clobber {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperrors.ClobberRefused(path)
		}
		return apperrors.CaptureIO("create", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return apperrors.CaptureIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.CaptureIO("close", path, err)
	}
	return nil
}
