package launcher

import "context"

// Output is what an Executor captured from one finished process.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 when no exit status is available
}

// Executor runs a single command to completion and captures its output.
//
// A non-zero exit status is reported through Output.ExitCode, not as an
// error. Errors are reserved for failures to start the process
// (apperrors.ErrSpawn), to collect its output (apperrors.ErrCaptureIO), or
// interruption (apperrors.ErrInterrupted).
type Executor interface {
	// Execute runs command with args and blocks until it exits.
	Execute(ctx context.Context, command string, args []string) (*Output, error)

	// Preflight checks that command can plausibly be run before dispatch.
	// Errors matching apperrors.ErrUnavailable are fatal to the run.
	Preflight(ctx context.Context, command string) error

	// Ready checks if the backend is reachable.
	Ready(ctx context.Context) error

	// Name identifies the backend in logs and metrics.
	Name() string

	// Close releases resources held by the executor.
	Close() error
}
