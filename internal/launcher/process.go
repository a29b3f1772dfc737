package launcher

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"fanout/internal/apperrors"
)

// killGrace bounds how long Execute waits for output pipes after the
// process has been killed.
const killGrace = 5 * time.Second

// ProcessExecutor runs jobs as local child processes.
type ProcessExecutor struct {
	Dir string   // Working directory; empty inherits ours
	Env []string // Extra KEY=VALUE entries appended to our environment
}

// NewProcessExecutor creates an executor for local processes.
func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{}
}

// Execute starts the process, waits for it and returns its captured output.
// Cancelling ctx kills the process.
func (p *ProcessExecutor) Execute(ctx context.Context, command string, args []string) (*Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.Env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	err := cmd.Run()

	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, apperrors.Interrupted(command, ctxErr)
	}
	if cmd.ProcessState == nil {
		return out, apperrors.Spawn(command, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	return out, apperrors.CaptureIO("capture output of", command, err)
}

// Preflight resolves command on PATH. A miss is not fatal: every job will
// fail individually with a spawn error.
func (p *ProcessExecutor) Preflight(_ context.Context, command string) error {
	_, err := exec.LookPath(command)
	return err
}

// Ready always succeeds for local processes.
func (p *ProcessExecutor) Ready(context.Context) error {
	return nil
}

func (p *ProcessExecutor) Name() string { return "process" }

func (p *ProcessExecutor) Close() error { return nil }

var _ Executor = (*ProcessExecutor)(nil)
