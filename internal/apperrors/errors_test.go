package apperrors

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"testing"
)

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("threads", "threads must be positive")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "threads must be positive" {
		t.Errorf("expected message 'threads must be positive', got %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "threads" {
		t.Errorf("expected field 'threads', got %q", appErr.Field)
	}
}

func TestInputRead(t *testing.T) {
	t.Parallel()
	err := InputRead("targets.txt", fs.ErrNotExist)

	if !errors.Is(err, ErrInputRead) {
		t.Error("expected error to match ErrInputRead")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected error to match the underlying cause")
	}
	if !strings.Contains(err.Error(), "targets.txt") {
		t.Errorf("expected message to name the file, got %q", err.Error())
	}
}

func TestClobberRefused(t *testing.T) {
	t.Parallel()
	err := ClobberRefused("out/echo_alpha.stdout")

	if !errors.Is(err, ErrClobberRefused) {
		t.Error("expected error to match ErrClobberRefused")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Path != "out/echo_alpha.stdout" {
		t.Errorf("expected path 'out/echo_alpha.stdout', got %q", appErr.Path)
	}
	if appErr.Cause != nil {
		t.Errorf("expected no cause, got %v", appErr.Cause)
	}
}

func TestSpawn(t *testing.T) {
	t.Parallel()
	err := Spawn("nmap", exec.ErrNotFound)

	if !errors.Is(err, ErrSpawn) {
		t.Error("expected error to match ErrSpawn")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Error("expected error to match exec.ErrNotFound")
	}
	if errors.Is(err, ErrCaptureIO) {
		t.Error("spawn error should not match ErrCaptureIO")
	}
}

func TestCaptureIO(t *testing.T) {
	t.Parallel()
	cause := errors.New("disk full")
	err := CaptureIO("write stdout", "out/x.stdout", cause)

	if !errors.Is(err, ErrCaptureIO) {
		t.Error("expected error to match ErrCaptureIO")
	}
	if err.Error() != "write stdout out/x.stdout: disk full" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "write stdout" {
		t.Errorf("expected op 'write stdout', got %q", appErr.Op)
	}
}

func TestReason(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ClobberRefused("a"), "clobber_refused"},
		{Spawn("x", exec.ErrNotFound), "spawn_failure"},
		{CaptureIO("write", "a", errors.New("boom")), "capture_io"},
		{InputRead("a", fs.ErrPermission), "input_read"},
		{Validation("threads", "bad"), "validation"},
		{Unavailable("docker", errors.New("no daemon")), "unavailable"},
		{Interrupted("sleep", context.DeadlineExceeded), "interrupted"},
		{NotFound("job", "abc"), "not_found"},
		{errors.New("something else"), "internal"},
	}

	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestExitStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fatal  error
		failed int
		want   int
	}{
		{"clean run", nil, 0, ExitOK},
		{"job failures", nil, 3, ExitJobFailed},
		{"fatal error", InputRead("in.txt", fs.ErrNotExist), 0, ExitFatal},
		{"fatal wins over failures", Validation("threads", "bad"), 2, ExitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitStatus(tt.fatal, tt.failed); got != tt.want {
				t.Errorf("ExitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInterrupted(t *testing.T) {
	t.Parallel()
	err := Interrupted("sleep", context.Canceled)

	if !errors.Is(err, ErrInterrupted) {
		t.Error("expected error to match ErrInterrupted")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected error to match context.Canceled")
	}
}
