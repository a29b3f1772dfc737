// Package apperrors provides structured application errors classified by sentinel.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation     = errors.New("validation error")
	ErrInputRead      = errors.New("input read error")
	ErrClobberRefused = errors.New("clobber refused")
	ErrSpawn          = errors.New("spawn failure")
	ErrCaptureIO      = errors.New("capture I/O error")
	ErrUnavailable    = errors.New("backend unavailable")
	ErrInterrupted    = errors.New("interrupted")
	ErrNotFound       = errors.New("not found")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "threads", "input-file")
	Path     string // File the error refers to, if any
	Op       string // Operation that failed (e.g., "write stdout")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause, so callers can
// match either (e.g. ErrSpawn and exec.ErrNotFound).
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Cause}
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// InputRead creates an error for an input file that could not be opened or read.
func InputRead(path string, cause error) error {
	return &Error{
		Sentinel: ErrInputRead,
		Message:  fmt.Sprintf("read input file %s: %v", path, cause),
		Path:     path,
		Op:       "read input",
		Cause:    cause,
	}
}

// ClobberRefused creates an error for an output file that already exists.
func ClobberRefused(path string) error {
	return &Error{
		Sentinel: ErrClobberRefused,
		Message:  fmt.Sprintf("output file %s already exists (use --clobber to overwrite)", path),
		Path:     path,
	}
}

// Spawn creates an error for a subprocess that could not be started.
func Spawn(command string, cause error) error {
	return &Error{
		Sentinel: ErrSpawn,
		Message:  fmt.Sprintf("start %s: %v", command, cause),
		Op:       "spawn",
		Cause:    cause,
	}
}

// CaptureIO creates an error for captured output that could not be persisted.
func CaptureIO(op, path string, cause error) error {
	return &Error{
		Sentinel: ErrCaptureIO,
		Message:  fmt.Sprintf("%s %s: %v", op, path, cause),
		Path:     path,
		Op:       op,
		Cause:    cause,
	}
}

// Unavailable creates an error for an execution backend that is not reachable.
func Unavailable(backend string, cause error) error {
	return &Error{
		Sentinel: ErrUnavailable,
		Message:  fmt.Sprintf("%s backend unavailable: %v", backend, cause),
		Op:       backend,
		Cause:    cause,
	}
}

// Interrupted creates an error for a job stopped by timeout or cancellation.
func Interrupted(command string, cause error) error {
	return &Error{
		Sentinel: ErrInterrupted,
		Message:  fmt.Sprintf("%s interrupted: %v", command, cause),
		Op:       "wait",
		Cause:    cause,
	}
}

// NotFound creates an error for a missing record.
func NotFound(kind, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", kind, id),
	}
}

// Reason returns a short, stable label for the error class, suitable for
// metric attributes and journal entries.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClobberRefused):
		return "clobber_refused"
	case errors.Is(err, ErrSpawn):
		return "spawn_failure"
	case errors.Is(err, ErrCaptureIO):
		return "capture_io"
	case errors.Is(err, ErrInputRead):
		return "input_read"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
