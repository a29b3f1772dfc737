// Package job defines the unit of work fanned out by a run: a command with
// its templated arguments and output disposition, and the result of running it.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// idNamespace scopes the name-based UUIDs used as job identifiers.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fanout.dev/job"))

// Job is an immutable unit of work. Construct it with New.
type Job struct {
	id         string
	index      int
	line       string
	command    string
	args       []string
	stdoutFile string
	clobber    bool
	record     bool
}

// Spec holds the fields of a Job before construction.
type Spec struct {
	Index      int    // Position of the input line
	Line       string // Trimmed input line
	Occurrence int    // Earlier lines identical to Line
	Command    string
	Args       []string
	StdoutFile string
	Clobber    bool
	Record     bool
}

// New builds a Job from a spec. The argument slice is copied.
// The ID is derived from command, arguments, output path and, for repeated
// lines, the occurrence number, so the same input always yields the same ID
// across runs and duplicate lines get distinct IDs.
func New(s Spec) Job {
	args := append([]string(nil), s.Args...)

	var key strings.Builder
	key.WriteString(s.Command)
	for _, a := range args {
		key.WriteByte(0)
		key.WriteString(a)
	}
	key.WriteByte(0)
	key.WriteString(s.StdoutFile)
	if s.Occurrence > 0 {
		fmt.Fprintf(&key, "\x00#%d", s.Occurrence)
	}

	return Job{
		id:         uuid.NewSHA1(idNamespace, []byte(key.String())).String(),
		index:      s.Index,
		line:       s.Line,
		command:    s.Command,
		args:       args,
		stdoutFile: s.StdoutFile,
		clobber:    s.Clobber,
		record:     s.Record,
	}
}

func (j Job) ID() string         { return j.id }
func (j Job) Index() int         { return j.index }
func (j Job) Line() string       { return j.line }
func (j Job) Command() string    { return j.command }
func (j Job) StdoutFile() string { return j.stdoutFile }
func (j Job) Clobber() bool      { return j.clobber }
func (j Job) Record() bool       { return j.record }

// WithClobber returns a copy of j that may overwrite existing output files.
func (j Job) WithClobber() Job {
	j.clobber = true
	return j
}

// Args returns a copy of the templated arguments.
func (j Job) Args() []string {
	return append([]string(nil), j.args...)
}

// StderrFile is the sibling of StdoutFile that receives captured stderr.
func (j Job) StderrFile() string {
	return strings.TrimSuffix(j.stdoutFile, stdoutExt) + stderrExt
}

// Argv returns the command followed by its arguments.
func (j Job) Argv() []string {
	return append([]string{j.command}, j.args...)
}

func (j Job) String() string {
	return fmt.Sprintf("%s %s", j.command, strings.Join(j.args, " "))
}

// State constants
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateSkipped   = "skipped"
)

// Result is the outcome of running one Job.
type Result struct {
	Job       Job
	Stdout    []byte
	Stderr    []byte
	ExitCode  int // -1 when the process never ran or was killed
	StartedAt time.Time
	Duration  time.Duration
	Skipped   bool  // Never dispatched (interrupted run or already journaled)
	Err       error // Launcher failure, nil otherwise
}

// State reports the lifecycle state of the result.
func (r *Result) State() string {
	switch {
	case r.Skipped:
		return StateSkipped
	case r.Err != nil:
		return StateFailed
	default:
		return StateCompleted
	}
}

// Summary aggregates the results of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	NonZero   int // Completed jobs whose process exited non-zero
	Skipped   int
	Cancelled int // Skipped because the run was interrupted, a subset of Skipped
	Duration  time.Duration
}

// Add folds one result into the summary.
func (s *Summary) Add(r *Result) {
	s.Total++
	switch r.State() {
	case StateSkipped:
		s.Skipped++
		if r.Err != nil {
			s.Cancelled++
		}
	case StateFailed:
		s.Failed++
	default:
		s.Succeeded++
		if r.ExitCode != 0 {
			s.NonZero++
		}
	}
}

// Unsuccessful counts the jobs that failed or never ran because the run was
// interrupted. Jobs skipped as already done do not count.
func (s Summary) Unsuccessful() int {
	return s.Failed + s.Cancelled
}
