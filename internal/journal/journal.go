// Package journal persists job results across runs in a Badger database, so
// an interrupted run can be resumed without redoing finished work.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"fanout/internal/apperrors"
	"fanout/internal/job"
	"fanout/internal/pool"
)

const resultPrefix = "results/"

// Entry is the journaled outcome of the most recent run of a job.
type Entry struct {
	JobID      string    `json:"jobId"`
	RunID      string    `json:"runId"`
	Index      int       `json:"index"`
	Input      string    `json:"input"`
	Argv       []string  `json:"argv"`
	StdoutFile string    `json:"stdoutFile,omitempty"`
	State      string    `json:"state"`
	ExitCode   int       `json:"exitCode"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// Done reports whether the job finished cleanly: it ran without a launcher
// failure and its process exited zero.
func (e *Entry) Done() bool {
	return e.State == job.StateCompleted && e.ExitCode == 0
}

// Journal records job results keyed by job id.
type Journal struct {
	db     *badger.DB
	runID  string
	logger *slog.Logger
}

// Open opens or creates the journal under dir. Results recorded through
// this handle are tagged with runID.
func Open(dir, runID string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dir, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Journal{
		db:     db,
		runID:  runID,
		logger: slog.With("component", "journal", "dir", dir),
	}, nil
}

// Close flushes and closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Ready fails once the journal has been closed.
func (j *Journal) Ready(context.Context) error {
	if j.db.IsClosed() {
		return errors.New("journal is closed")
	}
	return nil
}

// Record stores a result, replacing any earlier entry for the same job.
// Skipped results are not recorded: the job did not run, and the previous
// entry (if any) still describes it.
func (j *Journal) Record(r *job.Result) error {
	if r.Skipped {
		return nil
	}

	entry := Entry{
		JobID:      r.Job.ID(),
		RunID:      j.runID,
		Index:      r.Job.Index(),
		Input:      r.Job.Line(),
		Argv:       r.Job.Argv(),
		State:      r.State(),
		ExitCode:   r.ExitCode,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Job.Record() {
		entry.StdoutFile = r.Job.StdoutFile()
	}
	if r.Err != nil {
		entry.Reason = apperrors.Reason(r.Err)
		entry.Error = r.Err.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(resultPrefix+entry.JobID), data)
	})
}

// Observe records r, logging failures. It lets the journal observe a pool.
func (j *Journal) Observe(_ context.Context, r *job.Result) {
	if err := j.Record(r); err != nil {
		j.logger.Error("Failed to journal result", "jobId", r.Job.ID(), "error", err)
	}
}

// Get returns the entry for a job.
func (j *Journal) Get(jobID string) (*Entry, error) {
	var entry Entry
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultPrefix + jobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFound("job", jobID)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Resume classifies jb against the journal. A clean completion is skipped.
// Any other recorded outcome is rerun over the output that run left behind,
// unless it was refused because a file it did not write was in the way.
func (j *Journal) Resume(jb job.Job) pool.Resumption {
	entry, err := j.Get(jb.ID())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			j.logger.Warn("Failed to read journal entry", "jobId", jb.ID(), "error", err)
		}
		return pool.RunFresh
	}
	switch {
	case entry.Done():
		return pool.SkipDone
	case entry.Reason == apperrors.Reason(apperrors.ErrClobberRefused):
		return pool.RunFresh
	default:
		return pool.RerunPrior
	}
}

// List returns up to limit entries in job id order. A limit of zero or
// less returns every entry.
func (j *Journal) List(limit int) ([]*Entry, error) {
	var entries []*Entry

	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(resultPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && (limit <= 0 || len(entries) < limit); it.Next() {
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})

	return entries, err
}
