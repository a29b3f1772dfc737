package job

import (
	"fmt"
	"time"

	"fanout/internal/apperrors"
	"fanout/pkg/cloudevent"
)

// Event types for run callbacks
const (
	EventTypeJobExit     = "fanout.job.exit"
	EventTypeRunComplete = "fanout.run.complete"
)

// EventBuilder builds CloudEvents for one run.
type EventBuilder struct {
	source string
	runID  string
}

// NewEventBuilder creates a new EventBuilder.
func NewEventBuilder(runID string) *EventBuilder {
	return &EventBuilder{
		source: "fanout/" + runID,
		runID:  runID,
	}
}

func (b *EventBuilder) build(eventType, subject string, data map[string]any) *cloudevent.CloudEvent {
	eventID := fmt.Sprintf("%s-%d", b.runID, time.Now().UnixNano())
	return cloudevent.New(eventType, b.source, subject, eventID, data)
}

// BuildJobEvent creates the event reporting one job's outcome.
// Captured output is not included, only its size.
func (b *EventBuilder) BuildJobEvent(r *Result) *cloudevent.CloudEvent {
	data := map[string]any{
		"runId":       b.runID,
		"jobId":       r.Job.ID(),
		"index":       r.Job.Index(),
		"input":       r.Job.Line(),
		"argv":        r.Job.Argv(),
		"status":      r.State(),
		"exitCode":    r.ExitCode,
		"durationMs":  r.Duration.Milliseconds(),
		"stdoutBytes": len(r.Stdout),
		"stderrBytes": len(r.Stderr),
	}
	if r.Job.Record() {
		data["stdoutFile"] = r.Job.StdoutFile()
	}
	if r.Err != nil {
		data["error"] = r.Err.Error()
		data["reason"] = apperrors.Reason(r.Err)
	}
	return b.build(EventTypeJobExit, r.Job.ID(), data)
}

// BuildRunEvent creates the event summarising a finished run.
func (b *EventBuilder) BuildRunEvent(s Summary) *cloudevent.CloudEvent {
	data := map[string]any{
		"runId":      b.runID,
		"total":      s.Total,
		"succeeded":  s.Succeeded,
		"failed":     s.Failed,
		"nonZero":    s.NonZero,
		"skipped":    s.Skipped,
		"cancelled":  s.Cancelled,
		"durationMs": s.Duration.Milliseconds(),
	}
	return b.build(EventTypeRunComplete, b.runID, data)
}
