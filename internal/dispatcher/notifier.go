package dispatcher

import (
	"context"
	"errors"
	"log/slog"

	"fanout/internal/job"
)

// Notifier turns job results and the run summary into CloudEvents for a
// single callback URL.
type Notifier struct {
	dispatcher  Dispatcher
	events      *job.EventBuilder
	destination string
	signingKey  string
	logger      *slog.Logger
}

// NewNotifier creates a notifier that dispatches to destination, signing
// events with signingKey when it is set.
func NewNotifier(d Dispatcher, runID, destination, signingKey string) *Notifier {
	return &Notifier{
		dispatcher:  d,
		events:      job.NewEventBuilder(runID),
		destination: destination,
		signingKey:  signingKey,
		logger:      slog.With("component", "notifier", "runId", runID),
	}
}

// Observe dispatches a job exit event. Jobs skipped as already done produce
// no event.
func (n *Notifier) Observe(_ context.Context, r *job.Result) {
	if r.Skipped && r.Err == nil {
		return
	}
	n.dispatch(&Event{
		Payload:     n.events.BuildJobEvent(r),
		Destination: n.destination,
		SigningKey:  n.signingKey,
	})
}

// NotifyRun dispatches the run completion event.
func (n *Notifier) NotifyRun(summary job.Summary) {
	n.dispatch(&Event{
		Payload:     n.events.BuildRunEvent(summary),
		Destination: n.destination,
		SigningKey:  n.signingKey,
	})
}

func (n *Notifier) dispatch(event *Event) {
	err := n.dispatcher.Dispatch(event)
	switch {
	case err == nil, errors.Is(err, ErrBufferFull):
		// Drops are already logged by the dispatcher
	default:
		n.logger.Warn("Failed to dispatch event", "type", event.Payload.Type, "error", err)
	}
}
