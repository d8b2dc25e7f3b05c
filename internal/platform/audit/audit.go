// Package audit provides the append-only audit trail for workflow runs.
// Every run produces exactly one start event and one terminal event
// (completed, failed, or cancelled); events are never mutated after being
// recorded.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types recorded over the life of a workflow run.
const (
	EventWorkflowStarted   = "workflow_started"
	EventWorkflowCompleted = "workflow_completed"
	EventWorkflowFailed    = "workflow_failed"
	EventWorkflowCancelled = "workflow_cancelled"
)

// Event is one append-only entry in the workflow audit trail.
type Event struct {
	ID         uuid.UUID `json:"id" db:"id"`
	WorkflowID string    `json:"workflow_id" db:"workflow_id"`
	ClaimID    uuid.UUID `json:"claim_id" db:"claim_id"`
	Type       string    `json:"type" db:"event_type"`
	Actor      string    `json:"actor" db:"actor"`
	Detail     string    `json:"detail,omitempty" db:"detail"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(workflowID string, claimID uuid.UUID, eventType, actor, detail string) Event {
	return Event{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		ClaimID:    claimID,
		Type:       eventType,
		Actor:      actor,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}

// Recorder is the sink interface the orchestrator writes to.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(ctx context.Context, event Event) error

func (f RecorderFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// LogRecorder emits audit events as structured log lines. It is the
// fallback sink when no durable store is configured.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, event Event) error {
	r.logger.Info().
		Str("type", "workflow_audit").
		Str("event_id", event.ID.String()).
		Str("workflow_id", event.WorkflowID).
		Str("claim_id", event.ClaimID.String()).
		Str("event_type", event.Type).
		Str("actor", event.Actor).
		Str("detail", event.Detail).
		Time("occurred_at", event.OccurredAt).
		Msg("workflow_event")
	return nil
}

// MemoryRecorder keeps events in memory. Used by tests and by the one-shot
// CLI processing command.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of all recorded events in record order.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByWorkflow returns all events recorded for the given workflow id.
func (r *MemoryRecorder) ByWorkflow(workflowID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out
}

// MultiRecorder fans events out to several sinks. The first error is
// returned but remaining sinks still receive the event.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
