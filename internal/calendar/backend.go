package calendar

import (
	"context"
	"time"
)

// EventInput is the full payload for a create or update call.
type EventInput struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Timezone    string
	Attendees   []string
	Description string
	Location    string
}

// EventResult identifies the event the backend created or updated.
type EventResult struct {
	ID           string
	ExternalLink string
}

// Backend is the calendar service the reconciler mutates. Calls are
// single-attempt: a failure is terminal for the message that caused it.
// Delete must treat an already-missing event as success so cancellation
// stays idempotent.
type Backend interface {
	Create(ctx context.Context, input EventInput) (EventResult, error)
	Update(ctx context.Context, eventID string, input EventInput) (EventResult, error)
	Delete(ctx context.Context, eventID string) error
}
