package models

import "time"

// Outcome records how the processing of one message concluded.
type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeUpdated        Outcome = "updated"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeClarification  Outcome = "needs_clarification"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeFailed         Outcome = "failed"
	OutcomeUnrelated      Outcome = "unrelated"
	OutcomeInterpretError Outcome = "interpret_error"
	OutcomeRecorded       Outcome = "recorded"

	// OutcomeDuplicate is returned for ledger short-circuits; it is
	// never written to the ledger itself.
	OutcomeDuplicate Outcome = "duplicate"
)

// MessageRecord is one write-once dedup ledger entry. Its existence is
// the signal that the message has been fully processed.
type MessageRecord struct {
	MessageID   string    `json:"message_id"`
	ThreadID    string    `json:"thread_id"`
	ProcessedAt time.Time `json:"processed_at"`
	Outcome     Outcome   `json:"outcome"`
}

// MutationOp names a calendar backend operation in the intent log.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// PendingIntent is a two-phase intent-log record: written before a
// calendar mutation is attempted and resolved after the outcome is
// known. A record left pending marks a possible unconfirmed mutation
// from a crash mid-operation.
type PendingIntent struct {
	ID        string     `json:"id"`
	MessageID string     `json:"message_id"`
	ThreadID  string     `json:"thread_id"`
	Op        MutationOp `json:"op"`
	EventID   string     `json:"event_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
