package storage

import (
	"context"
	"time"

	"github.com/inboxpilot/scheduler/internal/models"
)

// Stats summarizes one identity's persisted scheduling state.
type Stats struct {
	Threads           int `json:"threads"`
	ScheduledThreads  int `json:"scheduled_threads"`
	ProcessedMessages int `json:"processed_messages"`
	PendingMutations  int `json:"pending_mutations"`
}

// Store is the durable home of thread states, the processed-message
// ledger, and the mutation intent log. All keys are partitioned by
// monitored identity; distinct identities never share state.
type Store interface {
	// GetThread returns the state for a thread, or (nil, nil) when the
	// thread has never been seen.
	GetThread(ctx context.Context, identity, threadID string) (*models.ThreadState, error)

	// HasProcessed reports whether a message id is already in the ledger.
	HasProcessed(ctx context.Context, identity, messageID string) (bool, error)

	// Commit atomically upserts the thread state (state may be nil when
	// the message produced no thread mutation) and appends the ledger
	// record. Re-committing an already ledgered message id is a no-op
	// for the ledger entry.
	Commit(ctx context.Context, identity string, state *models.ThreadState, rec models.MessageRecord) error

	// BeginMutation records the intent to call the calendar backend
	// before the call is made.
	BeginMutation(ctx context.Context, identity string, intent models.PendingIntent) error

	// ResolveMutation marks a previously begun mutation as confirmed or
	// failed once the backend outcome is known.
	ResolveMutation(ctx context.Context, identity, intentID string, confirmed bool) error

	// DanglingMutations lists intents that were begun but never
	// resolved, i.e. possible unconfirmed backend mutations left by a
	// crash mid-operation.
	DanglingMutations(ctx context.Context, identity string) ([]models.PendingIntent, error)

	// PruneInactiveThreads removes threads whose last update is older
	// than the cutoff and returns how many were removed. Ledger entries
	// are permanent and never pruned.
	PruneInactiveThreads(ctx context.Context, identity string, olderThan time.Time) (int, error)

	// Stats reports counts for monitoring.
	Stats(ctx context.Context, identity string) (Stats, error)

	Ping(ctx context.Context) error
	Close() error
}
