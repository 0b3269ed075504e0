package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inboxpilot/scheduler/internal/calendar"
	"github.com/inboxpilot/scheduler/internal/interpreter"
	"github.com/inboxpilot/scheduler/internal/models"
	"github.com/inboxpilot/scheduler/internal/scheduler"
	"github.com/inboxpilot/scheduler/internal/storage"
	"github.com/inboxpilot/scheduler/internal/timeparse"
)

const testIdentity = "agent@example.com"

func newTestWorker(t *testing.T, source Source, store storage.Store) *Worker {
	t.Helper()

	rec, err := scheduler.NewReconciler(
		scheduler.Config{
			Identity: testIdentity,
			Timezone: "UTC",
			Defaults: scheduler.Defaults{DurationMinutes: 30, Topic: "Scheduled Meeting", Location: "Google Meet / Virtual"},
		},
		store,
		interpreter.NewKeywordInterpreter(),
		timeparse.NullResolver{},
		calendar.NewFakeBackend(),
		nil,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewWorker(testIdentity, source, rec, store, Options{BatchSize: 10}, zap.NewNop())
}

func TestCycleProcessesBatchInOrder(t *testing.T) {
	q := NewQueueSource()
	q.Push(
		models.InboundMessage{ID: "m1", ThreadID: "t1", Sender: "bob@example.com", Subject: "Sync", BodyText: "Can we meet tomorrow at 10am?"},
		models.InboundMessage{ID: "m2", ThreadID: "t1", Sender: "bob@example.com", Subject: "Re: Sync", BodyText: "Here are the slides."},
	)
	store := storage.NewMemoryStore()
	w := newTestWorker(t, q, store)

	w.cycle(context.Background())

	ctx := context.Background()
	for _, id := range []string{"m1", "m2"} {
		processed, err := store.HasProcessed(ctx, testIdentity, id)
		if err != nil {
			t.Fatal(err)
		}
		if !processed {
			t.Errorf("message %s not processed after cycle", id)
		}
	}

	// With the null resolver the scheduling intent resolves no time and
	// the thread asks for clarification.
	state, err := store.GetThread(ctx, testIdentity, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if state == nil || state.Status != models.StatusNeedsClarification {
		t.Fatalf("thread state = %+v, want needs_clarification", state)
	}

	if batch, _ := q.FetchBatch(ctx, 10); len(batch) != 0 {
		t.Errorf("queue not drained: %+v", batch)
	}
}

type faultySource struct{ err error }

func (f faultySource) FetchBatch(ctx context.Context, limit int) ([]models.InboundMessage, error) {
	return nil, f.err
}

func TestCycleSurvivesFetchFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	w := newTestWorker(t, faultySource{err: errors.New("imap timeout")}, store)

	// Must log and return, not panic or write anything.
	w.cycle(context.Background())

	stats, err := store.Stats(context.Background(), testIdentity)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ProcessedMessages != 0 {
		t.Errorf("fetch failure must not record messages, got %+v", stats)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	w := newTestWorker(t, NewQueueSource(), store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
