package storage

import (
	"context"
	"testing"
	"time"

	"github.com/inboxpilot/scheduler/internal/models"
)

func TestMemoryStoreGetThreadUnseen(t *testing.T) {
	s := NewMemoryStore()
	state, err := s.GetThread(context.Background(), "a@example.com", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if state != nil {
		t.Errorf("unseen thread = %+v, want nil", state)
	}
}

func TestMemoryStoreCommitPersistsStateAndLedger(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	state := &models.ThreadState{
		ThreadID:     "t1",
		Status:       models.StatusScheduled,
		Participants: []string{"a@example.com", "b@example.com"},
		LastUpdated:  time.Now(),
	}
	rec := models.MessageRecord{MessageID: "m1", ThreadID: "t1", Outcome: models.OutcomeCreated}

	if err := s.Commit(ctx, identity, state, rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetThread(ctx, identity, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Status != models.StatusScheduled {
		t.Fatalf("stored state = %+v", got)
	}

	processed, err := s.HasProcessed(ctx, identity, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Error("ledger entry missing after commit")
	}
}

func TestMemoryStoreCommitWithNilStateMarksLedgerOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	rec := models.MessageRecord{MessageID: "m1", ThreadID: "t1", Outcome: models.OutcomeUnrelated}
	if err := s.Commit(ctx, identity, nil, rec); err != nil {
		t.Fatal(err)
	}

	processed, _ := s.HasProcessed(ctx, identity, "m1")
	if !processed {
		t.Error("message not marked processed")
	}
	state, _ := s.GetThread(ctx, identity, "t1")
	if state != nil {
		t.Error("nil state commit must not create a thread")
	}
}

func TestMemoryStoreLedgerIsWriteOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	first := models.MessageRecord{MessageID: "m1", ThreadID: "t1", Outcome: models.OutcomeCreated}
	second := models.MessageRecord{MessageID: "m1", ThreadID: "t1", Outcome: models.OutcomeFailed}

	if err := s.Commit(ctx, identity, nil, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx, identity, nil, second); err != nil {
		t.Fatal(err)
	}

	s.mu.RLock()
	rec := s.partitions[identity].processed["m1"]
	s.mu.RUnlock()
	if rec.Outcome != models.OutcomeCreated {
		t.Errorf("ledger entry overwritten: outcome = %s, want %s", rec.Outcome, models.OutcomeCreated)
	}
}

func TestMemoryStoreIdentityIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := models.MessageRecord{MessageID: "m1", ThreadID: "t1", Outcome: models.OutcomeCreated}
	state := &models.ThreadState{ThreadID: "t1", Status: models.StatusScheduled}
	if err := s.Commit(ctx, "a@example.com", state, rec); err != nil {
		t.Fatal(err)
	}

	other, _ := s.GetThread(ctx, "b@example.com", "t1")
	if other != nil {
		t.Error("thread visible across identities")
	}
	processed, _ := s.HasProcessed(ctx, "b@example.com", "m1")
	if processed {
		t.Error("ledger visible across identities")
	}
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	state := &models.ThreadState{ThreadID: "t1", Status: models.StatusScheduled, Participants: []string{"a@example.com"}}
	rec := models.MessageRecord{MessageID: "m1", ThreadID: "t1"}
	if err := s.Commit(ctx, identity, state, rec); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy or a fetched copy must not leak into
	// the stored value.
	state.Participants[0] = "evil@example.com"
	fetched, _ := s.GetThread(ctx, identity, "t1")
	fetched.Status = models.StatusCancelled

	again, _ := s.GetThread(ctx, identity, "t1")
	if again.Participants[0] != "a@example.com" {
		t.Errorf("stored participants mutated: %v", again.Participants)
	}
	if again.Status != models.StatusScheduled {
		t.Errorf("stored status mutated: %s", again.Status)
	}
}

func TestMemoryStoreMutationLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	intent := models.PendingIntent{ID: "i1", MessageID: "m1", ThreadID: "t1", Op: models.OpCreate, CreatedAt: time.Now()}
	if err := s.BeginMutation(ctx, identity, intent); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginMutation(ctx, identity, intent); err == nil {
		t.Error("duplicate BeginMutation must fail")
	}

	dangling, err := s.DanglingMutations(ctx, identity)
	if err != nil {
		t.Fatal(err)
	}
	if len(dangling) != 1 || dangling[0].ID != "i1" {
		t.Fatalf("dangling = %+v, want [i1]", dangling)
	}

	if err := s.ResolveMutation(ctx, identity, "i1", true); err != nil {
		t.Fatal(err)
	}
	dangling, err = s.DanglingMutations(ctx, identity)
	if err != nil {
		t.Fatal(err)
	}
	if len(dangling) != 0 {
		t.Errorf("dangling after resolve = %+v, want none", dangling)
	}

	if err := s.ResolveMutation(ctx, identity, "missing", true); err == nil {
		t.Error("resolving an unknown intent must fail")
	}
}

func TestMemoryStorePruneInactiveThreads(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stale := &models.ThreadState{ThreadID: "old", Status: models.StatusCancelled, LastUpdated: cutoff.Add(-time.Hour)}
	fresh := &models.ThreadState{ThreadID: "new", Status: models.StatusScheduled, LastUpdated: cutoff.Add(time.Hour)}
	_ = s.Commit(ctx, identity, stale, models.MessageRecord{MessageID: "m1", ThreadID: "old"})
	_ = s.Commit(ctx, identity, fresh, models.MessageRecord{MessageID: "m2", ThreadID: "new"})

	removed, err := s.PruneInactiveThreads(ctx, identity, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if state, _ := s.GetThread(ctx, identity, "old"); state != nil {
		t.Error("stale thread survived prune")
	}
	if state, _ := s.GetThread(ctx, identity, "new"); state == nil {
		t.Error("fresh thread pruned")
	}
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	identity := "a@example.com"

	_ = s.Commit(ctx, identity, &models.ThreadState{ThreadID: "t1", Status: models.StatusScheduled}, models.MessageRecord{MessageID: "m1", ThreadID: "t1"})
	_ = s.Commit(ctx, identity, &models.ThreadState{ThreadID: "t2", Status: models.StatusAnalyzed}, models.MessageRecord{MessageID: "m2", ThreadID: "t2"})
	_ = s.BeginMutation(ctx, identity, models.PendingIntent{ID: "i1", Op: models.OpCreate})

	stats, err := s.Stats(ctx, identity)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Threads: 2, ScheduledThreads: 1, ProcessedMessages: 2, PendingMutations: 1}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}
