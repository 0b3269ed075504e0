package calendar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFakeBackendLifecycle(t *testing.T) {
	f := NewFakeBackend()
	ctx := context.Background()
	input := EventInput{
		Summary: "Sync",
		Start:   time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC),
	}

	created, err := f.Create(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.ExternalLink == "" {
		t.Fatalf("create result incomplete: %+v", created)
	}

	input.Summary = "Sync (moved)"
	updated, err := f.Update(ctx, created.ID, input)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != created.ID {
		t.Errorf("update changed the event id: %s -> %s", created.ID, updated.ID)
	}
	if stored, _ := f.Event(created.ID); stored.Summary != "Sync (moved)" {
		t.Errorf("stored summary = %q", stored.Summary)
	}

	if _, err := f.Update(ctx, "no-such-event", input); err == nil {
		t.Error("updating a missing event must fail")
	}

	if err := f.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	// Deleting again is a no-op, matching provider semantics for gone
	// events.
	if err := f.Delete(ctx, created.ID); err != nil {
		t.Errorf("repeat delete = %v, want nil", err)
	}
}

func TestFakeBackendFailNext(t *testing.T) {
	f := NewFakeBackend()
	ctx := context.Background()
	boom := errors.New("boom")

	f.FailNext = boom
	if _, err := f.Create(ctx, EventInput{Summary: "x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want injected failure", err)
	}
	// The failure is consumed by the first call.
	if _, err := f.Create(ctx, EventInput{Summary: "x"}); err != nil {
		t.Errorf("second call = %v, want success", err)
	}
	if f.Creates != 1 {
		t.Errorf("creates = %d, want 1", f.Creates)
	}
}
