package calendar

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeBackend records mutations in memory. It backs tests and the
// agent's dry-run mode.
type FakeBackend struct {
	mu     sync.Mutex
	events map[string]EventInput

	// FailNext, when set, makes the next mutating call return an error.
	FailNext error

	Creates int
	Updates int
	Deletes int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{events: make(map[string]EventInput)}
}

func (f *FakeBackend) Create(ctx context.Context, input EventInput) (EventResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeFailure(); err != nil {
		return EventResult{}, err
	}
	id := uuid.New().String()
	f.events[id] = input
	f.Creates++
	return EventResult{ID: id, ExternalLink: "https://calendar.example.com/event/" + id}, nil
}

func (f *FakeBackend) Update(ctx context.Context, eventID string, input EventInput) (EventResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeFailure(); err != nil {
		return EventResult{}, err
	}
	if _, ok := f.events[eventID]; !ok {
		return EventResult{}, fmt.Errorf("event %s not found", eventID)
	}
	f.events[eventID] = input
	f.Updates++
	return EventResult{ID: eventID, ExternalLink: "https://calendar.example.com/event/" + eventID}, nil
}

func (f *FakeBackend) Delete(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.takeFailure(); err != nil {
		return err
	}
	// Missing events delete successfully: cancellation is idempotent.
	delete(f.events, eventID)
	f.Deletes++
	return nil
}

// Event returns the stored payload for an id, for test assertions.
func (f *FakeBackend) Event(eventID string) (EventInput, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	input, ok := f.events[eventID]
	return input, ok
}

func (f *FakeBackend) takeFailure() error {
	if f.FailNext != nil {
		err := f.FailNext
		f.FailNext = nil
		return err
	}
	return nil
}
