package models

import (
	"testing"
	"time"
)

func TestIntentPredicates(t *testing.T) {
	tests := []struct {
		intent   Intent
		relevant bool
		trigger  bool
		change   bool
	}{
		{IntentScheduleNew, true, true, false},
		{IntentReschedule, true, true, true},
		{IntentCancel, true, false, false},
		{IntentConfirm, true, true, false},
		{IntentDecline, true, false, false},
		{IntentProposeNewTime, true, true, true},
		{IntentQuery, true, false, false},
		{IntentUnrelated, false, false, false},
		{Intent(""), false, false, false},
	}
	for _, tt := range tests {
		if got := tt.intent.Relevant(); got != tt.relevant {
			t.Errorf("%s.Relevant() = %v, want %v", tt.intent, got, tt.relevant)
		}
		if got := tt.intent.SchedulingTrigger(); got != tt.trigger {
			t.Errorf("%s.SchedulingTrigger() = %v, want %v", tt.intent, got, tt.trigger)
		}
		if got := tt.intent.RequestsChange(); got != tt.change {
			t.Errorf("%s.RequestsChange() = %v, want %v", tt.intent, got, tt.change)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	original := &ThreadState{
		ThreadID:     "t1",
		Status:       StatusScheduled,
		Participants: []string{"a@example.com"},
		IntentHistory: []Intent{
			IntentScheduleNew,
		},
		NegotiationHistory: []NegotiationTurn{{ID: "n1", Actor: ActorExternal}},
		ScheduledEvent: &EventRef{
			EventID:   "evt-1",
			Start:     start,
			End:       start.Add(45 * time.Minute),
			Attendees: []string{"a@example.com", "b@example.com"},
		},
	}

	clone := original.Clone()
	clone.Participants[0] = "x@example.com"
	clone.IntentHistory[0] = IntentCancel
	clone.NegotiationHistory[0].ID = "mutated"
	clone.ScheduledEvent.Attendees[0] = "x@example.com"
	clone.ScheduledEvent.EventID = "other"

	if original.Participants[0] != "a@example.com" {
		t.Error("participants shared between clone and original")
	}
	if original.IntentHistory[0] != IntentScheduleNew {
		t.Error("intent history shared")
	}
	if original.NegotiationHistory[0].ID != "n1" {
		t.Error("negotiation history shared")
	}
	if original.ScheduledEvent.EventID != "evt-1" || original.ScheduledEvent.Attendees[0] != "a@example.com" {
		t.Error("scheduled event shared")
	}

	var nilState *ThreadState
	if nilState.Clone() != nil {
		t.Error("Clone of nil must be nil")
	}
}

func TestEventRefDurationMinutes(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	e := &EventRef{Start: start, End: start.Add(90 * time.Minute)}
	if got := e.DurationMinutes(); got != 90 {
		t.Errorf("DurationMinutes() = %d, want 90", got)
	}
}

func TestContextSummary(t *testing.T) {
	var nilState *ThreadState
	if got := nilState.ContextSummary(3); got != "" {
		t.Errorf("nil state summary = %q, want empty", got)
	}

	state := &ThreadState{
		Status: StatusScheduled,
		NegotiationHistory: []NegotiationTurn{
			{Actor: ActorExternal, Summary: "asked to meet"},
			{Actor: ActorAgent, Summary: "scheduled for friday"},
			{Actor: ActorExternal, Summary: "asked to move it"},
			{Actor: ActorAgent, Summary: "moved to monday"},
		},
	}

	got := state.ContextSummary(2)
	if want := "Current status: scheduled. | external_party: asked to move it | agent: moved to monday"; got != want {
		t.Errorf("ContextSummary(2) = %q, want %q", got, want)
	}
}
