package models

import "time"

// ThreadStatus is the negotiation state of one conversation thread.
// The absence of a ThreadState is the implicit "unseen" state.
type ThreadStatus string

const (
	StatusAnalyzed           ThreadStatus = "analyzed"
	StatusScheduled          ThreadStatus = "scheduled"
	StatusScheduleFailed     ThreadStatus = "schedule_failed"
	StatusNeedsClarification ThreadStatus = "needs_clarification"
	StatusCancelled          ThreadStatus = "cancelled"
)

// Actor values used in negotiation history turns.
const (
	ActorAgent    = "agent"
	ActorExternal = "external_party"
)

// EventRef describes the single live calendar event tracked for a
// thread. It is either absent or fully populated; it is written only
// after a confirmed successful backend call.
type EventRef struct {
	EventID      string    `json:"event_id"`
	Summary      string    `json:"summary"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Timezone     string    `json:"timezone"`
	Attendees    []string  `json:"attendees"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	ExternalLink string    `json:"external_link,omitempty"`
}

// DurationMinutes derives the event length from its start and end.
func (e *EventRef) DurationMinutes() int {
	return int(e.End.Sub(e.Start) / time.Minute)
}

// NegotiationTurn is one immutable audit record of a processed message
// and the decision taken for it.
type NegotiationTurn struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Summary   string    `json:"summary"`
	Proposal  *Proposal `json:"proposal,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   Outcome   `json:"outcome"`
}

// ThreadState is the persisted negotiation state for one thread.
type ThreadState struct {
	ThreadID           string            `json:"thread_id"`
	Status             ThreadStatus      `json:"status"`
	Topic              string            `json:"topic,omitempty"`
	Participants       []string          `json:"participants"`
	IntentHistory      []Intent          `json:"intent_history"`
	NegotiationHistory []NegotiationTurn `json:"negotiation_history"`
	ScheduledEvent     *EventRef         `json:"scheduled_event,omitempty"`
	LastUpdated        time.Time         `json:"last_updated"`
}

// Clone returns a deep copy so callers can stage mutations without
// touching the stored value.
func (s *ThreadState) Clone() *ThreadState {
	if s == nil {
		return nil
	}
	out := *s
	out.Participants = append([]string(nil), s.Participants...)
	out.IntentHistory = append([]Intent(nil), s.IntentHistory...)
	out.NegotiationHistory = append([]NegotiationTurn(nil), s.NegotiationHistory...)
	if s.ScheduledEvent != nil {
		ev := *s.ScheduledEvent
		ev.Attendees = append([]string(nil), s.ScheduledEvent.Attendees...)
		out.ScheduledEvent = &ev
	}
	return &out
}

// ContextSummary renders the last few turns for the interpreter's
// conversation context input.
func (s *ThreadState) ContextSummary(maxTurns int) string {
	if s == nil || len(s.NegotiationHistory) == 0 {
		return ""
	}
	turns := s.NegotiationHistory
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	summary := "Current status: " + string(s.Status) + "."
	for _, t := range turns {
		summary += " | " + t.Actor + ": " + t.Summary
	}
	return summary
}
