package models

// Intent is the classified purpose of one inbound message, as produced
// by the interpreter.
type Intent string

const (
	IntentScheduleNew    Intent = "schedule_new_meeting"
	IntentReschedule     Intent = "reschedule_meeting"
	IntentCancel         Intent = "cancel_meeting"
	IntentConfirm        Intent = "confirm_attendance"
	IntentDecline        Intent = "decline_attendance"
	IntentProposeNewTime Intent = "propose_new_time"
	IntentQuery          Intent = "meeting_related_query"
	IntentUnrelated      Intent = "not_meeting_related"
)

// Relevant reports whether the intent concerns meeting negotiation at all.
func (i Intent) Relevant() bool {
	return i != "" && i != IntentUnrelated
}

// SchedulingTrigger reports whether the intent requires the reconciler
// to consider a calendar action.
func (i Intent) SchedulingTrigger() bool {
	switch i {
	case IntentScheduleNew, IntentReschedule, IntentProposeNewTime, IntentConfirm:
		return true
	}
	return false
}

// RequestsChange reports whether the intent clearly asks to move an
// already scheduled event.
func (i Intent) RequestsChange() bool {
	return i == IntentReschedule || i == IntentProposeNewTime
}

// InboundMessage is one message delivered by the message source.
type InboundMessage struct {
	ID                    string   `json:"id"`
	ThreadID              string   `json:"thread_id"`
	Sender                string   `json:"sender"`
	Subject               string   `json:"subject"`
	BodyText              string   `json:"body_text"`
	SideChannelRecipients []string `json:"side_channel_recipients,omitempty"`
}

// Proposal is the structured result of interpreting one message.
type Proposal struct {
	Intent          Intent   `json:"intent"`
	Topic           string   `json:"topic,omitempty"`
	AttendeeHints   []string `json:"attendees,omitempty"`
	TimePhrases     []string `json:"proposed_dates_times,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Constraints     string   `json:"constraints_preferences,omitempty"`
}

// FirstTimePhrase returns the first non-empty proposed time phrase.
func (p *Proposal) FirstTimePhrase() string {
	for _, phrase := range p.TimePhrases {
		if phrase != "" {
			return phrase
		}
	}
	return ""
}
