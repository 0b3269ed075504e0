package scheduler

import (
	"fmt"
	"strings"

	"github.com/inboxpilot/scheduler/internal/models"
)

// Defaults are the configured fallbacks used when neither the current
// message nor prior thread state provide a value.
type Defaults struct {
	DurationMinutes int
	Topic           string
	Location        string
}

// ResolveTopic picks the event summary: explicit topic in the current
// message, then the prior thread topic, then the message subject, then
// the configured fallback literal.
func ResolveTopic(proposal *models.Proposal, prior *models.ThreadState, subject string, defaults Defaults) string {
	if t := strings.TrimSpace(proposal.Topic); t != "" {
		return t
	}
	if prior != nil && strings.TrimSpace(prior.Topic) != "" {
		return prior.Topic
	}
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	return defaults.Topic
}

// ResolveDuration picks the meeting length in minutes: an explicit
// positive duration in the current message, then the length of the
// existing event, then the configured default.
func ResolveDuration(proposal *models.Proposal, prior *models.ThreadState, defaults Defaults) int {
	if proposal.DurationMinutes > 0 {
		return proposal.DurationMinutes
	}
	if prior != nil && prior.ScheduledEvent != nil {
		if d := prior.ScheduledEvent.DurationMinutes(); d > 0 {
			return d
		}
	}
	return defaults.DurationMinutes
}

// ResolveLocation picks the event location. Constraints naming a real
// place win; constraints that merely restate a virtual preference fall
// through to the prior event's location and finally the default
// placeholder.
func ResolveLocation(proposal *models.Proposal, prior *models.ThreadState, defaults Defaults) string {
	c := strings.TrimSpace(proposal.Constraints)
	if c != "" {
		lower := strings.ToLower(c)
		if !strings.Contains(lower, "video call") && !strings.Contains(lower, "virtual") {
			return c
		}
	}
	if prior != nil && prior.ScheduledEvent != nil && prior.ScheduledEvent.Location != "" {
		return prior.ScheduledEvent.Location
	}
	return defaults.Location
}

// ResolveDescription composes the event description from the current
// message, falling back to the prior event's description and finally a
// minimal literal.
func ResolveDescription(proposal *models.Proposal, prior *models.ThreadState, msg models.InboundMessage, topic string) string {
	if strings.TrimSpace(msg.Subject) != "" || strings.TrimSpace(proposal.Constraints) != "" {
		constraints := proposal.Constraints
		if constraints == "" {
			constraints = "None"
		}
		return fmt.Sprintf("Meeting scheduled from thread %s.\nSubject: %s\nTopic: %s\nConstraints/Preferences: %s",
			msg.ThreadID, msg.Subject, topic, constraints)
	}
	if prior != nil && prior.ScheduledEvent != nil && prior.ScheduledEvent.Description != "" {
		return prior.ScheduledEvent.Description
	}
	return "Meeting scheduled by assistant."
}
