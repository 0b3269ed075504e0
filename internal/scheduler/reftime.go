package scheduler

import (
	"time"

	"github.com/inboxpilot/scheduler/internal/models"
)

// ReferenceTime chooses the anchor instant for resolving a relative
// time phrase. A create anchors at the processing instant in the
// configured zone. An update anchors at the existing event's start, so
// "push it back one hour" moves the meeting being discussed rather
// than resolving against now; if the prior start is unusable it falls
// back to the processing instant.
func ReferenceTime(action Action, state *models.ThreadState, now time.Time, loc *time.Location) time.Time {
	if action == ActionUpdate && state != nil && state.ScheduledEvent != nil {
		if start := state.ScheduledEvent.Start; !start.IsZero() {
			return start.In(loc)
		}
	}
	return now.In(loc)
}
