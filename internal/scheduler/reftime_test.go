package scheduler

import (
	"testing"
	"time"

	"github.com/inboxpilot/scheduler/internal/models"
)

func TestReferenceTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	eventStart := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)

	withEvent := &models.ThreadState{
		Status:         models.StatusScheduled,
		ScheduledEvent: &models.EventRef{EventID: "evt-1", Start: eventStart},
	}
	zeroStart := &models.ThreadState{
		Status:         models.StatusScheduled,
		ScheduledEvent: &models.EventRef{EventID: "evt-2"},
	}

	tests := []struct {
		name   string
		action Action
		state  *models.ThreadState
		want   time.Time
	}{
		{"create anchors at now", ActionCreate, withEvent, now},
		{"update anchors at event start", ActionUpdate, withEvent, eventStart},
		{"update without state falls back to now", ActionUpdate, nil, now},
		{"update with zero start falls back to now", ActionUpdate, zeroStart, now},
		{"cancel anchors at now", ActionCancel, withEvent, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReferenceTime(tt.action, tt.state, now, loc)
			if !got.Equal(tt.want) {
				t.Errorf("ReferenceTime() = %v, want %v", got, tt.want)
			}
			if got.Location() != loc {
				t.Errorf("ReferenceTime() location = %v, want %v", got.Location(), loc)
			}
		})
	}
}
