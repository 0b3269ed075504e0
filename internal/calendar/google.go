package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleBackend mutates the primary Google Calendar of the agent's
// account. All mutations notify attendees (sendUpdates=all) and attach
// the same reminder overrides the event invitations carry.
type GoogleBackend struct {
	service    *gcal.Service
	calendarID string
	logger     *zap.Logger
}

func NewGoogleBackend(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GoogleBackend, error) {
	service, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar service: %w", err)
	}
	return &GoogleBackend{
		service:    service,
		calendarID: "primary",
		logger:     logger,
	}, nil
}

func (g *GoogleBackend) Create(ctx context.Context, input EventInput) (EventResult, error) {
	created, err := g.service.Events.
		Insert(g.calendarID, toGoogleEvent(input)).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return EventResult{}, fmt.Errorf("calendar create failed: %w", err)
	}
	g.logger.Info("Created calendar event",
		zap.String("event_id", created.Id),
		zap.String("summary", input.Summary))
	return EventResult{ID: created.Id, ExternalLink: created.HtmlLink}, nil
}

func (g *GoogleBackend) Update(ctx context.Context, eventID string, input EventInput) (EventResult, error) {
	updated, err := g.service.Events.
		Update(g.calendarID, eventID, toGoogleEvent(input)).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return EventResult{}, fmt.Errorf("calendar update failed for %s: %w", eventID, err)
	}
	g.logger.Info("Updated calendar event",
		zap.String("event_id", updated.Id),
		zap.Time("start", input.Start))
	return EventResult{ID: updated.Id, ExternalLink: updated.HtmlLink}, nil
}

func (g *GoogleBackend) Delete(ctx context.Context, eventID string) error {
	err := g.service.Events.
		Delete(g.calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		if isGone(err) {
			g.logger.Info("Calendar event already gone, treating delete as success",
				zap.String("event_id", eventID))
			return nil
		}
		return fmt.Errorf("calendar delete failed for %s: %w", eventID, err)
	}
	g.logger.Info("Deleted calendar event", zap.String("event_id", eventID))
	return nil
}

func toGoogleEvent(input EventInput) *gcal.Event {
	attendees := make([]*gcal.EventAttendee, 0, len(input.Attendees))
	for _, email := range input.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}
	return &gcal.Event{
		Summary:     input.Summary,
		Location:    input.Location,
		Description: input.Description,
		Start: &gcal.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.Timezone,
		},
		Attendees: attendees,
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}
