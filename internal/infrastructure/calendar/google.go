package calendar

import (
	"context"
	"fmt"
	"time"

	"medbridge-booking/config"
	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendarClient implements BusyIntervalSource and CalendarWriter on
// top of the Google Calendar API using service-account credentials.
type GoogleCalendarClient struct {
	svc      *gcal.Service
	log      *logrus.Logger
	timezone string
}

func NewGoogleCalendarClient(ctx context.Context, cfg config.GoogleConfig, timezone string, log *logrus.Logger) (*GoogleCalendarClient, error) {
	if cfg.ServiceAccountFile == "" {
		return nil, fmt.Errorf("google service account credentials not configured, set GOOGLE_SERVICE_ACCOUNT_FILE")
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.ServiceAccountFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendarClient{svc: svc, log: log, timezone: timezone}, nil
}

// FetchBusy queries free/busy for a doctor's calendar over [start, end).
func (c *GoogleCalendarClient) FetchBusy(ctx context.Context, calendarID string, start, end time.Time) ([]entity.Interval, error) {
	resp, err := c.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: c.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		c.log.Warnf("Failed freebusy query for calendar %s: %+v", calendarID, err)
		return nil, c.classify(err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	intervals := make([]entity.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		bStart, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		bEnd, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		intervals = append(intervals, entity.Interval{Start: bStart, End: bEnd})
	}
	return intervals, nil
}

func (c *GoogleCalendarClient) CreateEvent(ctx context.Context, calendarID string, booking *entity.BookingRecord, doctor *entity.Doctor) (*repository.CalendarEvent, error) {
	summary := fmt.Sprintf("Consultation: %s - %s", doctor.Name, booking.Patient.Name)
	description := fmt.Sprintf(
		"Visit mode: %s\nCondition: %s\nBooking: %s\nPatient: %s <%s>",
		orUnspecified(booking.VisitMode), orUnspecified(booking.Condition),
		booking.ID, booking.Patient.Name, booking.Patient.Email,
	)

	event := &gcal.Event{
		Summary:     summary,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: booking.StartTime.Format(time.RFC3339), TimeZone: c.timezone},
		End:         &gcal.EventDateTime{DateTime: booking.EndTime.Format(time.RFC3339), TimeZone: c.timezone},
	}
	if booking.VisitMode == entity.VisitModeInPerson && doctor.Location != "" {
		event.Location = doctor.Location
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		c.log.Warnf("Failed calendar insert for booking %s: %+v", booking.ID, err)
		return nil, c.classify(err)
	}
	return eventFromGoogle(created), nil
}

func (c *GoogleCalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		c.log.Warnf("Failed calendar delete for event %s: %+v", eventID, err)
		return c.classify(err)
	}
	return nil
}

func (c *GoogleCalendarClient) MoveEvent(ctx context.Context, calendarID, eventID string, start, end time.Time) (*repository.CalendarEvent, error) {
	patch := &gcal.Event{
		Start: &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.timezone},
		End:   &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.timezone},
	}
	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		c.log.Warnf("Failed calendar patch for event %s: %+v", eventID, err)
		return nil, c.classify(err)
	}
	return eventFromGoogle(updated), nil
}

func (c *GoogleCalendarClient) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]repository.CalendarEvent, error) {
	resp, err := c.svc.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		c.log.Warnf("Failed calendar list for %s: %+v", calendarID, err)
		return nil, c.classify(err)
	}

	events := make([]repository.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev := eventFromGoogle(item)
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

// classify splits calendar failures into the retryable and terminal classes
// the booking coordinator distinguishes. Rate limiting and server-side
// failures are transient; everything else from the API is permanent.
func (c *GoogleCalendarClient) classify(err error) error {
	if gErr, ok := err.(*googleapi.Error); ok {
		if gErr.Code == 429 || gErr.Code >= 500 {
			return fmt.Errorf("%w: %v", repository.ErrCalendarTransient, err)
		}
		return fmt.Errorf("%w: %v", repository.ErrCalendarPermanent, err)
	}
	// Network-level failures are worth a retry.
	return fmt.Errorf("%w: %v", repository.ErrCalendarTransient, err)
}

func eventFromGoogle(ev *gcal.Event) *repository.CalendarEvent {
	if ev == nil {
		return nil
	}
	out := &repository.CalendarEvent{
		EventID:  ev.Id,
		Summary:  ev.Summary,
		HTMLLink: ev.HtmlLink,
	}
	if ev.Start != nil && ev.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, ev.Start.DateTime); err == nil {
			out.Start = t
		}
	}
	if ev.End != nil && ev.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, ev.End.DateTime); err == nil {
			out.End = t
		}
	}
	return out
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
