package repository

import (
	"context"
	"errors"
	"time"

	"medbridge-booking/internal/domain/entity"
)

// Calendar failure classes. Transient errors may be retried with backoff;
// permanent errors must not.
var (
	ErrCalendarTransient = errors.New("calendar temporarily unavailable")
	ErrCalendarPermanent = errors.New("calendar rejected the request")
)

// BusyIntervalSource supplies externally-known occupied intervals for a
// doctor's calendar over an absolute time range.
type BusyIntervalSource interface {
	FetchBusy(ctx context.Context, calendarID string, start, end time.Time) ([]entity.Interval, error)
}

// CalendarEvent is the doctor-calendar view of a confirmed booking.
type CalendarEvent struct {
	EventID  string
	Summary  string
	Start    time.Time
	End      time.Time
	HTMLLink string
}

// CalendarWriter commits bookings to the external calendar.
type CalendarWriter interface {
	CreateEvent(ctx context.Context, calendarID string, booking *entity.BookingRecord, doctor *entity.Doctor) (*CalendarEvent, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	MoveEvent(ctx context.Context, calendarID, eventID string, start, end time.Time) (*CalendarEvent, error)
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]CalendarEvent, error)
}

// Notifier delivers booking confirmations. Failures are non-fatal to the
// booking itself and are retried out-of-band.
type Notifier interface {
	SendConfirmation(ctx context.Context, booking *entity.BookingRecord, doctor *entity.Doctor) error
}
