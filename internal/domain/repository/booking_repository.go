package repository

import (
	"context"
	"time"

	"medbridge-booking/internal/domain/entity"

	"github.com/google/uuid"
)

// BookingRepository persists booking records. The overlap query and status
// updates are only ever called inside the per-doctor critical section; reads
// for listing/audit may run concurrently.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.BookingRecord) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error
	SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.BookingRecord, error)
	// FindActiveOverlapping returns reserved/confirmed records for the doctor
	// that overlap [start, end).
	FindActiveOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]entity.BookingRecord, error)
	FindByPatientEmail(ctx context.Context, email string, from time.Time) ([]entity.BookingRecord, error)
}

// AuditLogRepository appends booking state transitions to the audit trail.
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]entity.AuditLog, error)
}
