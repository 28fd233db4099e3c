package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking attempt.
// Reserved is the only non-terminal state; a record transitions out of it
// exactly once.
type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "reserved"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusReleased  BookingStatus = "released"
)

// PatientInfo carries the requester's contact details on a booking.
type PatientInfo struct {
	Name  string `gorm:"type:varchar(150);not null" json:"name"`
	Email string `gorm:"type:varchar(150);not null;index" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Age   int    `json:"age,omitempty"`
	Sex   string `gorm:"type:varchar(20)" json:"sex,omitempty"`
}

// BookingRecord is the persisted outcome of a booking attempt. Records are
// retained in every terminal state for audit and idempotency lookups; only
// reserved/confirmed records claim the doctor's timeline.
type BookingRecord struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID        string        `gorm:"type:varchar(50);not null;index" json:"doctor_id"`
	StartTime       time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time     `gorm:"not null" json:"end_time"`
	Patient         PatientInfo   `gorm:"embedded;embeddedPrefix:patient_" json:"patient"`
	VisitMode       string        `gorm:"type:varchar(20)" json:"visit_mode,omitempty"`
	Condition       string        `gorm:"type:varchar(100)" json:"condition,omitempty"`
	CalendarEventID string        `gorm:"type:varchar(255)" json:"calendar_event_id,omitempty"`
	Status          BookingStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BookingRecord) TableName() string {
	return "booking_records"
}

// IsActive reports whether the record currently claims the doctor's timeline.
func (b *BookingRecord) IsActive() bool {
	return b.Status == BookingStatusReserved || b.Status == BookingStatusConfirmed
}

// IsTerminal reports whether the record can no longer transition.
func (b *BookingRecord) IsTerminal() bool {
	return b.Status == BookingStatusConfirmed ||
		b.Status == BookingStatusFailed ||
		b.Status == BookingStatusReleased
}

func (b *BookingRecord) Slot() Slot {
	return Slot{DoctorID: b.DoctorID, Start: b.StartTime, End: b.EndTime}
}

// Confirm marks the booking as committed to the doctor's calendar.
func (b *BookingRecord) Confirm(eventID string) {
	b.Status = BookingStatusConfirmed
	b.CalendarEventID = eventID
}

// Release compensates a reserved booking after a downstream failure,
// returning the slot to availability.
func (b *BookingRecord) Release() {
	b.Status = BookingStatusReleased
}

// Fail marks the attempt as rejected before any calendar write.
func (b *BookingRecord) Fail() {
	b.Status = BookingStatusFailed
}
