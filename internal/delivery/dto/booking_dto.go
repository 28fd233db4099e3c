package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateBookingRequest struct {
	DoctorID     string `json:"doctor_id" validate:"required"`
	Start        string `json:"start" validate:"required"` // YYYY-MM-DDTHH:MM, clinic-local
	End          string `json:"end" validate:"required"`
	PatientName  string `json:"patient_name" validate:"required,max=150"`
	PatientEmail string `json:"patient_email" validate:"required,email"`
	PatientPhone string `json:"patient_phone" validate:"omitempty,max=50"`
	PatientAge   int    `json:"patient_age" validate:"omitempty,gte=0,lte=130"`
	PatientSex   string `json:"patient_sex" validate:"omitempty,max=20"`
	VisitMode    string `json:"visit_mode" validate:"omitempty,oneof=online inperson"`
	Condition    string `json:"condition" validate:"omitempty,max=100"`
}

type CancelBookingRequest struct {
	PatientEmail string `json:"patient_email" validate:"required,email"`
}

type RescheduleBookingRequest struct {
	NewStart     string `json:"new_start" validate:"required"`
	NewEnd       string `json:"new_end" validate:"required"`
	PatientEmail string `json:"patient_email" validate:"required,email"`
}

// Response DTOs

type BookingResponse struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         string    `json:"doctor_id"`
	DoctorName       string    `json:"doctor_name,omitempty"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Status           string    `json:"status"`
	VisitMode        string    `json:"visit_mode,omitempty"`
	Condition        string    `json:"condition,omitempty"`
	FeePKR           int       `json:"fee_pkr,omitempty"`
	CalendarEventID  string    `json:"calendar_event_id,omitempty"`
	NotificationSent bool      `json:"notification_sent"`
	CreatedAt        time.Time `json:"created_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}
