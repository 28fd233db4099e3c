package dto

import "time"

// Response DTOs

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Time  string    `json:"time"` // clinic-local HH:MM, for display
}

type DayAvailabilityResponse struct {
	Date  string         `json:"date"`
	Day   string         `json:"day"`
	Slots []SlotResponse `json:"slots"`
}

type AvailabilityResponse struct {
	DoctorID    string                    `json:"doctor_id"`
	DoctorName  string                    `json:"doctor_name"`
	SlotMinutes int                       `json:"slot_minutes"`
	Timezone    string                    `json:"timezone"`
	Days        []DayAvailabilityResponse `json:"days"`
}
