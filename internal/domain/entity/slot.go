package entity

import "time"

// Slot is a concrete bookable time window for one doctor. Slots are ephemeral:
// computed per availability query, never persisted.
type Slot struct {
	DoctorID string    `json:"doctor_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// DayAvailability groups the free slots of one calendar date, slots ascending.
type DayAvailability struct {
	Date  string `json:"date"` // YYYY-MM-DD, clinic-local
	Day   string `json:"day"`  // e.g. "Monday"
	Slots []Slot `json:"slots"`
}
