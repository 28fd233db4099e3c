package repository

import (
	"medbridge-booking/internal/domain/entity"
)

// DoctorDirectory is the read-only clinic directory: doctors, their weekly
// schedule templates and the condition map. Implementations load it once and
// never mutate it afterwards; all methods are safe for concurrent use.
type DoctorDirectory interface {
	DoctorByID(doctorID string) (*entity.Doctor, bool)
	DoctorByName(name string) (*entity.Doctor, bool)
	Doctors() []entity.Doctor
	// MatchCondition maps a normalized condition label to an ordered list of
	// candidate doctor IDs. Unknown labels yield an empty list.
	MatchCondition(label string) []string
}
