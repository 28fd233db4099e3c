package entity

// FeeSchedule holds consultation fees per visit mode, in PKR.
type FeeSchedule struct {
	OnlinePKR   int `json:"online_pkr"`
	InPersonPKR int `json:"inperson_pkr"`
}

// Doctor is one entry in the clinic directory. The directory is loaded once
// at startup and doctors are immutable afterwards.
type Doctor struct {
	DoctorID        string         `json:"doctor_id"`
	Name            string         `json:"name"`
	Specialization  string         `json:"specialization"`
	ExperienceYears int            `json:"experience_years"`
	Fees            FeeSchedule    `json:"fees"`
	Location        string         `json:"location"`
	CalendarID      string         `json:"calendar_id"`
	Email           string         `json:"email"`
	Schedule        WeeklySchedule `json:"-"`
}

// FeeFor returns the fee for a visit mode, defaulting to in-person.
func (d *Doctor) FeeFor(visitMode string) int {
	if visitMode == VisitModeOnline {
		return d.Fees.OnlinePKR
	}
	return d.Fees.InPersonPKR
}

// Visit modes accepted on booking requests.
const (
	VisitModeOnline   = "online"
	VisitModeInPerson = "inperson"
)
