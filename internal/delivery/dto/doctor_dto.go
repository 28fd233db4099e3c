package dto

// Request DTOs

type DoctorLookupRequest struct {
	Condition string `json:"condition" validate:"required"`
	VisitMode string `json:"visit_mode" validate:"omitempty,oneof=online inperson any"`
}

// Response DTOs

type FeesResponse struct {
	OnlinePKR   int `json:"online_pkr"`
	InPersonPKR int `json:"inperson_pkr"`
}

type DoctorResponse struct {
	DoctorID        string              `json:"doctor_id"`
	Name            string              `json:"name"`
	Specialization  string              `json:"specialization"`
	ExperienceYears int                 `json:"experience_years"`
	Fees            FeesResponse        `json:"fees_pkr"`
	Location        string              `json:"location,omitempty"`
	Email           string              `json:"email,omitempty"`
	WeeklySchedule  map[string][]string `json:"weekly_schedule"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
