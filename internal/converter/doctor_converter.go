package converter

import (
	"time"

	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
)

var weekdayLabels = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		DoctorID:        doctor.DoctorID,
		Name:            doctor.Name,
		Specialization:  doctor.Specialization,
		ExperienceYears: doctor.ExperienceYears,
		Fees: dto.FeesResponse{
			OnlinePKR:   doctor.Fees.OnlinePKR,
			InPersonPKR: doctor.Fees.InPersonPKR,
		},
		Location:       doctor.Location,
		Email:          doctor.Email,
		WeeklySchedule: scheduleToTable(doctor.Schedule),
	}
}

// DoctorsToResponses converts a slice of Doctor entities to DTOs
func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}

func scheduleToTable(schedule entity.WeeklySchedule) map[string][]string {
	table := make(map[string][]string, len(schedule))
	for day, windows := range schedule {
		specs := make([]string, len(windows))
		for i, w := range windows {
			specs[i] = w.Start.String() + "-" + w.End.String()
		}
		table[weekdayLabels[day]] = specs
	}
	return table
}
