package converter

import (
	"time"

	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
)

// AvailabilityToResponse converts day-grouped slots to the response DTO.
func AvailabilityToResponse(doctor *entity.Doctor, days []entity.DayAvailability, slotMinutes int, loc *time.Location) *dto.AvailabilityResponse {
	dayResponses := make([]dto.DayAvailabilityResponse, len(days))
	for i, day := range days {
		slots := make([]dto.SlotResponse, len(day.Slots))
		for j, slot := range day.Slots {
			slots[j] = dto.SlotResponse{
				Start: slot.Start,
				End:   slot.End,
				Time:  slot.Start.In(loc).Format("15:04"),
			}
		}
		dayResponses[i] = dto.DayAvailabilityResponse{
			Date:  day.Date,
			Day:   day.Day,
			Slots: slots,
		}
	}

	return &dto.AvailabilityResponse{
		DoctorID:    doctor.DoctorID,
		DoctorName:  doctor.Name,
		SlotMinutes: slotMinutes,
		Timezone:    loc.String(),
		Days:        dayResponses,
	}
}
