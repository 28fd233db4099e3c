package converter

import (
	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
)

// BookingToResponse converts a BookingRecord entity to BookingResponse DTO.
// doctor may be nil when the directory no longer knows the ID.
func BookingToResponse(booking *entity.BookingRecord, doctor *entity.Doctor, notificationSent bool) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:               booking.ID,
		DoctorID:         booking.DoctorID,
		Start:            booking.StartTime,
		End:              booking.EndTime,
		Status:           string(booking.Status),
		VisitMode:        booking.VisitMode,
		Condition:        booking.Condition,
		CalendarEventID:  booking.CalendarEventID,
		NotificationSent: notificationSent,
		CreatedAt:        booking.CreatedAt,
	}
	if doctor != nil {
		response.DoctorName = doctor.Name
		response.FeePKR = doctor.FeeFor(booking.VisitMode)
	}
	return response
}
