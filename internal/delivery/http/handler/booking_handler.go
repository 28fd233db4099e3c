package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/service"
	"medbridge-booking/internal/usecase"
	"medbridge-booking/pkg/response"
	"medbridge-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.BookAppointment(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, entity.ErrInvalidTimeRange):
			response.BadRequest(w, "Invalid slot times")
		case errors.Is(err, service.ErrOutsideSchedule):
			response.BadRequest(w, "Slot is outside the doctor's working hours")
		case errors.Is(err, usecase.ErrLeadTimeViolation):
			response.BadRequest(w, "Slot does not meet the minimum booking lead time")
		case errors.Is(err, usecase.ErrSlotUnavailable):
			response.Conflict(w, "Slot is no longer available, please pick another")
		case errors.Is(err, service.ErrCalendarUnavailable):
			response.ServiceUnavailable(w, "Calendar is temporarily unavailable, please retry")
		default:
			response.InternalServerError(w, "Failed to create booking")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Booking confirmed successfully", booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.parseBookingID(w, r)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, &req); err != nil {
		switch {
		case errors.Is(err, usecase.ErrBookingNotFound):
			response.NotFound(w, "Booking not found")
		case errors.Is(err, usecase.ErrBookingNotOwned):
			response.Error(w, http.StatusForbidden, "Booking does not belong to you", nil)
		case errors.Is(err, usecase.ErrBookingNotActive):
			response.Conflict(w, "Booking is not in a confirmed state")
		case errors.Is(err, service.ErrCalendarUnavailable):
			response.ServiceUnavailable(w, "Calendar is temporarily unavailable, please retry")
		default:
			response.InternalServerError(w, "Failed to cancel booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", nil)
}

func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := h.parseBookingID(w, r)
	if !ok {
		return
	}

	var req dto.RescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.RescheduleBooking(r.Context(), bookingID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrBookingNotFound):
			response.NotFound(w, "Booking not found")
		case errors.Is(err, usecase.ErrBookingNotOwned):
			response.Error(w, http.StatusForbidden, "Booking does not belong to you", nil)
		case errors.Is(err, usecase.ErrBookingNotActive):
			response.Conflict(w, "Booking is not in a confirmed state")
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, entity.ErrInvalidTimeRange):
			response.BadRequest(w, "Invalid slot times")
		case errors.Is(err, service.ErrOutsideSchedule):
			response.BadRequest(w, "Slot is outside the doctor's working hours")
		case errors.Is(err, usecase.ErrLeadTimeViolation):
			response.BadRequest(w, "Slot does not meet the minimum booking lead time")
		case errors.Is(err, usecase.ErrSlotUnavailable):
			response.Conflict(w, "Slot is no longer available, please pick another")
		case errors.Is(err, service.ErrCalendarUnavailable):
			response.ServiceUnavailable(w, "Calendar is temporarily unavailable, please retry")
		default:
			response.InternalServerError(w, "Failed to reschedule booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking rescheduled successfully", booking)
}

func (h *BookingHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	email := query.Get("patient_email")
	if email == "" {
		response.BadRequest(w, "Query parameter 'patient_email' is required")
		return
	}

	days := 0
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "Query parameter 'days' must be a positive number")
			return
		}
		days = parsed
	}

	bookings, err := h.bookingUsecase.ListAppointments(r.Context(), email, days)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", bookings)
}

func (h *BookingHandler) parseBookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	bookingID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return uuid.Nil, false
	}
	return bookingID, true
}
