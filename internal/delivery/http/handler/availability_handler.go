package handler

import (
	"errors"
	"net/http"
	"strconv"

	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/service"
	"medbridge-booking/internal/usecase"
	"medbridge-booking/pkg/response"

	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
	}
}

func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID := vars["id"]

	query := r.URL.Query()
	availability, err := h.availabilityUsecase.GetAvailability(r.Context(), doctorID, query.Get("date"), query.Get("end_date"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, entity.ErrInvalidTimeRange):
			response.BadRequest(w, "Invalid date range")
		case errors.Is(err, service.ErrCalendarUnavailable):
			response.ServiceUnavailable(w, "Calendar is temporarily unavailable, please retry")
		default:
			response.InternalServerError(w, "Failed to get availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *AvailabilityHandler) GetWeeklyAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("doctor")
	if name == "" {
		response.BadRequest(w, "Query parameter 'doctor' is required")
		return
	}

	days := 0
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 31 {
			response.BadRequest(w, "Query parameter 'days' must be between 1 and 31")
			return
		}
		days = parsed
	}

	availability, err := h.availabilityUsecase.WeeklyAvailability(r.Context(), name, days)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, service.ErrCalendarUnavailable):
			response.ServiceUnavailable(w, "Calendar is temporarily unavailable, please retry")
		default:
			response.InternalServerError(w, "Failed to get availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}
