package http

import (
	"net/http"

	"medbridge-booking/internal/delivery/http/handler"
	"medbridge-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	doctorHandler       *handler.DoctorHandler
	availabilityHandler *handler.AvailabilityHandler
	bookingHandler      *handler.BookingHandler
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	doctorHandler *handler.DoctorHandler,
	availabilityHandler *handler.AvailabilityHandler,
	bookingHandler *handler.BookingHandler,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		doctorHandler:       doctorHandler,
		availabilityHandler: availabilityHandler,
		bookingHandler:      bookingHandler,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Doctor directory
	api.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/lookup", r.doctorHandler.LookupByCondition).Methods(http.MethodPost)
	api.HandleFunc("/doctors/by-name", r.doctorHandler.GetDoctorByName).Methods(http.MethodGet)

	// Availability
	api.HandleFunc("/doctors/{id}/availability", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/availability/weekly", r.availabilityHandler.GetWeeklyAvailability).Methods(http.MethodGet)

	// Bookings
	api.HandleFunc("/bookings", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/reschedule", r.bookingHandler.RescheduleBooking).Methods(http.MethodPost)
	api.HandleFunc("/appointments", r.bookingHandler.GetMyAppointments).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
