package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medbridge-booking/config"
	"medbridge-booking/internal/converter"
	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"
	"medbridge-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrLeadTimeViolation = errors.New("slot no longer meets the minimum lead time")
	ErrSlotUnavailable   = errors.New("slot is no longer available")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingNotOwned   = errors.New("booking does not belong to you")
	ErrBookingNotActive  = errors.New("booking is not in a confirmed state")
)

type BookingUsecase interface {
	// BookAppointment commits a booking for exactly one requester per slot.
	// Contenders for an overlapping slot on the same doctor are serialized;
	// losers receive ErrSlotUnavailable and must re-query availability.
	BookAppointment(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) error
	RescheduleBooking(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingResponse, error)
	ListAppointments(ctx context.Context, patientEmail string, windowDays int) (*dto.BookingListResponse, error)
}

type bookingUsecase struct {
	log            *logrus.Logger
	cfg            config.BookingConfig
	directory      repository.DoctorDirectory
	bookingRepo    repository.BookingRepository
	auditRepo      repository.AuditLogRepository
	busySource     repository.BusyIntervalSource
	calendarWriter repository.CalendarWriter
	notifier       repository.Notifier
	locks          *service.DoctorLockService
	availability   *service.AvailabilityService
	outbox         *service.NotificationOutbox
	now            func() time.Time
}

func NewBookingUsecase(
	log *logrus.Logger,
	cfg config.BookingConfig,
	directory repository.DoctorDirectory,
	bookingRepo repository.BookingRepository,
	auditRepo repository.AuditLogRepository,
	busySource repository.BusyIntervalSource,
	calendarWriter repository.CalendarWriter,
	notifier repository.Notifier,
	locks *service.DoctorLockService,
	availability *service.AvailabilityService,
	outbox *service.NotificationOutbox,
) BookingUsecase {
	return &bookingUsecase{
		log:            log,
		cfg:            cfg,
		directory:      directory,
		bookingRepo:    bookingRepo,
		auditRepo:      auditRepo,
		busySource:     busySource,
		calendarWriter: calendarWriter,
		notifier:       notifier,
		locks:          locks,
		availability:   availability,
		outbox:         outbox,
		now:            time.Now,
	}
}

// BookAppointment drives the booking state machine:
// validated request -> reserved (under the doctor's exclusive lock, after
// overlap re-checks) -> confirmed on calendar write, or released when the
// calendar write cannot be committed. The lock is dropped before the
// notification send; a failed notification never reverts a confirmation.
func (u *bookingUsecase) BookAppointment(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	doctor, ok := u.directory.DoctorByID(req.DoctorID)
	if !ok {
		return nil, ErrDoctorNotFound
	}

	iv, err := u.parseSlot(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := u.availability.ValidateSlot(doctor, iv); err != nil {
		return nil, err
	}
	if iv.Start.Before(u.availability.LeadCutoff(u.now())) {
		return nil, ErrLeadTimeViolation
	}

	// The whole commit attempt, lock wait included, runs under one deadline
	// so a slow calendar can never pin the doctor's timeline.
	ctx, cancel := context.WithTimeout(ctx, u.cfg.AttemptTimeout)
	defer cancel()

	release, err := u.locks.Acquire(ctx, doctor.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock for doctor %s: %w", doctor.DoctorID, err)
	}
	released := false
	defer func() {
		if !released {
			release()
		}
	}()

	// Lead time is re-derived from the current clock, not the time the slot
	// was offered.
	if iv.Start.Before(u.availability.LeadCutoff(u.now())) {
		return nil, ErrLeadTimeViolation
	}

	booking := &entity.BookingRecord{
		ID:        uuid.New(),
		DoctorID:  doctor.DoctorID,
		StartTime: iv.Start,
		EndTime:   iv.End,
		Patient: entity.PatientInfo{
			Name:  req.PatientName,
			Email: req.PatientEmail,
			Phone: req.PatientPhone,
			Age:   req.PatientAge,
			Sex:   req.PatientSex,
		},
		VisitMode: req.VisitMode,
		Condition: req.Condition,
		Status:    entity.BookingStatusReserved,
	}

	// Overlap re-checks under exclusivity: our own records first, then the
	// freshest external busy set.
	overlapping, err := u.bookingRepo.FindActiveOverlapping(ctx, doctor.DoctorID, iv.Start, iv.End)
	if err != nil {
		u.log.Warnf("Failed overlap check for doctor %s: %+v", doctor.DoctorID, err)
		return nil, err
	}
	if len(overlapping) > 0 {
		u.recordFailedAttempt(ctx, booking)
		return nil, ErrSlotUnavailable
	}

	busy, err := u.busySource.FetchBusy(ctx, doctor.CalendarID, iv.Start, iv.End)
	if err != nil {
		u.log.Warnf("Failed busy re-check for doctor %s: %+v", doctor.DoctorID, err)
		return nil, fmt.Errorf("%w: %v", service.ErrCalendarUnavailable, err)
	}
	for _, b := range busy {
		if iv.Overlaps(b) {
			u.recordFailedAttempt(ctx, booking)
			return nil, ErrSlotUnavailable
		}
	}

	if err := u.bookingRepo.Create(ctx, booking); err != nil {
		u.log.Warnf("Failed to persist reservation for doctor %s: %+v", doctor.DoctorID, err)
		return nil, err
	}
	u.audit(ctx, booking, entity.AuditActionBookingReserve, nil)

	var event *repository.CalendarEvent
	err = u.withCalendarRetries(ctx, func(ctx context.Context) error {
		var cErr error
		event, cErr = u.calendarWriter.CreateEvent(ctx, doctor.CalendarID, booking, doctor)
		return cErr
	})
	if err != nil {
		u.compensateReservation(booking, err)
		return nil, fmt.Errorf("%w: %v", service.ErrCalendarUnavailable, err)
	}

	booking.Confirm(event.EventID)
	if err := u.bookingRepo.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed); err != nil {
		// The event exists but our record could not be confirmed; take the
		// event back out so the two stores agree.
		u.log.Errorf("Failed to confirm booking %s, compensating calendar: %+v", booking.ID, err)
		compCtx, compCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer compCancel()
		if delErr := u.calendarWriter.DeleteEvent(compCtx, doctor.CalendarID, event.EventID); delErr != nil {
			u.log.Errorf("CRITICAL: Failed to delete calendar event %s after confirm failure: %+v", event.EventID, delErr)
		}
		u.compensateReservation(booking, err)
		return nil, err
	}
	if err := u.bookingRepo.SetCalendarEvent(ctx, booking.ID, event.EventID); err != nil {
		u.log.Warnf("Failed to store calendar event id for booking %s: %+v", booking.ID, err)
	}
	u.audit(ctx, booking, entity.AuditActionBookingConfirm, entity.JSON{"event_id": event.EventID})

	// The commit is done; notification runs outside the critical section.
	release()
	released = true

	notificationSent := true
	if err := u.notifier.SendConfirmation(ctx, booking, doctor); err != nil {
		notificationSent = false
		u.log.Warnf("Failed to send confirmation for booking %s (non-fatal): %+v", booking.ID, err)
		if u.outbox != nil {
			u.outbox.Enqueue(ctx, booking.ID)
		}
	}

	u.log.Infof("Booking confirmed: id=%s, doctor=%s, start=%s", booking.ID, doctor.DoctorID, booking.StartTime.Format(time.RFC3339))
	return converter.BookingToResponse(booking, doctor, notificationSent), nil
}

// CancelBooking releases a confirmed booking and removes its calendar event,
// returning the slot to availability.
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) error {
	booking, err := u.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if !strings.EqualFold(booking.Patient.Email, req.PatientEmail) {
		return ErrBookingNotOwned
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return ErrBookingNotActive
	}
	doctor, ok := u.directory.DoctorByID(booking.DoctorID)
	if !ok {
		return ErrDoctorNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.AttemptTimeout)
	defer cancel()

	release, err := u.locks.Acquire(ctx, doctor.DoctorID)
	if err != nil {
		return fmt.Errorf("acquire booking lock for doctor %s: %w", doctor.DoctorID, err)
	}
	defer release()

	if booking.CalendarEventID != "" {
		err = u.withCalendarRetries(ctx, func(ctx context.Context) error {
			return u.calendarWriter.DeleteEvent(ctx, doctor.CalendarID, booking.CalendarEventID)
		})
		if err != nil {
			if !errors.Is(err, repository.ErrCalendarPermanent) {
				return fmt.Errorf("%w: %v", service.ErrCalendarUnavailable, err)
			}
			// The event is already gone or the calendar refused the delete
			// outright; the local release still frees the slot.
			u.log.Warnf("Calendar delete rejected for event %s: %+v", booking.CalendarEventID, err)
		}
	}

	if err := u.bookingRepo.UpdateStatus(ctx, booking.ID, entity.BookingStatusReleased); err != nil {
		u.log.Warnf("Failed to release booking %s: %+v", booking.ID, err)
		return err
	}
	booking.Release()
	u.audit(ctx, booking, entity.AuditActionBookingCancel, nil)

	u.log.Infof("Booking cancelled: id=%s, doctor=%s", booking.ID, booking.DoctorID)
	return nil
}

// RescheduleBooking moves a confirmed booking to a new slot under the same
// guards as a fresh booking.
func (u *bookingUsecase) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingResponse, error) {
	booking, err := u.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if !strings.EqualFold(booking.Patient.Email, req.PatientEmail) {
		return nil, ErrBookingNotOwned
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, ErrBookingNotActive
	}
	doctor, ok := u.directory.DoctorByID(booking.DoctorID)
	if !ok {
		return nil, ErrDoctorNotFound
	}

	iv, err := u.parseSlot(req.NewStart, req.NewEnd)
	if err != nil {
		return nil, err
	}
	if err := u.availability.ValidateSlot(doctor, iv); err != nil {
		return nil, err
	}
	if iv.Start.Before(u.availability.LeadCutoff(u.now())) {
		return nil, ErrLeadTimeViolation
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.AttemptTimeout)
	defer cancel()

	release, err := u.locks.Acquire(ctx, doctor.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock for doctor %s: %w", doctor.DoctorID, err)
	}
	defer release()

	overlapping, err := u.bookingRepo.FindActiveOverlapping(ctx, doctor.DoctorID, iv.Start, iv.End)
	if err != nil {
		u.log.Warnf("Failed overlap check for doctor %s: %+v", doctor.DoctorID, err)
		return nil, err
	}
	for _, other := range overlapping {
		if other.ID != booking.ID {
			return nil, ErrSlotUnavailable
		}
	}

	oldSlot := booking.Slot().Interval()
	busy, err := u.busySource.FetchBusy(ctx, doctor.CalendarID, iv.Start, iv.End)
	if err != nil {
		u.log.Warnf("Failed busy re-check for doctor %s: %+v", doctor.DoctorID, err)
		return nil, fmt.Errorf("%w: %v", service.ErrCalendarUnavailable, err)
	}
	for _, b := range busy {
		// The booking's own calendar event shows up busy; moving within or
		// next to it must not block the reschedule.
		if b.Start.Equal(oldSlot.Start) && b.End.Equal(oldSlot.End) {
			continue
		}
		if iv.Overlaps(b) {
			return nil, ErrSlotUnavailable
		}
	}

	err = u.withCalendarRetries(ctx, func(ctx context.Context) error {
		_, mErr := u.calendarWriter.MoveEvent(ctx, doctor.CalendarID, booking.CalendarEventID, iv.Start, iv.End)
		return mErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrCalendarUnavailable, err)
	}

	if err := u.bookingRepo.UpdateTimes(ctx, booking.ID, iv.Start, iv.End); err != nil {
		u.log.Errorf("Failed to persist new times for booking %s: %+v", booking.ID, err)
		return nil, err
	}
	u.audit(ctx, booking, entity.AuditActionBookingReschedule, entity.JSON{
		"old_start": oldSlot.Start.Format(time.RFC3339),
		"new_start": iv.Start.Format(time.RFC3339),
	})
	booking.StartTime = iv.Start
	booking.EndTime = iv.End

	u.log.Infof("Booking rescheduled: id=%s, doctor=%s, start=%s", booking.ID, booking.DoctorID, iv.Start.Format(time.RFC3339))
	return converter.BookingToResponse(booking, doctor, true), nil
}

// ListAppointments returns the patient's upcoming confirmed bookings.
func (u *bookingUsecase) ListAppointments(ctx context.Context, patientEmail string, windowDays int) (*dto.BookingListResponse, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	now := u.now()
	horizon := now.AddDate(0, 0, windowDays)

	bookings, err := u.bookingRepo.FindByPatientEmail(ctx, patientEmail, now)
	if err != nil {
		u.log.Warnf("Failed to list bookings for %s: %+v", patientEmail, err)
		return nil, err
	}

	responses := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		if bookings[i].StartTime.After(horizon) {
			continue
		}
		doctor, _ := u.directory.DoctorByID(bookings[i].DoctorID)
		responses = append(responses, *converter.BookingToResponse(&bookings[i], doctor, true))
	}
	return &dto.BookingListResponse{
		Bookings: responses,
		Total:    len(responses),
	}, nil
}

// parseSlot reads the clinic-local YYYY-MM-DDTHH:MM pair used on requests.
func (u *bookingUsecase) parseSlot(start, end string) (entity.Interval, error) {
	loc := u.availability.Location()
	s, err := time.ParseInLocation("2006-01-02T15:04", start, loc)
	if err != nil {
		return entity.Interval{}, entity.ErrInvalidTimeRange
	}
	e, err := time.ParseInLocation("2006-01-02T15:04", end, loc)
	if err != nil {
		return entity.Interval{}, entity.ErrInvalidTimeRange
	}
	iv := entity.Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return entity.Interval{}, err
	}
	return iv, nil
}

// withCalendarRetries runs op, retrying transient calendar failures with
// exponential backoff up to the configured bound. Permanent failures and a
// done context stop the retries immediately.
func (u *bookingUsecase) withCalendarRetries(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= u.cfg.MaxCalendarRetries; attempt++ {
		if attempt > 0 {
			delay := u.cfg.RetryBaseDelay << uint(attempt-1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", repository.ErrCalendarTransient, ctx.Err())
			}
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrCalendarPermanent) {
			return err
		}
	}
	return err
}

// compensateReservation moves a reserved booking to released after a failed
// commit. Runs on a fresh context: the attempt deadline may already be gone,
// but the reservation must not outlive it.
func (u *bookingUsecase) compensateReservation(booking *entity.BookingRecord, cause error) {
	compCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := u.bookingRepo.UpdateStatus(compCtx, booking.ID, entity.BookingStatusReleased); err != nil {
		u.log.Errorf("CRITICAL: Failed to release booking %s after commit failure: %+v", booking.ID, err)
	}
	booking.Release()
	u.audit(compCtx, booking, entity.AuditActionBookingRelease, entity.JSON{"reason": cause.Error()})
	u.log.Warnf("Booking released after failed calendar commit: id=%s, doctor=%s: %+v", booking.ID, booking.DoctorID, cause)
}

// recordFailedAttempt persists a lost-race attempt for the audit trail.
// Best effort: losing the write changes nothing for the caller.
func (u *bookingUsecase) recordFailedAttempt(ctx context.Context, booking *entity.BookingRecord) {
	booking.Fail()
	if err := u.bookingRepo.Create(ctx, booking); err != nil {
		u.log.Warnf("Failed to record failed booking attempt for doctor %s: %+v", booking.DoctorID, err)
		return
	}
	u.audit(ctx, booking, entity.AuditActionBookingFail, nil)
}

func (u *bookingUsecase) audit(ctx context.Context, booking *entity.BookingRecord, action string, metadata entity.JSON) {
	if u.auditRepo == nil {
		return
	}
	entry := &entity.AuditLog{
		BookingID: booking.ID,
		DoctorID:  booking.DoctorID,
		Action:    action,
		Metadata:  metadata,
	}
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		u.log.Warnf("Failed to write audit log %s for booking %s: %+v", action, booking.ID, err)
	}
}
