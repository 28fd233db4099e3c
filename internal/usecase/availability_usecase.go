package usecase

import (
	"context"
	"time"

	"medbridge-booking/internal/converter"
	"medbridge-booking/internal/delivery/dto"
	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"
	"medbridge-booking/internal/service"

	"github.com/sirupsen/logrus"
)

type AvailabilityUsecase interface {
	// GetAvailability returns free slots for a doctor over an inclusive
	// clinic-local date range. endDate may be empty for a single day.
	GetAvailability(ctx context.Context, doctorID, date, endDate string) (*dto.AvailabilityResponse, error)
	// WeeklyAvailability returns the next `days` days for a doctor found by
	// name, starting today.
	WeeklyAvailability(ctx context.Context, doctorName string, days int) (*dto.AvailabilityResponse, error)
}

type availabilityUsecase struct {
	log          *logrus.Logger
	directory    repository.DoctorDirectory
	availability *service.AvailabilityService
	now          func() time.Time
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	directory repository.DoctorDirectory,
	availability *service.AvailabilityService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		log:          log,
		directory:    directory,
		availability: availability,
		now:          time.Now,
	}
}

func (u *availabilityUsecase) GetAvailability(ctx context.Context, doctorID, date, endDate string) (*dto.AvailabilityResponse, error) {
	doctor, ok := u.directory.DoctorByID(doctorID)
	if !ok {
		return nil, ErrDoctorNotFound
	}

	loc := u.availability.Location()
	now := u.now()

	from, err := u.parseDate(date, now, loc)
	if err != nil {
		return nil, err
	}
	to := from
	if endDate != "" {
		to, err = u.parseDate(endDate, now, loc)
		if err != nil {
			return nil, err
		}
	}

	days, err := u.availability.FreeSlots(ctx, doctor, from, to, now)
	if err != nil {
		return nil, err
	}

	slotMinutes := int(u.availability.SlotSize() / time.Minute)
	return converter.AvailabilityToResponse(doctor, days, slotMinutes, loc), nil
}

func (u *availabilityUsecase) WeeklyAvailability(ctx context.Context, doctorName string, days int) (*dto.AvailabilityResponse, error) {
	doctor, ok := u.directory.DoctorByName(doctorName)
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if days <= 0 {
		days = 7
	}

	loc := u.availability.Location()
	now := u.now()
	from := now.In(loc)
	to := from.AddDate(0, 0, days-1)

	grouped, err := u.availability.FreeSlots(ctx, doctor, from, to, now)
	if err != nil {
		return nil, err
	}

	slotMinutes := int(u.availability.SlotSize() / time.Minute)
	return converter.AvailabilityToResponse(doctor, grouped, slotMinutes, loc), nil
}

// parseDate accepts a clinic-local YYYY-MM-DD; empty defaults to today.
func (u *availabilityUsecase) parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, entity.ErrInvalidTimeRange
	}
	return t, nil
}
