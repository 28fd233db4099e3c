package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCalendarUnavailable is returned when the external calendar cannot be
	// read or written after retries; availability is never guessed.
	ErrCalendarUnavailable = errors.New("doctor calendar is unavailable")

	// ErrOutsideSchedule is returned for a slot that does not lie on the
	// doctor's schedule grid.
	ErrOutsideSchedule = errors.New("requested time is outside clinic hours for this doctor")
)

// AvailabilityService derives bookable slots from a doctor's weekly schedule
// template minus the externally-reported busy intervals. It holds no state
// besides configuration: identical inputs produce identical output.
type AvailabilityService struct {
	busySource repository.BusyIntervalSource
	log        *logrus.Logger
	location   *time.Location
	slotSize   time.Duration
	minLead    time.Duration
}

func NewAvailabilityService(
	busySource repository.BusyIntervalSource,
	log *logrus.Logger,
	location *time.Location,
	slotMinutes int,
	minLeadMinutes int,
) *AvailabilityService {
	return &AvailabilityService{
		busySource: busySource,
		log:        log,
		location:   location,
		slotSize:   time.Duration(slotMinutes) * time.Minute,
		minLead:    time.Duration(minLeadMinutes) * time.Minute,
	}
}

func (s *AvailabilityService) Location() *time.Location {
	return s.location
}

func (s *AvailabilityService) SlotSize() time.Duration {
	return s.slotSize
}

// LeadCutoff returns the earliest instant a slot may start, given now.
func (s *AvailabilityService) LeadCutoff(now time.Time) time.Time {
	return now.Add(s.minLead)
}

// FreeSlots computes the doctor's free slots for each clinic-local calendar
// date in [from, to] (inclusive), ascending, grouped by date. Slots are cut
// on the schedule-window grid and dropped when they touch a busy interval or
// start before now+minLead, so every offered slot also passes ValidateSlot.
// Dates without schedule windows, and dates whose slots are all filtered out,
// are skipped. The only side effect is the read against the busy source; a
// failed read surfaces ErrCalendarUnavailable rather than a guess.
func (s *AvailabilityService) FreeSlots(ctx context.Context, doctor *entity.Doctor, from, to time.Time, now time.Time) ([]entity.DayAvailability, error) {
	fromLocal := from.In(s.location)
	toLocal := to.In(s.location)
	fromDay := startOfDay(fromLocal)
	toDay := startOfDay(toLocal)
	if toDay.Before(fromDay) {
		return nil, entity.ErrInvalidTimeRange
	}

	// One busy fetch covers the whole range; the merged result is reused
	// for every day's slot filtering.
	rangeEnd := toDay.AddDate(0, 0, 1)
	busy, err := s.busySource.FetchBusy(ctx, doctor.CalendarID, fromDay, rangeEnd)
	if err != nil {
		s.log.Warnf("Failed to fetch busy intervals for doctor %s: %+v", doctor.DoctorID, err)
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	merged := entity.MergeIntervals(busy)
	cutoff := s.LeadCutoff(now)

	var days []entity.DayAvailability
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		windows := doctor.Schedule.WindowsOn(day.Weekday())
		if len(windows) == 0 {
			continue
		}

		year, month, dayNum := day.Date()
		var slots []entity.Slot
		for _, w := range windows {
			window := w.Resolve(year, month, dayNum, s.location)
			for _, sub := range window.Discretize(s.slotSize) {
				if sub.Start.Before(cutoff) {
					continue
				}
				if overlapsBusy(sub, merged) {
					continue
				}
				slots = append(slots, entity.Slot{
					DoctorID: doctor.DoctorID,
					Start:    sub.Start,
					End:      sub.End,
				})
			}
		}
		if len(slots) == 0 {
			continue
		}

		days = append(days, entity.DayAvailability{
			Date:  day.Format("2006-01-02"),
			Day:   day.Weekday().String(),
			Slots: slots,
		})
	}
	return days, nil
}

// ValidateSlot checks the structural slot invariants: well-formed range,
// exactly one slot granularity, aligned to the discretization grid of a
// schedule window that fully contains it. Lead-time is checked separately
// because it depends on when the check runs.
func (s *AvailabilityService) ValidateSlot(doctor *entity.Doctor, iv entity.Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	if iv.Duration() != s.slotSize {
		return entity.ErrInvalidTimeRange
	}

	local := iv.Start.In(s.location)
	year, month, day := local.Date()
	for _, w := range doctor.Schedule.WindowsOn(local.Weekday()) {
		window := w.Resolve(year, month, day, s.location)
		if !window.Contains(iv) {
			continue
		}
		if iv.Start.Sub(window.Start)%s.slotSize == 0 {
			return nil
		}
		return ErrOutsideSchedule
	}
	return ErrOutsideSchedule
}

// overlapsBusy reports whether the slot intersects any interval of the merged
// busy set. busy is sorted and disjoint, so the scan can stop at the first
// interval starting at or after the slot's end.
func overlapsBusy(iv entity.Interval, busy []entity.Interval) bool {
	for _, b := range busy {
		if !b.Start.Before(iv.End) {
			return false
		}
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
