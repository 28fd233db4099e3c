package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"medbridge-booking/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

type fakeBusySource struct {
	busy  []entity.Interval
	err   error
	calls int
}

func (f *fakeBusySource) FetchBusy(ctx context.Context, calendarID string, start, end time.Time) ([]entity.Interval, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.busy, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testDoctor(t *testing.T, raw map[string][]string) *entity.Doctor {
	t.Helper()
	schedule, err := entity.NewWeeklySchedule(raw)
	if err != nil {
		t.Fatal(err)
	}
	return &entity.Doctor{
		DoctorID:   "doc-001",
		Name:       "Dr. Ayesha Khan",
		CalendarID: "cal-001",
		Schedule:   schedule,
	}
}

// monday is 2026-09-07, a Monday, in UTC.
func monday(hour, min int) time.Time {
	return time.Date(2026, time.September, 7, hour, min, 0, 0, time.UTC)
}

func newTestService(busySource *fakeBusySource, slotMinutes, minLeadMinutes int) *AvailabilityService {
	return NewAvailabilityService(busySource, testLogger(), time.UTC, slotMinutes, minLeadMinutes)
}

func slotStarts(days []entity.DayAvailability) []time.Time {
	var starts []time.Time
	for _, day := range days {
		for _, slot := range day.Slots {
			starts = append(starts, slot.Start)
		}
	}
	return starts
}

func TestFreeSlotsFullMorningWindow(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 30)

	// At 08:00 with a 30 minute lead, every slot in the window qualifies.
	now := monday(8, 0)
	days, err := svc.FreeSlots(context.Background(), doctor, now, now, now)
	if err != nil {
		t.Fatal(err)
	}
	got := slotStarts(days)
	want := []time.Time{monday(10, 0), monday(10, 30), monday(11, 0), monday(11, 30)}
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want 4", len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("slot %d starts at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFreeSlotsLeadCutsFirstSlot(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 30)

	// At 09:45 the cutoff is 10:15: the 10:00 slot drops, 10:30 is first.
	now := monday(9, 45)
	days, err := svc.FreeSlots(context.Background(), doctor, now, now, now)
	if err != nil {
		t.Fatal(err)
	}
	got := slotStarts(days)
	want := []time.Time{monday(10, 30), monday(11, 0), monday(11, 30)}
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want 3", len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("slot %d starts at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFreeSlotsSubtractsBusyIntervals(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	source := &fakeBusySource{busy: []entity.Interval{
		{Start: monday(10, 30), End: monday(11, 0)},
	}}
	svc := newTestService(source, 30, 0)

	days, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0), monday(0, 0))
	if err != nil {
		t.Fatalf("FreeSlots() = %v, want nil", err)
	}
	if len(days) != 1 {
		t.Fatalf("FreeSlots() returned %d days, want 1", len(days))
	}
	if days[0].Date != "2026-09-07" || days[0].Day != "Monday" {
		t.Errorf("day header = %s/%s, want 2026-09-07/Monday", days[0].Date, days[0].Day)
	}

	got := slotStarts(days)
	want := []time.Time{monday(10, 0), monday(11, 0), monday(11, 30)}
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("slot %d starts at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFreeSlotsStayOnGridWithOffGridBusy(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	source := &fakeBusySource{busy: []entity.Interval{
		{Start: monday(10, 0), End: monday(10, 10)},
	}}
	svc := newTestService(source, 30, 0)

	days, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	// A busy interval ending off the grid only costs the slot it touches;
	// the rest keep their window-aligned starts.
	got := slotStarts(days)
	want := []time.Time{monday(10, 30), monday(11, 0), monday(11, 30)}
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %v", len(got), got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("slot %d starts at %v, want %v", i, got[i], want[i])
		}
	}

	// Every offered slot must be accepted by the booking-side check.
	for _, day := range days {
		for _, slot := range day.Slots {
			if err := svc.ValidateSlot(doctor, slot.Interval()); err != nil {
				t.Errorf("offered slot %v rejected: %v", slot.Start, err)
			}
		}
	}
}

func TestFreeSlotsOmitsDaysWithNoRemainingSlots(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}, "Tue": {"10:00-12:00"}})
	source := &fakeBusySource{busy: []entity.Interval{
		{Start: monday(9, 0), End: monday(13, 0)}, // Monday fully booked
	}}
	svc := newTestService(source, 30, 0)

	days, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, 1), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1 (fully booked day omitted like closed days)", len(days))
	}
	if days[0].Date != "2026-09-08" {
		t.Errorf("remaining day = %s, want 2026-09-08", days[0].Date)
	}
}

func TestFreeSlotsNoSlotOverlapsBusy(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"09:00-17:00"}})
	busy := []entity.Interval{
		{Start: monday(9, 15), End: monday(10, 45)},
		{Start: monday(12, 0), End: monday(12, 30)},
		{Start: monday(16, 50), End: monday(17, 30)},
	}
	svc := newTestService(&fakeBusySource{busy: busy}, 30, 0)

	days, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	for _, day := range days {
		for _, slot := range day.Slots {
			iv := slot.Interval()
			if iv.Duration() != 30*time.Minute {
				t.Errorf("slot %v has duration %v, want 30m", slot.Start, iv.Duration())
			}
			for _, b := range busy {
				if iv.Overlaps(b) {
					t.Errorf("slot %v overlaps busy %v", iv, b)
				}
			}
		}
	}
}

func TestFreeSlotsFiltersLeadTime(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 60)

	// At 10:15 with a 60 minute lead, the first allowed start is 11:15;
	// aligned slots begin at 11:30.
	now := monday(10, 15)
	days, err := svc.FreeSlots(context.Background(), doctor, now, now, now)
	if err != nil {
		t.Fatal(err)
	}
	got := slotStarts(days)
	if len(got) != 1 || !got[0].Equal(monday(11, 30)) {
		t.Fatalf("got slots %v, want exactly [11:30]", got)
	}
}

func TestFreeSlotsIsIdempotent(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}, "Wed": {"14:00-16:00"}})
	source := &fakeBusySource{busy: []entity.Interval{
		{Start: monday(10, 0), End: monday(10, 30)},
	}}
	svc := newTestService(source, 30, 0)

	first, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, 6), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, 6), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	firstStarts, secondStarts := slotStarts(first), slotStarts(second)
	if len(firstStarts) != len(secondStarts) {
		t.Fatalf("slot counts differ between identical calls: %d vs %d", len(firstStarts), len(secondStarts))
	}
	for i := range firstStarts {
		if !firstStarts[i].Equal(secondStarts[i]) {
			t.Errorf("slot %d differs: %v vs %v", i, firstStarts[i], secondStarts[i])
		}
	}
}

func TestFreeSlotsSkipsClosedDays(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 0)

	// Monday through Sunday; only Monday has windows.
	days, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, 6), monday(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 {
		t.Fatalf("FreeSlots() returned %d days, want 1 (closed days skipped)", len(days))
	}
}

func TestFreeSlotsRejectsInvertedRange(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 0)

	_, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, -1), monday(0, 0))
	if !errors.Is(err, entity.ErrInvalidTimeRange) {
		t.Fatalf("FreeSlots() inverted range = %v, want ErrInvalidTimeRange", err)
	}
}

func TestFreeSlotsSurfacesCalendarFailure(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	source := &fakeBusySource{err: errors.New("freebusy query failed")}
	svc := newTestService(source, 30, 0)

	_, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0), monday(0, 0))
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("FreeSlots() = %v, want ErrCalendarUnavailable", err)
	}
}

func TestFreeSlotsFetchesBusyOnce(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}, "Tue": {"10:00-12:00"}})
	source := &fakeBusySource{}
	svc := newTestService(source, 30, 0)

	if _, err := svc.FreeSlots(context.Background(), doctor, monday(0, 0), monday(0, 0).AddDate(0, 0, 6), monday(0, 0)); err != nil {
		t.Fatal(err)
	}
	if source.calls != 1 {
		t.Fatalf("busy source called %d times for a 7 day range, want 1", source.calls)
	}
}

func TestValidateSlot(t *testing.T) {
	doctor := testDoctor(t, map[string][]string{"Mon": {"10:00-12:00"}})
	svc := newTestService(&fakeBusySource{}, 30, 0)

	tests := []struct {
		name    string
		iv      entity.Interval
		wantErr error
	}{
		{"aligned slot", entity.Interval{Start: monday(10, 30), End: monday(11, 0)}, nil},
		{"window start", entity.Interval{Start: monday(10, 0), End: monday(10, 30)}, nil},
		{"last slot", entity.Interval{Start: monday(11, 30), End: monday(12, 0)}, nil},
		{"misaligned", entity.Interval{Start: monday(10, 15), End: monday(10, 45)}, ErrOutsideSchedule},
		{"wrong size", entity.Interval{Start: monday(10, 0), End: monday(11, 0)}, entity.ErrInvalidTimeRange},
		{"outside window", entity.Interval{Start: monday(12, 0), End: monday(12, 30)}, ErrOutsideSchedule},
		{"crosses window end", entity.Interval{Start: monday(11, 45), End: monday(12, 15)}, ErrOutsideSchedule},
		{"closed day", entity.Interval{
			Start: time.Date(2026, time.September, 8, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.September, 8, 10, 30, 0, 0, time.UTC),
		}, ErrOutsideSchedule},
		{"inverted", entity.Interval{Start: monday(11, 0), End: monday(10, 30)}, entity.ErrInvalidTimeRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateSlot(doctor, tt.iv)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSlot() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSlot() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
