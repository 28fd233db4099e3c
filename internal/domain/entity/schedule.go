package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day, use HH:MM")
	ErrInvalidWindow    = errors.New("invalid schedule window, use HH:MM-HH:MM with end after start")
	ErrInvalidDayName   = errors.New("invalid day name in weekly schedule")
	ErrWindowOverlap    = errors.New("schedule windows within a day must not overlap")
)

// dayNames maps the short day labels used in the doctor directory file.
var dayNames = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TimeWindow is a wall-clock window within a single day, end exclusive.
type TimeWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseTimeWindow parses the "10:00-12:00" form used by the directory file.
func ParseTimeWindow(s string) (TimeWindow, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return TimeWindow{}, ErrInvalidWindow
	}
	start, err := ParseTimeOfDay(parts[0])
	if err != nil {
		return TimeWindow{}, ErrInvalidWindow
	}
	end, err := ParseTimeOfDay(parts[1])
	if err != nil {
		return TimeWindow{}, ErrInvalidWindow
	}
	if end.Minutes() <= start.Minutes() {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Resolve converts the wall-clock window to absolute instants on the given
// date, using the zone rules in effect on that date. This keeps slot times
// correct across daylight-saving transitions.
func (w TimeWindow) Resolve(year int, month time.Month, day int, loc *time.Location) Interval {
	return Interval{
		Start: time.Date(year, month, day, w.Start.Hour, w.Start.Minute, 0, 0, loc),
		End:   time.Date(year, month, day, w.End.Hour, w.End.Minute, 0, 0, loc),
	}
}

// WeeklySchedule is a doctor's recurring availability template: for each
// weekday, a sorted, non-overlapping list of clinic-hour windows. Built once
// at directory load and treated as read-only afterwards.
type WeeklySchedule map[time.Weekday][]TimeWindow

// NewWeeklySchedule validates and types a raw day->windows table, e.g.
// {"Mon": ["10:00-12:00", "16:00-18:00"]}. Malformed windows, unknown day
// names and overlapping windows are rejected eagerly.
func NewWeeklySchedule(raw map[string][]string) (WeeklySchedule, error) {
	schedule := make(WeeklySchedule, len(raw))
	for dayName, specs := range raw {
		day, ok := dayNames[dayName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDayName, dayName)
		}
		windows := make([]TimeWindow, 0, len(specs))
		for _, spec := range specs {
			w, err := ParseTimeWindow(spec)
			if err != nil {
				return nil, fmt.Errorf("day %s window %q: %w", dayName, spec, err)
			}
			windows = append(windows, w)
		}
		sort.Slice(windows, func(a, b int) bool {
			return windows[a].Start.Minutes() < windows[b].Start.Minutes()
		})
		for i := 1; i < len(windows); i++ {
			if windows[i].Start.Minutes() < windows[i-1].End.Minutes() {
				return nil, fmt.Errorf("day %s: %w", dayName, ErrWindowOverlap)
			}
		}
		if len(windows) > 0 {
			schedule[day] = windows
		}
	}
	return schedule, nil
}

// WindowsOn returns the windows for a weekday, nil when the clinic is closed.
func (s WeeklySchedule) WindowsOn(day time.Weekday) []TimeWindow {
	return s[day]
}

// Covers reports whether the absolute interval lies fully inside one of the
// schedule windows for the interval's local date.
func (s WeeklySchedule) Covers(iv Interval, loc *time.Location) bool {
	local := iv.Start.In(loc)
	year, month, day := local.Date()
	for _, w := range s.WindowsOn(local.Weekday()) {
		if w.Resolve(year, month, day, loc).Contains(iv) {
			return true
		}
	}
	return false
}
