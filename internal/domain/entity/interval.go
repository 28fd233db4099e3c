package entity

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidTimeRange is returned for zero-length or inverted time ranges.
var ErrInvalidTimeRange = errors.New("invalid time range: end must be after start")

// Interval is an absolute time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate rejects zero-length and inverted intervals.
func (i Interval) Validate() error {
	if !i.End.After(i.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Contains reports whether o lies fully within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// MergeIntervals returns a minimal disjoint set covering the same time as the
// input: intervals are sorted by start and coalesced where the next interval
// starts at or before the current one ends. Zero-length entries are dropped.
func MergeIntervals(intervals []Interval) []Interval {
	cleaned := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			cleaned = append(cleaned, iv)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	sort.Slice(cleaned, func(a, b int) bool {
		return cleaned[a].Start.Before(cleaned[b].Start)
	})

	merged := []Interval{cleaned[0]}
	for _, next := range cleaned[1:] {
		cur := &merged[len(merged)-1]
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// Discretize cuts the interval into consecutive fixed-size slots anchored at
// the interval start. A trailing remainder shorter than one slot is dropped.
func (i Interval) Discretize(size time.Duration) []Interval {
	if size <= 0 {
		return nil
	}
	var slots []Interval
	cursor := i.Start
	for !cursor.Add(size).After(i.End) {
		slots = append(slots, Interval{Start: cursor, End: cursor.Add(size)})
		cursor = cursor.Add(size)
	}
	return slots
}
