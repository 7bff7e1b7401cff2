// Package timeslot provides minute-of-day arithmetic for the booking calendar.
// All times are expressed as minutes since midnight in the clinic's timezone,
// which keeps slot math free of timezone and DST concerns until the moment an
// interval is rendered or exported.
package timeslot

import (
	"fmt"
	"sort"
	"time"
)

// MinutesPerDay is the exclusive upper bound for a minute-of-day value.
const MinutesPerDay = 24 * 60

// Interval is a half-open [Start, End) range of minutes within one day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the interval is well-formed and inside a single day.
func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.Start < iv.End && iv.End <= MinutesPerDay
}

// Overlaps reports whether two half-open intervals share any minute.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int { return iv.End - iv.Start }

// ParseMinute parses "HH:MM" into minutes since midnight.
func ParseMinute(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatMinute renders minutes since midnight as "HH:MM".
func FormatMinute(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// FormatRange renders an interval as "HH:MM–HH:MM", e.g. a 60-minute slot
// starting at 09:00 renders as "09:00–10:00".
func FormatRange(iv Interval) string {
	return FormatMinute(iv.Start) + "–" + FormatMinute(iv.End)
}

// String implements fmt.Stringer.
func (iv Interval) String() string { return FormatRange(iv) }

// ToTime converts a date plus a minute-of-day into a time.Time in loc.
func ToTime(date time.Time, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minute/60, minute%60, 0, 0, loc)
}

// Merge normalizes a set of intervals: sorts by start and coalesces any that
// touch or overlap. The input slice is not modified.
func Merge(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes the busy intervals from the window and returns the free
// remainder, sorted ascending.
func Subtract(window Interval, busy []Interval) []Interval {
	free := []Interval{window}
	for _, b := range Merge(busy) {
		var next []Interval
		for _, f := range free {
			if !f.Overlaps(b) {
				next = append(next, f)
				continue
			}
			if b.Start > f.Start {
				next = append(next, Interval{Start: f.Start, End: b.Start})
			}
			if b.End < f.End {
				next = append(next, Interval{Start: b.End, End: f.End})
			}
		}
		free = next
	}
	return free
}

// Slots cuts every free interval into candidate slots of the given duration,
// stepped on the given grid. A step of 0 means step == duration
// (back-to-back slots).
func Slots(free []Interval, duration, step int) []Interval {
	if duration <= 0 {
		return nil
	}
	if step <= 0 {
		step = duration
	}
	var out []Interval
	for _, f := range free {
		for start := f.Start; start+duration <= f.End; start += step {
			out = append(out, Interval{Start: start, End: start + duration})
		}
	}
	return out
}
