package domain

import (
	"strconv"
	"strings"
)

// Schedule is an expected daily window in minutes from local midnight.
// A nil bound means the stored value was missing or malformed.
type Schedule struct {
	Start *int
	End   *int
}

// ResolveSchedule parses HH:MM[:SS] bounds. Malformed values yield no bound;
// they are not an error.
func ResolveSchedule(start, end string) Schedule {
	var s Schedule
	if m, ok := ParseClockMinutes(start); ok {
		s.Start = &m
	}
	if m, ok := ParseClockMinutes(end); ok {
		s.End = &m
	}
	return s
}

// ExpectedMinutes is End-Start when both bounds exist and End > Start.
func (s Schedule) ExpectedMinutes() *int {
	if s.Start == nil || s.End == nil || *s.End <= *s.Start {
		return nil
	}
	d := *s.End - *s.Start
	return &d
}

// ParseClockMinutes parses HH:MM[:SS] into minutes from midnight, clamping
// the hour to 0..23 and the minute to 0..59. Seconds are ignored.
func ParseClockMinutes(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, false
		}
	}
	return clamp(h, 0, 23)*60 + clamp(m, 0, 59), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
