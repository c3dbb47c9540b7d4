package domain

import (
	"fmt"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// LocalParts is a wall-clock breakdown in the business timezone
type LocalParts struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Normalizer routes every day-boundary decision through one fixed location.
type Normalizer struct {
	loc         *time.Location
	dayOverHour int
}

// NewNormalizer loads the IANA zone name. dayOverHour is the local hour from
// which the current day counts as closed.
func NewNormalizer(zone string, dayOverHour int) (*Normalizer, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Normalizer{loc: loc, dayOverHour: dayOverHour}, nil
}

// NewNormalizerIn builds a normalizer from an already loaded location.
func NewNormalizerIn(loc *time.Location, dayOverHour int) *Normalizer {
	return &Normalizer{loc: loc, dayOverHour: dayOverHour}
}

func (n *Normalizer) Location() *time.Location { return n.loc }

func (n *Normalizer) LocalParts(t time.Time) LocalParts {
	l := t.In(n.loc)
	return LocalParts{
		Year:   l.Year(),
		Month:  l.Month(),
		Day:    l.Day(),
		Hour:   l.Hour(),
		Minute: l.Minute(),
		Second: l.Second(),
	}
}

// ISODate formats the local calendar date of t
func (n *Normalizer) ISODate(t time.Time) string {
	return t.In(n.loc).Format(isoDateLayout)
}

// ClockTime formats the local wall-clock time of t as HH:MM:SS
func (n *Normalizer) ClockTime(t time.Time) string {
	return t.In(n.loc).Format("15:04:05")
}

// SecondOfDay is the number of seconds since local midnight
func (n *Normalizer) SecondOfDay(t time.Time) int {
	p := n.LocalParts(t)
	return p.Hour*3600 + p.Minute*60 + p.Second
}

// ParseDate parses YYYY-MM-DD into local midnight
func (n *Normalizer) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), n.loc)
}

// Date builds local midnight for a calendar date
func (n *Normalizer) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, n.loc)
}

// Midnight returns local midnight of the day containing t
func (n *Normalizer) Midnight(t time.Time) time.Time {
	p := n.LocalParts(t)
	return n.Date(p.Year, p.Month, p.Day)
}

// DayBounds returns [local midnight, next local midnight) for the day containing t
func (n *Normalizer) DayBounds(t time.Time) (time.Time, time.Time) {
	start := n.Midnight(t)
	return start, start.AddDate(0, 0, 1)
}

// MonthStart returns local midnight of the first day of the month
func (n *Normalizer) MonthStart(year int, month time.Month) time.Time {
	return n.Date(year, month, 1)
}

// BuildInstant composes a local date and a HH:MM[:SS] wall-clock time.
// The bool is false when the composed value does not parse.
func (n *Normalizer) BuildInstant(isoDate, clock string) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	if strings.Count(clock, ":") == 1 {
		clock += ":00"
	}
	t, err := time.ParseInLocation(isoDateLayout+" 15:04:05", strings.TrimSpace(isoDate)+" "+clock, n.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsDayOver reports whether the local hour of t has reached the day-over threshold
func (n *Normalizer) IsDayOver(t time.Time) bool {
	return n.LocalParts(t).Hour >= n.dayOverHour
}

// DaysInMonth returns the number of calendar days in the month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
