package domain

import (
	"strings"
	"time"
)

// DayInput is everything known about one employee-day
type DayInput struct {
	Date      time.Time // local midnight
	Bounds    PunchBounds
	LeaveCode string
	Manual    DayFields
	Schedule  Schedule
	IsHoliday bool
	IsToday   bool
	IsDayOver bool
	IsFuture  bool
}

// DayResult is the evaluated status of one employee-day
type DayResult struct {
	Date            string      `json:"date"`
	Weekday         string      `json:"weekday"`
	StatusCode      string      `json:"j"`
	ResultFlag      string      `json:"R"`
	EntryTime       *string     `json:"E"`
	ExitTime        *string     `json:"S"`
	WorkedMinutes   *int        `json:"workedMin"`
	ExpectedMinutes *int        `json:"expectedMin"`
	MissingMinutes  int         `json:"missingMin"`
	DeltaMinutes    int         `json:"deltaMin"`
	IsHoliday       bool        `json:"isHoliday"`
	PayFactor       int         `json:"payFactor"`
	Source          PunchSource `json:"source"`
	Comment         string      `json:"comment"`
}

// Engine evaluates employee-days. It holds configuration only.
type Engine struct {
	tz           *Normalizer
	graceMinutes int
	restDay      time.Weekday
}

func NewEngine(tz *Normalizer, graceMinutes int, restDay time.Weekday) *Engine {
	return &Engine{tz: tz, graceMinutes: graceMinutes, restDay: restDay}
}

// Timezone returns the normalizer the engine evaluates in
func (e *Engine) Timezone() *Normalizer { return e.tz }

// Evaluate is pure: the same input always yields the same result.
func (e *Engine) Evaluate(in DayInput) DayResult {
	res := DayResult{
		Date:            e.tz.ISODate(in.Date),
		Weekday:         in.Date.In(e.tz.Location()).Weekday().String(),
		ExpectedMinutes: in.Schedule.ExpectedMinutes(),
		IsHoliday:       in.IsHoliday,
		PayFactor:       1,
		Source:          in.Bounds.Source,
		Comment:         in.Manual.Comment,
	}
	if res.Source == "" {
		res.Source = SourceNone
	}
	if in.Bounds.In != nil {
		s := e.tz.ClockTime(*in.Bounds.In)
		res.EntryTime = &s
	}
	if in.Bounds.Out != nil {
		s := e.tz.ClockTime(*in.Bounds.Out)
		res.ExitTime = &s
	}
	res.WorkedMinutes = WorkedMinutes(in.Bounds)

	hasPunch := in.Bounds.HasPunch()

	// Manual code is authoritative.
	if in.Manual.HasManualCode() {
		res.StatusCode = strings.TrimSpace(in.Manual.Code)
		res.ResultFlag = strings.TrimSpace(in.Manual.Reason)
		if res.StatusCode == CodeHolidayFull || res.StatusCode == CodeHolidayPartial {
			res.PayFactor = 2
		}
		return res
	}

	// Day still open: never penalize.
	if in.IsFuture || (in.IsToday && !in.IsDayOver) {
		res.StatusCode = CodeUnknown
		if hasPunch {
			res.StatusCode = CodePresent
			res.ResultFlag = e.lateFlag(in)
		}
		return res
	}

	if in.LeaveCode != "" {
		res.StatusCode = in.LeaveCode
		return res
	}

	if !hasPunch {
		res.StatusCode = CodeAbsent
		return res
	}

	res.StatusCode = CodePresent
	res.ResultFlag = e.lateFlag(in)
	res.MissingMinutes = e.missingMinutes(in, res.ExpectedMinutes, res.WorkedMinutes)

	if in.IsHoliday {
		res.PayFactor = 2
		res.StatusCode = CodeHolidayPartial
		if fullHolidayShift(res.ExpectedMinutes, res.WorkedMinutes) {
			res.StatusCode = CodeHolidayFull
		}
	} else if res.MissingMinutes > 0 {
		res.StatusCode = CodePartial
	}

	if res.MissingMinutes > 0 {
		res.DeltaMinutes = -res.MissingMinutes
	}
	return res
}

// missingMinutes applies rest-day and holiday suppression, then the grace.
func (e *Engine) missingMinutes(in DayInput, expected, worked *int) int {
	if in.IsHoliday || in.Date.In(e.tz.Location()).Weekday() == e.restDay {
		return 0
	}
	if expected == nil || *expected <= 0 || worked == nil {
		return 0
	}
	gap := *expected - *worked
	if gap < 0 {
		gap = 0
	}
	missing := gap - e.graceMinutes
	if missing < 0 {
		return 0
	}
	return missing
}

// lateFlag is "L" when the entry is strictly after the scheduled start.
func (e *Engine) lateFlag(in DayInput) string {
	if in.Schedule.Start == nil || in.Bounds.In == nil {
		return ""
	}
	if e.tz.SecondOfDay(*in.Bounds.In) > *in.Schedule.Start*60 {
		return FlagLate
	}
	return ""
}

// fullHolidayShift requires known worked minutes covering the schedule.
func fullHolidayShift(expected, worked *int) bool {
	if worked == nil {
		return false
	}
	return expected == nil || *worked >= *expected
}
