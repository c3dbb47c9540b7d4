package domain

import (
	"strconv"
	"strings"
	"time"
)

// Status codes written into the monthly grid
const (
	CodePresent        = "P"
	CodeAbsent         = "A"
	CodePartial        = "PP"
	CodeHolidayPartial = "PH"
	CodeHolidayFull    = "PHF"
	CodeUnknown        = "?"

	FlagLate = "L"
)

// PunchSource tells where a day's entry/exit came from
type PunchSource string

const (
	SourceManual PunchSource = "manual"
	SourceDevice PunchSource = "device"
	SourceNone   PunchSource = "none"
)

// DaysPerRow is the fixed width of a monthly timesheet row
const DaysPerRow = 31

// Employee is the read-only view of HR master data this service needs
type Employee struct {
	ID             int64   `db:"id" json:"id"`
	FullName       string  `db:"full_name" json:"full_name"`
	AttachedNumber *string `db:"attached_number" json:"attached_number,omitempty"`
	ScheduleStart  *string `db:"schedule_start" json:"schedule_start,omitempty"`
	ScheduleEnd    *string `db:"schedule_end" json:"schedule_end,omitempty"`
	PointOfSale    *string `db:"point_of_sale" json:"point_of_sale,omitempty"`
	Active         bool    `db:"active" json:"active"`
}

// ClockCode returns the code clock devices use for this employee,
// falling back to the internal id.
func (e *Employee) ClockCode() string {
	if e.AttachedNumber != nil {
		if code := strings.TrimSpace(*e.AttachedNumber); code != "" {
			return code
		}
	}
	return strconv.FormatInt(e.ID, 10)
}

// Schedule resolves the employee's expected daily window
func (e *Employee) Schedule() Schedule {
	return ResolveSchedule(deref(e.ScheduleStart), deref(e.ScheduleEnd))
}

// PS returns the point of sale or an empty string
func (e *Employee) PS() string {
	return deref(e.PointOfSale)
}

// DayFields are the per-day columns of a monthly timesheet. Empty means unset.
type DayFields struct {
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
	Entry   string `json:"entry"`
	Exit    string `json:"exit"`
}

// HasManualTimes reports whether HR entered an entry or exit time
func (d DayFields) HasManualTimes() bool {
	return strings.TrimSpace(d.Entry) != "" || strings.TrimSpace(d.Exit) != ""
}

// HasManualCode reports whether HR entered a status code
func (d DayFields) HasManualCode() bool {
	return strings.TrimSpace(d.Code) != ""
}

// DayPatch selects which day columns to write. Nil fields are left untouched.
type DayPatch struct {
	Day     int
	Code    *string
	Reason  *string
	Comment *string
	Entry   *string
	Exit    *string
}

// MonthlyTimesheet is one employee's month. Days[0] is the 1st.
type MonthlyTimesheet struct {
	ID                  int64
	EmployeeID          int64
	MonthStart          time.Time
	Days                [DaysPerRow]DayFields
	Comment             string
	MissingMinutesTotal int
}

// Day returns the fields of day d (1-based). Out of range days are empty.
func (m *MonthlyTimesheet) Day(d int) DayFields {
	if m == nil || d < 1 || d > DaysPerRow {
		return DayFields{}
	}
	return m.Days[d-1]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HolidaySet holds precomputed holiday dates as YYYY-MM-DD
type HolidaySet map[string]bool

// IsHoliday reports whether the ISO date is a holiday
func (h HolidaySet) IsHoliday(isoDate string) bool {
	return h[isoDate]
}
