package service

import "github.com/orfevre/attendance-backend/internal/attendance/domain"

// DailyPreview is the evaluated status of one employee-day
type DailyPreview struct {
	EmployeeID int64              `json:"employeeId"`
	Date       string             `json:"date"`
	StatusCode string             `json:"j"`
	ResultFlag string             `json:"R"`
	EntryTime  *string            `json:"E"`
	ExitTime   *string            `json:"S"`
	PS         string             `json:"PS"`
	Source     domain.PunchSource `json:"source"`
	Degraded   bool               `json:"degraded"`
}

// RangeQuery selects the employees and days of a range report.
// With neither EmployeeID nor PointOfSale set, all active employees are reported.
type RangeQuery struct {
	From        string
	To          string
	PointOfSale string
	EmployeeID  int64
}

// RangeDay is one row of a range report
type RangeDay struct {
	Date        string  `json:"date"`
	StatusCode  string  `json:"j"`
	ResultFlag  string  `json:"R"`
	EntryTime   *string `json:"E"`
	ExitTime    *string `json:"S"`
	Comment     string  `json:"comment"`
	WorkedMin   *int    `json:"workedMin"`
	ExpectedMin *int    `json:"expectedMin"`
	DeltaMin    int     `json:"deltaMin"`
}

// EmployeeRange is one employee's part of a range report
type EmployeeRange struct {
	EmployeeID          int64      `json:"employeeId"`
	FullName            string     `json:"fullName"`
	PS                  string     `json:"PS"`
	Days                []RangeDay `json:"days"`
	MonthMissingMinutes int        `json:"monthMissingMinutes"`
}

// RangeReport is the result of a range query, in employee id order
type RangeReport struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Employees []EmployeeRange `json:"employees"`
	Degraded  bool            `json:"degraded"`
}

// GridDay is one day of the month grid
type GridDay struct {
	domain.DayResult
	Day          int      `json:"day"`
	Punches      []string `json:"punches"`
	StoredCode   string   `json:"storedCode"`
	ComputedCode string   `json:"computedCode"`
}

// MonthGrid is a full month of one employee, for the editing grid
type MonthGrid struct {
	EmployeeID             int64     `json:"employeeId"`
	FullName               string    `json:"fullName"`
	ClockCode              string    `json:"clockCode"`
	PS                     string    `json:"PS"`
	Year                   int       `json:"year"`
	Month                  int       `json:"month"`
	TimesheetID            *int64    `json:"timesheetId"`
	Comment                string    `json:"comment"`
	StoredMissingMinutes   int       `json:"storedMissingMinutes"`
	ComputedMissingMinutes int       `json:"computedMissingMinutes"`
	Days                   []GridDay `json:"days"`
	Degraded               bool      `json:"degraded"`
}

// SyncResult reports a materialized month
type SyncResult struct {
	Message     string `json:"message"`
	TimesheetID int64  `json:"id_tran"`
	DaysWritten int    `json:"days_written"`
	DaysSkipped int    `json:"days_skipped"`
	Degraded    bool   `json:"degraded"`
}

// ManualPunchInput is a single-day manual override. Nil optional fields are left untouched.
type ManualPunchInput struct {
	Date       string
	StatusCode string
	Reason     *string
	Comment    *string
	Entry      *string
	Exit       *string
}

// WriteResult identifies the row a write landed in
type WriteResult struct {
	TimesheetID int64  `json:"id_tran"`
	MonthStart  string `json:"month_start"`
}
