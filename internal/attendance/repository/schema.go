package repository

import (
	"fmt"
	"strings"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
)

// dayColumnKinds are the per-day column prefixes of monthly_timesheets, in order
var dayColumnKinds = []string{"code", "reason", "comment", "entry", "exit"}

func dayColumn(kind string, day int) string {
	return fmt.Sprintf("%s_%02d", kind, day)
}

// TimesheetColumns lists the monthly_timesheets columns in the order FindMonthRow selects them.
func TimesheetColumns() []string {
	cols := []string{"id", "employee_id", "month_start", "comment", "missing_minutes_total"}
	for d := 1; d <= domain.DaysPerRow; d++ {
		for _, kind := range dayColumnKinds {
			cols = append(cols, dayColumn(kind, d))
		}
	}
	return cols
}

// Schema returns the DDL of the tables this service reads and writes.
// Employees, punches, leave and holidays are owned elsewhere; their shape
// here is what the queries rely on.
func Schema() string {
	var b strings.Builder

	b.WriteString(`
CREATE TABLE IF NOT EXISTS employees (
	id BIGSERIAL PRIMARY KEY,
	full_name TEXT NOT NULL,
	attached_number TEXT,
	schedule_start TEXT,
	schedule_end TEXT,
	point_of_sale TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS clock_punches (
	id BIGSERIAL PRIMARY KEY,
	employee_code TEXT NOT NULL,
	punched_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS clock_punches_code_time_idx ON clock_punches (employee_code, punched_at);

CREATE TABLE IF NOT EXISTS leave_codes (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS leaves (
	id BIGSERIAL PRIMARY KEY,
	employee_id BIGINT NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	leave_code_id BIGINT NOT NULL,
	approval_state TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holidays (
	holiday_date DATE PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS monthly_timesheets (
	id BIGSERIAL PRIMARY KEY,
	employee_id BIGINT NOT NULL,
	month_start DATE NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	missing_minutes_total INTEGER NOT NULL DEFAULT 0,
`)
	for d := 1; d <= domain.DaysPerRow; d++ {
		for _, kind := range dayColumnKinds {
			fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT '',\n", dayColumn(kind, d))
		}
	}
	b.WriteString(`	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT monthly_timesheets_employee_month_key UNIQUE (employee_id, month_start),
	CONSTRAINT monthly_timesheets_missing_minutes_nonneg CHECK (missing_minutes_total >= 0),
	CONSTRAINT monthly_timesheets_month_start_first_day CHECK (EXTRACT(DAY FROM month_start) = 1)
);
`)
	return b.String()
}
