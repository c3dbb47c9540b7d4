package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/pkg/database"
	"github.com/orfevre/attendance-backend/pkg/errors"
)

// TimesheetRepository persists monthly_timesheets, one row per employee and
// month. It is the only place that knows the flat day_NN column layout.
type TimesheetRepository struct {
	db *database.DB
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *database.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

func monthKey(monthStart time.Time) string {
	return monthStart.Format("2006-01-02")
}

func selectTimesheet() string {
	cols := TimesheetColumns()
	cols[2] = "to_char(month_start, 'YYYY-MM-DD') AS month_start"
	return `SELECT ` + strings.Join(cols, ", ") + ` FROM monthly_timesheets`
}

// FindMonthRow returns the row for the month, or nil when none exists yet.
func (r *TimesheetRepository) FindMonthRow(ctx context.Context, employeeID int64, monthStart time.Time) (*domain.MonthlyTimesheet, error) {
	query := selectTimesheet() + ` WHERE employee_id = $1 AND month_start = $2::date`

	rows, err := r.db.QueryxContext(ctx, query, employeeID, monthKey(monthStart))
	if err != nil {
		return nil, fmt.Errorf("find timesheet: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find timesheet: %w", err)
		}
		return nil, nil
	}
	return scanTimesheet(rows, monthStart.Location())
}

// FindMonthRows returns the employee's rows for several months keyed by
// YYYY-MM-DD month start. Missing months are absent from the map.
func (r *TimesheetRepository) FindMonthRows(ctx context.Context, employeeID int64, monthStarts []time.Time) (map[string]*domain.MonthlyTimesheet, error) {
	out := make(map[string]*domain.MonthlyTimesheet, len(monthStarts))
	if len(monthStarts) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(monthStarts))
	for _, m := range monthStarts {
		keys = append(keys, monthKey(m))
	}

	query := selectTimesheet() + ` WHERE employee_id = $1 AND month_start = ANY($2::date[]) ORDER BY month_start`
	rows, err := r.db.QueryxContext(ctx, query, employeeID, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find timesheets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ts, err := scanTimesheet(rows, monthStarts[0].Location())
		if err != nil {
			return nil, err
		}
		out[monthKey(ts.MonthStart)] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find timesheets: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTimesheet(row rowScanner, loc *time.Location) (*domain.MonthlyTimesheet, error) {
	var (
		ts         domain.MonthlyTimesheet
		monthStart string
		comment    sql.NullString
		day        [domain.DaysPerRow][5]sql.NullString
	)

	dest := []interface{}{&ts.ID, &ts.EmployeeID, &monthStart, &comment, &ts.MissingMinutesTotal}
	for d := 0; d < domain.DaysPerRow; d++ {
		for k := range dayColumnKinds {
			dest = append(dest, &day[d][k])
		}
	}

	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan timesheet: %w", err)
	}

	ms, err := time.ParseInLocation("2006-01-02", monthStart, loc)
	if err != nil {
		return nil, fmt.Errorf("scan timesheet month_start %q: %w", monthStart, err)
	}
	ts.MonthStart = ms
	ts.Comment = comment.String

	for d := 0; d < domain.DaysPerRow; d++ {
		ts.Days[d] = domain.DayFields{
			Code:    day[d][0].String,
			Reason:  day[d][1].String,
			Comment: day[d][2].String,
			Entry:   day[d][3].String,
			Exit:    day[d][4].String,
		}
	}
	return &ts, nil
}

// UpsertDayFields writes one day's patched columns, creating the month row when
// absent. Other days and unpatched columns are left as they are.
func (r *TimesheetRepository) UpsertDayFields(ctx context.Context, employeeID int64, monthStart time.Time, patch domain.DayPatch) (int64, error) {
	return r.UpsertDays(ctx, employeeID, monthStart, []domain.DayPatch{patch})
}

// UpsertDays writes several days in one statement. Creation and update are a
// single INSERT .. ON CONFLICT on (employee_id, month_start), so concurrent
// writers to the same month never produce two rows and only touch their own columns.
func (r *TimesheetRepository) UpsertDays(ctx context.Context, employeeID int64, monthStart time.Time, patches []domain.DayPatch) (int64, error) {
	cols, vals, err := patchColumns(patches)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, errors.BadRequest("nothing to write")
	}

	return r.upsert(ctx, "upsert timesheet days", employeeID, monthStart, cols, vals)
}

// SetMissingMinutesTotal stores the month-level missing minutes, creating the row when absent.
func (r *TimesheetRepository) SetMissingMinutesTotal(ctx context.Context, employeeID int64, monthStart time.Time, minutes int) (int64, error) {
	return r.upsert(ctx, "save monthly missing minutes", employeeID, monthStart,
		[]string{"missing_minutes_total"}, []interface{}{minutes})
}

func (r *TimesheetRepository) upsert(ctx context.Context, op string, employeeID int64, monthStart time.Time, cols []string, vals []interface{}) (int64, error) {
	placeholders := make([]string, 0, len(cols))
	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`
		INSERT INTO monthly_timesheets (employee_id, month_start, %s)
		VALUES ($1, $2::date, %s)
		ON CONFLICT (employee_id, month_start) DO UPDATE SET %s
		RETURNING id`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "))

	args := append([]interface{}{employeeID, monthKey(monthStart)}, vals...)

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, database.AsAppError(op, err)
	}
	return id, nil
}

// patchColumns flattens day patches into column/value pairs. A later patch
// for the same column wins.
func patchColumns(patches []domain.DayPatch) ([]string, []interface{}, error) {
	var (
		cols []string
		vals []interface{}
		pos  = make(map[string]int)
	)

	set := func(col string, v *string) {
		if v == nil {
			return
		}
		if i, ok := pos[col]; ok {
			vals[i] = *v
			return
		}
		pos[col] = len(cols)
		cols = append(cols, col)
		vals = append(vals, *v)
	}

	for _, p := range patches {
		if p.Day < 1 || p.Day > domain.DaysPerRow {
			return nil, nil, errors.InvalidField("day", fmt.Sprintf("must be within 1..%d", domain.DaysPerRow))
		}
		set(dayColumn("code", p.Day), p.Code)
		set(dayColumn("reason", p.Day), p.Reason)
		set(dayColumn("comment", p.Day), p.Comment)
		set(dayColumn("entry", p.Day), p.Entry)
		set(dayColumn("exit", p.Day), p.Exit)
	}
	return cols, vals, nil
}
