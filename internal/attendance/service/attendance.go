package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/internal/attendance/repository"
	"github.com/orfevre/attendance-backend/pkg/errors"
	"github.com/orfevre/attendance-backend/pkg/messaging"
	"golang.org/x/sync/errgroup"
)

const maxRangeDays = 366

// PreviewDay evaluates one employee-day without writing anything
func (s *AttendanceService) PreviewDay(ctx context.Context, employeeID int64, date string) (*DailyPreview, error) {
	day, err := s.parseDate("date", date)
	if err != nil {
		return nil, err
	}

	emp, err := s.stores.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	catalog, holidays, sharedOK := s.sharedSources(ctx, day, day)
	ed := s.loadEmployeeDays(ctx, emp, emp.ClockCode(), day, day, catalog, holidays)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := s.evaluateDay(s.clock(), ed, day).result
	return &DailyPreview{
		EmployeeID: emp.ID,
		Date:       res.Date,
		StatusCode: res.StatusCode,
		ResultFlag: res.ResultFlag,
		EntryTime:  res.EntryTime,
		ExitTime:   res.ExitTime,
		PS:         emp.PS(),
		Source:     res.Source,
		Degraded:   ed.degraded || !sharedOK,
	}, nil
}

// RangeReport evaluates every day of [From, To] for the selected employees.
// Employees are evaluated concurrently; the output keeps employee id order.
func (s *AttendanceService) RangeReport(ctx context.Context, q RangeQuery) (*RangeReport, error) {
	from, err := s.parseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := s.parseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.InvalidField("to", "must not be before from")
	}
	if n := len(s.days(from, to)); n > maxRangeDays {
		return nil, errors.InvalidField("to", fmt.Sprintf("range must not exceed %d days", maxRangeDays))
	}

	employees, err := s.stores.Employees.List(ctx, repository.EmployeeFilter{
		EmployeeID:  q.EmployeeID,
		PointOfSale: strings.TrimSpace(q.PointOfSale),
	})
	if err != nil {
		return nil, err
	}
	if q.EmployeeID != 0 && len(employees) == 0 {
		return nil, errors.NotFound("employee")
	}

	catalog, holidays, sharedOK := s.sharedSources(ctx, from, to)

	codes := make([]string, 0, len(employees))
	ids := make([]int64, 0, len(employees))
	for _, emp := range employees {
		codes = append(codes, emp.ClockCode())
		ids = append(ids, emp.ID)
	}

	pFrom, pTo := s.punchWindow(from, to)
	punches := fetch(ctx, s.logger, "clock_punches", 0, func(ctx context.Context) (map[string][]time.Time, error) {
		return s.stores.Punches.QueryPunchesForEmployees(ctx, codes, pFrom, pTo)
	})
	leaves := fetch(ctx, s.logger, "leaves", 0, func(ctx context.Context) (map[int64][]domain.LeaveInterval, error) {
		return s.stores.Leaves.QueryApprovedForEmployees(ctx, ids, s.tz.ISODate(from), s.tz.ISODate(to))
	})

	report := &RangeReport{
		From:      s.tz.ISODate(from),
		To:        s.tz.ISODate(to),
		Employees: make([]EmployeeRange, len(employees)),
		Degraded:  !sharedOK || !punches.OK() || !leaves.OK(),
	}

	c := s.clock()
	days := s.days(from, to)
	monthStarts := s.monthStarts(from, to)
	rowsMissing := make([]bool, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			months := fetch(gctx, s.logger, "monthly_timesheets", emp.ID, func(ctx context.Context) (map[string]*domain.MonthlyTimesheet, error) {
				return s.stores.Timesheets.FindMonthRows(ctx, emp.ID, monthStarts)
			})

			rowsMissing[i] = !months.OK()

			ed := s.newEmployeeDays(emp, months.OrZero(), punches.OrZero()[emp.ClockCode()],
				domain.NewLeaveIndex(leaves.OrZero()[emp.ID], catalog), holidays)

			out := EmployeeRange{
				EmployeeID: emp.ID,
				FullName:   emp.FullName,
				PS:         emp.PS(),
				Days:       make([]RangeDay, 0, len(days)),
			}
			for _, day := range days {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := s.evaluateDay(c, ed, day).result
				out.Days = append(out.Days, RangeDay{
					Date:        res.Date,
					StatusCode:  res.StatusCode,
					ResultFlag:  res.ResultFlag,
					EntryTime:   res.EntryTime,
					ExitTime:    res.ExitTime,
					Comment:     res.Comment,
					WorkedMin:   res.WorkedMinutes,
					ExpectedMin: res.ExpectedMinutes,
					DeltaMin:    res.DeltaMinutes,
				})
				if res.DeltaMinutes < 0 {
					out.MonthMissingMinutes += -res.DeltaMinutes
				}
			}
			report.Employees[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, missing := range rowsMissing {
		report.Degraded = report.Degraded || missing
	}

	s.logger.Info().
		Str("from", report.From).
		Str("to", report.To).
		Int("employees", len(employees)).
		Bool("degraded", report.Degraded).
		Msg("range report computed")

	return report, nil
}

// MonthGrid evaluates a full month of one employee for the editing grid.
// empCode overrides the device code used to look up punches.
func (s *AttendanceService) MonthGrid(ctx context.Context, employeeID int64, year, month int, empCode string) (*MonthGrid, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	emp, err := s.stores.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	clockCode := strings.TrimSpace(empCode)
	if clockCode == "" {
		clockCode = emp.ClockCode()
	}

	m := time.Month(month)
	from := s.tz.MonthStart(year, m)
	to := s.tz.Date(year, m, domain.DaysInMonth(year, m))

	catalog, holidays, sharedOK := s.sharedSources(ctx, from, to)
	ed := s.loadEmployeeDays(ctx, emp, clockCode, from, to, catalog, holidays)

	grid := &MonthGrid{
		Degraded:   ed.degraded || !sharedOK,
		EmployeeID: emp.ID,
		FullName:   emp.FullName,
		ClockCode:  clockCode,
		PS:         emp.PS(),
		Year:       year,
		Month:      month,
		Days:       make([]GridDay, 0, 31),
	}
	if row := ed.row(s.tz, year, m); row != nil {
		id := row.ID
		grid.TimesheetID = &id
		grid.Comment = row.Comment
		grid.StoredMissingMinutes = row.MissingMinutesTotal
	}

	c := s.clock()
	for _, day := range s.days(from, to) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev := s.evaluateDay(c, ed, day)

		punches := make([]string, 0, len(ev.punches))
		for _, p := range ev.punches {
			punches = append(punches, s.tz.ClockTime(p))
		}

		grid.Days = append(grid.Days, GridDay{
			DayResult:    ev.result,
			Day:          s.tz.LocalParts(day).Day,
			Punches:      punches,
			StoredCode:   ev.stored.Code,
			ComputedCode: ev.computed.StatusCode,
		})
		grid.ComputedMissingMinutes += ev.result.MissingMinutes
	}

	return grid, nil
}

// SyncMonth recomputes every closed day of the month and writes code, reason
// and entry/exit into the month row. Stored codes count as manual, so running
// it again without new data writes the same values. When a source is down the
// days it would decide are skipped and the result is marked degraded.
func (s *AttendanceService) SyncMonth(ctx context.Context, employeeID int64, year, month *int) (*SyncResult, error) {
	c := s.clock()
	now := s.tz.LocalParts(s.now())
	y, mo := now.Year, int(now.Month)
	if year != nil {
		y = *year
	}
	if month != nil {
		mo = *month
	}
	if err := validateMonth(y, mo); err != nil {
		return nil, err
	}

	emp, err := s.stores.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	m := time.Month(mo)
	from := s.tz.MonthStart(y, m)
	to := s.tz.Date(y, m, domain.DaysInMonth(y, m))

	ed, sources, err := s.loadForSync(ctx, emp, from, to)
	if err != nil {
		return nil, err
	}

	patches := make([]domain.DayPatch, 0, 31)
	closedDays, skipped := 0, 0
	for _, day := range s.days(from, to) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iso := s.tz.ISODate(day)
		if !c.closed(iso) {
			continue
		}
		closedDays++

		ev := s.evaluateDay(c, ed, day)
		if !sources.settles(ev, ed.leave.CodeFor(iso)) {
			skipped++
			continue
		}
		res := ev.result

		code, reason := res.StatusCode, res.ResultFlag
		patch := domain.DayPatch{Day: s.tz.LocalParts(day).Day, Code: &code, Reason: &reason}
		if res.EntryTime != nil {
			entry := *res.EntryTime
			patch.Entry = &entry
		}
		if res.ExitTime != nil {
			exit := *res.ExitTime
			patch.Exit = &exit
		}
		patches = append(patches, patch)
	}

	if closedDays == 0 {
		return nil, errors.BadRequest("month has no closed days to sync")
	}

	result := &SyncResult{
		DaysWritten: len(patches),
		DaysSkipped: skipped,
		Degraded:    ed.degraded,
	}
	if row := ed.row(s.tz, y, m); row != nil {
		result.TimesheetID = row.ID
	}

	if len(patches) == 0 {
		s.logger.WithEmployee(emp.ID).Warn().
			Str("month_start", s.tz.ISODate(from)).
			Int("days_skipped", skipped).
			Msg("month sync wrote nothing, sources unavailable")
		result.Message = fmt.Sprintf("synced 0 days of %04d-%02d, %d skipped", y, mo, skipped)
		return result, nil
	}

	id, err := s.stores.Timesheets.UpsertDays(ctx, emp.ID, from, patches)
	if err != nil {
		return nil, err
	}
	result.TimesheetID = id

	s.logger.WithEmployee(emp.ID).Info().
		Str("month_start", s.tz.ISODate(from)).
		Int("days_written", len(patches)).
		Int("days_skipped", skipped).
		Bool("degraded", result.Degraded).
		Msg("month synced")

	s.publisher.PublishMonthSynced(ctx, messaging.MonthSyncedEvent{
		EmployeeID:  emp.ID,
		TimesheetID: id,
		MonthStart:  s.tz.ISODate(from),
		DaysWritten: len(patches),
	})

	result.Message = fmt.Sprintf("synced %d days of %04d-%02d", len(patches), y, mo)
	if skipped > 0 {
		result.Message += fmt.Sprintf(", %d skipped", skipped)
	}
	return result, nil
}

// syncSources records which read collaborators answered for a sync
type syncSources struct {
	punches  bool
	leave    bool
	holidays bool
}

func (o syncSources) all() bool {
	return o.punches && o.leave && o.holidays
}

// settles reports whether a day's result is independent of every source that
// failed. Days that are not would persist a guess, so sync leaves them alone.
func (o syncSources) settles(ev evaluated, leaveCode string) bool {
	if ev.stored.HasManualCode() {
		return true
	}
	if !o.leave {
		return false
	}
	if leaveCode != "" {
		return true
	}
	if !o.punches && ev.result.Source != domain.SourceManual {
		return false
	}
	if !o.holidays && ev.result.EntryTime != nil {
		return false
	}
	return true
}

// loadForSync loads like loadEmployeeDays, except the month rows being
// written must be readable or HR edits could be overwritten.
func (s *AttendanceService) loadForSync(ctx context.Context, emp *domain.Employee, from, to time.Time) (*employeeDays, syncSources, error) {
	months, err := s.stores.Timesheets.FindMonthRows(ctx, emp.ID, s.monthStarts(from, to))
	if err != nil {
		return nil, syncSources{}, errors.SourceUnavailable("monthly timesheets", err)
	}

	catalog := fetch(ctx, s.logger, "leave_codes", emp.ID, s.stores.Leaves.Catalog)
	holidays := fetch(ctx, s.logger, "holidays", emp.ID, func(ctx context.Context) (domain.HolidaySet, error) {
		return s.stores.Holidays.Between(ctx, s.tz.ISODate(from), s.tz.ISODate(to))
	})
	pFrom, pTo := s.punchWindow(from, to)
	punches := fetch(ctx, s.logger, "clock_punches", emp.ID, func(ctx context.Context) ([]time.Time, error) {
		return s.stores.Punches.QueryPunches(ctx, emp.ClockCode(), pFrom, pTo)
	})
	leave := fetch(ctx, s.logger, "leaves", emp.ID, func(ctx context.Context) ([]domain.LeaveInterval, error) {
		return s.stores.Leaves.QueryApproved(ctx, emp.ID, s.tz.ISODate(from), s.tz.ISODate(to))
	})

	ed := s.newEmployeeDays(emp, months, punches.OrZero(), domain.NewLeaveIndex(leave.OrZero(), catalog.OrZero()), holidays.OrZero())
	sources := syncSources{
		punches:  punches.OK(),
		leave:    leave.OK() && catalog.OK(),
		holidays: holidays.OK(),
	}
	ed.degraded = !sources.all()
	return ed, sources, nil
}

// SaveMonthlyMissing overrides the month-level missing minutes total
func (s *AttendanceService) SaveMonthlyMissing(ctx context.Context, employeeID int64, year, month, minutes int) (*WriteResult, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	if minutes < 0 {
		return nil, errors.InvalidField("missing_minutes", "must not be negative")
	}

	if _, err := s.stores.Employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	monthStart := s.tz.MonthStart(year, time.Month(month))
	id, err := s.stores.Timesheets.SetMissingMinutesTotal(ctx, employeeID, monthStart, minutes)
	if err != nil {
		return nil, err
	}

	s.logger.WithEmployee(employeeID).Info().
		Str("month_start", s.tz.ISODate(monthStart)).
		Int("missing_minutes", minutes).
		Msg("monthly missing minutes saved")

	s.publisher.PublishMonthMissingSaved(ctx, messaging.MonthMissingSavedEvent{
		EmployeeID:     employeeID,
		TimesheetID:    id,
		MonthStart:     s.tz.ISODate(monthStart),
		MissingMinutes: minutes,
	})

	return &WriteResult{TimesheetID: id, MonthStart: s.tz.ISODate(monthStart)}, nil
}

// ManualPunch writes one day's manual override fields
func (s *AttendanceService) ManualPunch(ctx context.Context, employeeID int64, in ManualPunchInput) (*WriteResult, error) {
	day, err := s.parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.StatusCode)
	if code == "" {
		return nil, errors.InvalidField("status_code", "this field is required")
	}

	patch := domain.DayPatch{Day: s.tz.LocalParts(day).Day, Code: &code, Reason: in.Reason, Comment: in.Comment}
	if patch.Entry, err = normalizeClock("entry", in.Entry); err != nil {
		return nil, err
	}
	if patch.Exit, err = normalizeClock("exit", in.Exit); err != nil {
		return nil, err
	}

	if _, err := s.stores.Employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	p := s.tz.LocalParts(day)
	monthStart := s.tz.MonthStart(p.Year, p.Month)
	id, err := s.stores.Timesheets.UpsertDayFields(ctx, employeeID, monthStart, patch)
	if err != nil {
		return nil, err
	}

	s.logger.WithEmployee(employeeID).Info().
		Str("date", s.tz.ISODate(day)).
		Str("status_code", code).
		Msg("manual day override written")

	s.publisher.PublishDayOverridden(ctx, messaging.DayOverriddenEvent{
		EmployeeID:  employeeID,
		TimesheetID: id,
		Date:        s.tz.ISODate(day),
		StatusCode:  code,
	})

	return &WriteResult{TimesheetID: id, MonthStart: s.tz.ISODate(monthStart)}, nil
}

func (s *AttendanceService) parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, errors.InvalidField(field, "this field is required")
	}
	d, err := s.tz.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.InvalidField(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return errors.InvalidField("month", "must be within 1..12")
	}
	if year < 1900 || year > 9999 {
		return errors.InvalidField("year", "must be a four digit year")
	}
	return nil
}

// normalizeClock validates HH:MM[:SS] and stores it as HH:MM:SS. An empty
// string clears the field.
func normalizeClock(field string, value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return &v, nil
	}
	if _, ok := domain.ParseClockMinutes(v); !ok {
		return nil, errors.InvalidField(field, "must be a time in HH:MM or HH:MM:SS format")
	}
	t, err := time.Parse("15:04:05", withSeconds(v))
	if err != nil {
		return nil, errors.InvalidField(field, "must be a valid wall-clock time")
	}
	out := t.Format("15:04:05")
	return &out, nil
}

func withSeconds(v string) string {
	if strings.Count(v, ":") == 1 {
		return v + ":00"
	}
	return v
}
