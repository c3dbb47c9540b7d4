package service

import (
	"context"
	"sort"
	"time"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/pkg/logger"
)

// fetch runs one collaborator read. A failure is logged and returned as an
// unavailable source so callers can carry on with the zero value.
func fetch[T any](ctx context.Context, log *logger.Logger, source string, employeeID int64, read func(context.Context) (T, error)) domain.Sourced[T] {
	v, err := read(ctx)
	if err != nil {
		log.Warn().
			Err(err).
			Str("source", source).
			Int64("employee_id", employeeID).
			Msg("source unavailable, continuing without it")
		return domain.Unavailable[T](err)
	}
	return domain.Available(v)
}

// clock captures "now" once per request
type clock struct {
	today     string
	isDayOver bool
}

func (s *AttendanceService) clock() clock {
	now := s.now()
	return clock{today: s.tz.ISODate(now), isDayOver: s.tz.IsDayOver(now)}
}

// closed reports whether the day is final for sync purposes
func (c clock) closed(iso string) bool {
	return iso < c.today || (iso == c.today && c.isDayOver)
}

// employeeDays is everything prefetched for one employee over a date range.
// degraded is set when any of its sources fell back to empty.
type employeeDays struct {
	employee *domain.Employee
	schedule domain.Schedule
	months   map[string]*domain.MonthlyTimesheet
	punches  map[string][]time.Time
	leave    *domain.LeaveIndex
	holidays domain.HolidaySet
	degraded bool
}

func (s *AttendanceService) newEmployeeDays(emp *domain.Employee, months map[string]*domain.MonthlyTimesheet, punches []time.Time, leave *domain.LeaveIndex, holidays domain.HolidaySet) *employeeDays {
	return &employeeDays{
		employee: emp,
		schedule: emp.Schedule(),
		months:   months,
		punches:  s.punchesByDay(punches),
		leave:    leave,
		holidays: holidays,
	}
}

// punchesByDay buckets punches by local ISO date, each bucket sorted
func (s *AttendanceService) punchesByDay(punches []time.Time) map[string][]time.Time {
	out := make(map[string][]time.Time)
	for _, p := range sortedPunches(append([]time.Time(nil), punches...)) {
		iso := s.tz.ISODate(p)
		out[iso] = append(out[iso], p)
	}
	return out
}

func (e *employeeDays) manual(tz *domain.Normalizer, day time.Time) domain.DayFields {
	p := tz.LocalParts(day)
	row := e.months[tz.MonthStart(p.Year, p.Month).Format("2006-01-02")]
	return row.Day(p.Day)
}

func (e *employeeDays) row(tz *domain.Normalizer, year int, month time.Month) *domain.MonthlyTimesheet {
	return e.months[tz.MonthStart(year, month).Format("2006-01-02")]
}

// evaluated is one evaluated day plus the raw device punches that fell on it
type evaluated struct {
	result   domain.DayResult
	punches  []time.Time
	stored   domain.DayFields
	computed domain.DayResult
}

func (s *AttendanceService) evaluateDay(c clock, ed *employeeDays, day time.Time) evaluated {
	iso := s.tz.ISODate(day)
	manual := ed.manual(s.tz, day)
	onDay := ed.punches[iso]
	bounds := domain.ResolveBounds(s.tz, day, manual, onDay)

	in := domain.DayInput{
		Date:      day,
		Bounds:    bounds,
		LeaveCode: ed.leave.CodeFor(iso),
		Manual:    manual,
		Schedule:  ed.schedule,
		IsHoliday: ed.holidays.IsHoliday(iso),
		IsToday:   iso == c.today,
		IsDayOver: c.isDayOver,
		IsFuture:  iso > c.today,
	}
	result := s.engine.Evaluate(in)

	computed := result
	if manual.HasManualCode() {
		in.Manual.Code, in.Manual.Reason = "", ""
		computed = s.engine.Evaluate(in)
	}

	return evaluated{
		result:   result,
		punches:  onDay,
		stored:   manual,
		computed: computed,
	}
}

// days lists local midnights from..to inclusive
func (s *AttendanceService) days(from, to time.Time) []time.Time {
	out := make([]time.Time, 0, 31)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// monthStarts lists the distinct months touched by from..to
func (s *AttendanceService) monthStarts(from, to time.Time) []time.Time {
	out := make([]time.Time, 0, 2)
	seen := make(map[string]bool)
	for _, d := range s.days(from, to) {
		p := s.tz.LocalParts(d)
		m := s.tz.MonthStart(p.Year, p.Month)
		if key := m.Format("2006-01-02"); !seen[key] {
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// punchWindow widens [from, to] by a day each side so punches near local
// midnight are attributed after conversion.
func (s *AttendanceService) punchWindow(from, to time.Time) (time.Time, time.Time) {
	return from.AddDate(0, 0, -1), to.AddDate(0, 0, 2)
}

// loadEmployeeDays prefetches one employee's month rows, punches and leave.
// Collaborator failures degrade to "no data" and mark the result degraded.
func (s *AttendanceService) loadEmployeeDays(ctx context.Context, emp *domain.Employee, clockCode string, from, to time.Time, catalog domain.LeaveCatalog, holidays domain.HolidaySet) *employeeDays {
	months := fetch(ctx, s.logger, "monthly_timesheets", emp.ID, func(ctx context.Context) (map[string]*domain.MonthlyTimesheet, error) {
		return s.stores.Timesheets.FindMonthRows(ctx, emp.ID, s.monthStarts(from, to))
	})

	pFrom, pTo := s.punchWindow(from, to)
	punches := fetch(ctx, s.logger, "clock_punches", emp.ID, func(ctx context.Context) ([]time.Time, error) {
		return s.stores.Punches.QueryPunches(ctx, clockCode, pFrom, pTo)
	})

	leave := fetch(ctx, s.logger, "leaves", emp.ID, func(ctx context.Context) ([]domain.LeaveInterval, error) {
		return s.stores.Leaves.QueryApproved(ctx, emp.ID, s.tz.ISODate(from), s.tz.ISODate(to))
	})

	ed := s.newEmployeeDays(emp, months.OrZero(), punches.OrZero(), domain.NewLeaveIndex(leave.OrZero(), catalog), holidays)
	ed.degraded = !months.OK() || !punches.OK() || !leave.OK()
	return ed
}

// sharedSources loads the once-per-request catalog and holiday set
func (s *AttendanceService) sharedSources(ctx context.Context, from, to time.Time) (domain.LeaveCatalog, domain.HolidaySet, bool) {
	catalog := fetch(ctx, s.logger, "leave_codes", 0, s.stores.Leaves.Catalog)
	holidays := fetch(ctx, s.logger, "holidays", 0, func(ctx context.Context) (domain.HolidaySet, error) {
		return s.stores.Holidays.Between(ctx, s.tz.ISODate(from), s.tz.ISODate(to))
	})
	return catalog.OrZero(), holidays.OrZero(), catalog.OK() && holidays.OK()
}

func sortedPunches(p []time.Time) []time.Time {
	sort.Slice(p, func(i, j int) bool { return p[i].Before(p[j]) })
	return p
}
