package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/internal/attendance/events"
	"github.com/orfevre/attendance-backend/internal/attendance/repository"
	"github.com/orfevre/attendance-backend/internal/attendance/service"
	"github.com/orfevre/attendance-backend/pkg/errors"
	"github.com/orfevre/attendance-backend/pkg/logger"
	"github.com/orfevre/attendance-backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type fakeEmployees struct {
	byID map[int64]*domain.Employee
	err  error
}

func (f *fakeEmployees) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	emp, ok := f.byID[id]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	return emp, nil
}

func (f *fakeEmployees) List(ctx context.Context, filter repository.EmployeeFilter) ([]*domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Employee, 0, len(f.byID))
	for _, emp := range f.byID {
		if filter.EmployeeID != 0 && emp.ID != filter.EmployeeID {
			continue
		}
		if filter.PointOfSale != "" && emp.PS() != filter.PointOfSale {
			continue
		}
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePunches struct {
	byCode map[string][]time.Time
	err    error
}

func (f *fakePunches) QueryPunches(ctx context.Context, code string, from, to time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]time.Time, 0)
	for _, p := range f.byCode[code] {
		if !p.Before(from) && p.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePunches) QueryPunchesForEmployees(ctx context.Context, codes []string, from, to time.Time) (map[string][]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]time.Time, len(codes))
	for _, code := range codes {
		ps, _ := f.QueryPunches(ctx, code, from, to)
		if len(ps) > 0 {
			out[code] = ps
		}
	}
	return out, nil
}

type fakeLeaves struct {
	byEmployee map[int64][]domain.LeaveInterval
	catalog    domain.LeaveCatalog
	err        error
}

func (f *fakeLeaves) QueryApproved(ctx context.Context, employeeID int64, from, to string) ([]domain.LeaveInterval, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmployee[employeeID], nil
}

func (f *fakeLeaves) QueryApprovedForEmployees(ctx context.Context, ids []int64, from, to string) (map[int64][]domain.LeaveInterval, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64][]domain.LeaveInterval)
	for _, id := range ids {
		if ivs := f.byEmployee[id]; len(ivs) > 0 {
			out[id] = ivs
		}
	}
	return out, nil
}

func (f *fakeLeaves) Catalog(ctx context.Context) (domain.LeaveCatalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

type fakeHolidays struct {
	set domain.HolidaySet
	err error
}

func (f *fakeHolidays) Between(ctx context.Context, from, to string) (domain.HolidaySet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

// fakeTimesheets merges patches per column the way the upsert does
type fakeTimesheets struct {
	mu      sync.Mutex
	rows    map[string]*domain.MonthlyTimesheet
	nextID  int64
	readErr error
	writes  [][]domain.DayPatch
}

func newFakeTimesheets() *fakeTimesheets {
	return &fakeTimesheets{rows: make(map[string]*domain.MonthlyTimesheet), nextID: 1}
}

func rowKey(employeeID int64, monthStart time.Time) string {
	return fmt.Sprintf("%d/%s", employeeID, monthStart.Format("2006-01-02"))
}

func (f *fakeTimesheets) row(employeeID int64, monthStart time.Time) *domain.MonthlyTimesheet {
	key := rowKey(employeeID, monthStart)
	r, ok := f.rows[key]
	if !ok {
		r = &domain.MonthlyTimesheet{ID: f.nextID, EmployeeID: employeeID, MonthStart: monthStart}
		f.nextID++
		f.rows[key] = r
	}
	return r
}

func (f *fakeTimesheets) FindMonthRow(ctx context.Context, employeeID int64, monthStart time.Time) (*domain.MonthlyTimesheet, error) {
	rows, err := f.FindMonthRows(ctx, employeeID, []time.Time{monthStart})
	if err != nil {
		return nil, err
	}
	return rows[monthStart.Format("2006-01-02")], nil
}

func (f *fakeTimesheets) FindMonthRows(ctx context.Context, employeeID int64, monthStarts []time.Time) (map[string]*domain.MonthlyTimesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make(map[string]*domain.MonthlyTimesheet)
	for _, m := range monthStarts {
		if r, ok := f.rows[rowKey(employeeID, m)]; ok {
			cp := *r
			out[m.Format("2006-01-02")] = &cp
		}
	}
	return out, nil
}

func (f *fakeTimesheets) UpsertDayFields(ctx context.Context, employeeID int64, monthStart time.Time, patch domain.DayPatch) (int64, error) {
	return f.UpsertDays(ctx, employeeID, monthStart, []domain.DayPatch{patch})
}

func (f *fakeTimesheets) UpsertDays(ctx context.Context, employeeID int64, monthStart time.Time, patches []domain.DayPatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(employeeID, monthStart)
	for _, p := range patches {
		d := &r.Days[p.Day-1]
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&d.Code, p.Code)
		set(&d.Reason, p.Reason)
		set(&d.Comment, p.Comment)
		set(&d.Entry, p.Entry)
		set(&d.Exit, p.Exit)
	}
	f.writes = append(f.writes, patches)
	return r.ID, nil
}

func (f *fakeTimesheets) SetMissingMinutesTotal(ctx context.Context, employeeID int64, monthStart time.Time, minutes int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(employeeID, monthStart)
	r.MissingMinutesTotal = minutes
	return r.ID, nil
}

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	tz         *domain.Normalizer
	employees  *fakeEmployees
	punches    *fakePunches
	leaves     *fakeLeaves
	holidays   *fakeHolidays
	timesheets *fakeTimesheets
	publisher  *testutil.MockPublisher
}

func str(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tz, err := domain.NewNormalizer("Africa/Algiers", 23)
	require.NoError(t, err)

	return &fixture{
		tz: tz,
		employees: &fakeEmployees{byID: map[int64]*domain.Employee{
			1: {ID: 1, FullName: "Amina Benali", AttachedNumber: str("100"), ScheduleStart: str("09:00"), ScheduleEnd: str("17:00"), PointOfSale: str("ALGER-CENTRE"), Active: true},
			2: {ID: 2, FullName: "Karim Haddad", AttachedNumber: str("200"), ScheduleStart: str("09:00"), ScheduleEnd: str("17:00"), PointOfSale: str("ORAN"), Active: true},
			3: {ID: 3, FullName: "Sofia Mansouri", ScheduleStart: str("09:00"), ScheduleEnd: str("17:00"), PointOfSale: str("ALGER-CENTRE"), Active: true},
		}},
		punches:    &fakePunches{byCode: map[string][]time.Time{}},
		leaves:     &fakeLeaves{byEmployee: map[int64][]domain.LeaveInterval{}, catalog: domain.LeaveCatalog{7: "CA"}},
		holidays:   &fakeHolidays{set: domain.HolidaySet{}},
		timesheets: newFakeTimesheets(),
		publisher:  testutil.NewMockPublisher(),
	}
}

func (f *fixture) at(t *testing.T, iso, clock string) time.Time {
	t.Helper()
	ts, ok := f.tz.BuildInstant(iso, clock)
	require.True(t, ok)
	return ts
}

func (f *fixture) punch(t *testing.T, code, iso string, clocks ...string) {
	t.Helper()
	for _, c := range clocks {
		f.punches.byCode[code] = append(f.punches.byCode[code], f.at(t, iso, c))
	}
}

// service evaluates with "now" at 2024-03-20 10:00 local
func (f *fixture) service(t *testing.T, opts ...service.Option) *service.AttendanceService {
	t.Helper()
	now := f.at(t, "2024-03-20", "10:00")
	engine := domain.NewEngine(f.tz, 30, time.Friday)
	opts = append([]service.Option{service.WithClock(func() time.Time { return now })}, opts...)

	return service.NewAttendanceService(
		service.Stores{
			Employees:  f.employees,
			Punches:    f.punches,
			Leaves:     f.leaves,
			Holidays:   f.holidays,
			Timesheets: f.timesheets,
		},
		engine,
		events.NewPublisherWith(f.publisher, logger.Nop()),
		logger.Nop(),
		opts...,
	)
}
