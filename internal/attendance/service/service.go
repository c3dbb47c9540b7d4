package service

import (
	"context"
	"time"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/internal/attendance/events"
	"github.com/orfevre/attendance-backend/internal/attendance/repository"
	"github.com/orfevre/attendance-backend/pkg/logger"
)

// EmployeeDirectory reads employees
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, filter repository.EmployeeFilter) ([]*domain.Employee, error)
}

// PunchStore reads clock device punches
type PunchStore interface {
	QueryPunches(ctx context.Context, employeeCode string, from, to time.Time) ([]time.Time, error)
	QueryPunchesForEmployees(ctx context.Context, codes []string, from, to time.Time) (map[string][]time.Time, error)
}

// LeaveStore reads approved leave and the leave code catalog
type LeaveStore interface {
	QueryApproved(ctx context.Context, employeeID int64, from, to string) ([]domain.LeaveInterval, error)
	QueryApprovedForEmployees(ctx context.Context, employeeIDs []int64, from, to string) (map[int64][]domain.LeaveInterval, error)
	Catalog(ctx context.Context) (domain.LeaveCatalog, error)
}

// HolidayCalendar reads precomputed holidays
type HolidayCalendar interface {
	Between(ctx context.Context, from, to string) (domain.HolidaySet, error)
}

// TimesheetStore reads and writes monthly timesheets
type TimesheetStore interface {
	FindMonthRow(ctx context.Context, employeeID int64, monthStart time.Time) (*domain.MonthlyTimesheet, error)
	FindMonthRows(ctx context.Context, employeeID int64, monthStarts []time.Time) (map[string]*domain.MonthlyTimesheet, error)
	UpsertDayFields(ctx context.Context, employeeID int64, monthStart time.Time, patch domain.DayPatch) (int64, error)
	UpsertDays(ctx context.Context, employeeID int64, monthStart time.Time, patches []domain.DayPatch) (int64, error)
	SetMissingMinutesTotal(ctx context.Context, employeeID int64, monthStart time.Time, minutes int) (int64, error)
}

// Stores groups the collaborators of AttendanceService
type Stores struct {
	Employees  EmployeeDirectory
	Punches    PunchStore
	Leaves     LeaveStore
	Holidays   HolidayCalendar
	Timesheets TimesheetStore
}

// AttendanceService reconciles manual grids, device punches, leave and
// holidays into daily statuses and monthly timesheets.
type AttendanceService struct {
	stores         Stores
	engine         *domain.Engine
	tz             *domain.Normalizer
	publisher      *events.AttendanceEventPublisher
	logger         *logger.Logger
	maxConcurrency int
	now            func() time.Time
}

// Option customizes an AttendanceService
type Option func(*AttendanceService)

// WithMaxConcurrency bounds how many employees a range report evaluates at once
func WithMaxConcurrency(n int) Option {
	return func(s *AttendanceService) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceService) { s.now = now }
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	stores Stores,
	engine *domain.Engine,
	publisher *events.AttendanceEventPublisher,
	log *logger.Logger,
	opts ...Option,
) *AttendanceService {
	s := &AttendanceService{
		stores:         stores,
		engine:         engine,
		tz:             engine.Timezone(),
		publisher:      publisher,
		logger:         log.WithComponent("attendance_service"),
		maxConcurrency: 4,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
