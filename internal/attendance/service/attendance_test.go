package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/internal/attendance/service"
	"github.com/orfevre/attendance-backend/pkg/errors"
	"github.com/orfevre/attendance-backend/pkg/messaging"
	"github.com/orfevre/attendance-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// 2024-03-05 is a Tuesday, 2024-03-06 a Wednesday, 2024-03-01 a Friday.

// =============================================================================
// PreviewDay
// =============================================================================

func TestPreviewDay_DevicePunches(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	svc := f.service(t)

	got, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.EmployeeID)
	assert.Equal(t, "2024-03-05", got.Date)
	assert.Equal(t, domain.CodePresent, got.StatusCode)
	assert.Equal(t, domain.FlagLate, got.ResultFlag)
	assert.Equal(t, "09:10:00", *got.EntryTime)
	assert.Equal(t, "17:00:00", *got.ExitTime)
	assert.Equal(t, "ALGER-CENTRE", got.PS)
	assert.Equal(t, domain.SourceDevice, got.Source)
}

func TestPreviewDay_LeaveBeatsPunches(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:00", "17:00")
	f.leaves.byEmployee[1] = []domain.LeaveInterval{{
		EmployeeID:  1,
		StartDate:   f.tz.Date(2024, 3, 4),
		EndDate:     f.tz.Date(2024, 3, 5),
		LeaveCodeID: 7,
	}}
	svc := f.service(t)

	got, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "CA", got.StatusCode)
	assert.Empty(t, got.ResultFlag)
}

func TestPreviewDay_PunchSourceDownDegradesToAbsent(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:00", "17:00")
	f.punches.err = assert.AnError
	svc := f.service(t)

	got, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, domain.CodeAbsent, got.StatusCode)
	assert.Equal(t, domain.SourceNone, got.Source)
	assert.True(t, got.Degraded)
}

func TestPreviewDay_SinglePunchIsPartial(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:30")
	svc := f.service(t)

	got, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, domain.CodePartial, got.StatusCode)
	assert.Equal(t, domain.FlagLate, got.ResultFlag)
	assert.False(t, got.Degraded)
}

func TestPreviewDay_HolidaySourceDownIsDegraded(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:00", "17:00")
	f.holidays.err = assert.AnError
	svc := f.service(t)

	got, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, domain.CodePresent, got.StatusCode)
	assert.True(t, got.Degraded)
}

func TestPreviewDay_OpenDay(t *testing.T) {
	tests := []struct {
		name    string
		clocks  []string
		code    string
		flag    string
		hasExit bool
	}{
		{name: "no punch yet", code: domain.CodeUnknown},
		{name: "late entry", clocks: []string{"09:30"}, code: domain.CodePresent, flag: domain.FlagLate, hasExit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.punch(t, "100", "2024-03-20", tt.clocks...)
			svc := f.service(t)

			got, err := svc.PreviewDay(context.Background(), 1, "2024-03-20")
			require.NoError(t, err)
			assert.Equal(t, tt.code, got.StatusCode)
			assert.Equal(t, tt.flag, got.ResultFlag)
			assert.Equal(t, tt.hasExit, got.ExitTime != nil)
		})
	}
}

func TestPreviewDay_Errors(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.PreviewDay(context.Background(), 99, "2024-03-05")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = svc.PreviewDay(context.Background(), 1, "2024-13-01")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.PreviewDay(context.Background(), 1, "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// =============================================================================
// RangeReport
// =============================================================================

func rangeFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	f.punch(t, "100", "2024-03-06", "09:00", "15:00")
	f.leaves.byEmployee[2] = []domain.LeaveInterval{{
		EmployeeID:  2,
		StartDate:   f.tz.Date(2024, 3, 5),
		EndDate:     f.tz.Date(2024, 3, 7),
		LeaveCodeID: 7,
	}}
	return f
}

func TestRangeReport_AllEmployeesInOrder(t *testing.T) {
	f := rangeFixture(t)
	svc := f.service(t, service.WithMaxConcurrency(2))

	report, err := svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-07"})
	require.NoError(t, err)
	require.Len(t, report.Employees, 3)
	assert.False(t, report.Degraded)

	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, report.Employees[i].EmployeeID)
		assert.Len(t, report.Employees[i].Days, 3)
	}

	amina := report.Employees[0]
	assert.Equal(t, domain.CodePresent, amina.Days[0].StatusCode)
	assert.Equal(t, domain.FlagLate, amina.Days[0].ResultFlag)
	assert.Equal(t, 0, amina.Days[0].DeltaMin)

	assert.Equal(t, domain.CodePartial, amina.Days[1].StatusCode)
	assert.Equal(t, testutil.PtrInt(360), amina.Days[1].WorkedMin)
	assert.Equal(t, testutil.PtrInt(480), amina.Days[1].ExpectedMin)
	assert.Equal(t, -90, amina.Days[1].DeltaMin)

	assert.Equal(t, domain.CodeAbsent, amina.Days[2].StatusCode)
	assert.Nil(t, amina.Days[2].WorkedMin)
	assert.Equal(t, 90, amina.MonthMissingMinutes)

	for _, d := range report.Employees[1].Days {
		assert.Equal(t, "CA", d.StatusCode)
	}
	for _, d := range report.Employees[2].Days {
		assert.Equal(t, domain.CodeAbsent, d.StatusCode)
	}
	assert.Equal(t, 0, report.Employees[2].MonthMissingMinutes)
}

func TestRangeReport_Filters(t *testing.T) {
	f := rangeFixture(t)
	svc := f.service(t)

	report, err := svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05", PointOfSale: "ORAN"})
	require.NoError(t, err)
	require.Len(t, report.Employees, 1)
	assert.Equal(t, int64(2), report.Employees[0].EmployeeID)

	report, err = svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05", EmployeeID: 3})
	require.NoError(t, err)
	require.Len(t, report.Employees, 1)
	assert.Equal(t, "Sofia Mansouri", report.Employees[0].FullName)

	_, err = svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05", EmployeeID: 99})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRangeReport_InvalidRanges(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	tests := []struct {
		name     string
		from, to string
	}{
		{name: "missing from", to: "2024-03-05"},
		{name: "malformed to", from: "2024-03-05", to: "05/03/2024"},
		{name: "reversed", from: "2024-03-06", to: "2024-03-05"},
		{name: "too long", from: "2023-01-01", to: "2024-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RangeReport(context.Background(), service.RangeQuery{From: tt.from, To: tt.to})
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestRangeReport_LeaveSourceDownIsDegraded(t *testing.T) {
	f := rangeFixture(t)
	f.leaves.err = assert.AnError
	svc := f.service(t)

	report, err := svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05"})
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Equal(t, domain.CodeAbsent, report.Employees[1].Days[0].StatusCode)
}

func TestRangeReport_MonthRowsDownIsDegraded(t *testing.T) {
	f := rangeFixture(t)
	f.timesheets.readErr = assert.AnError
	svc := f.service(t)

	report, err := svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05"})
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Len(t, report.Employees, 3)
}

func TestRangeReport_PunchesNearMidnightStayOnTheirDay(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "200", "2024-03-04", "23:50")
	f.punch(t, "200", "2024-03-06", "00:10")
	svc := f.service(t)

	report, err := svc.RangeReport(context.Background(), service.RangeQuery{From: "2024-03-05", To: "2024-03-05", EmployeeID: 2})
	require.NoError(t, err)
	require.Len(t, report.Employees, 1)
	assert.Equal(t, domain.CodeAbsent, report.Employees[0].Days[0].StatusCode)
	assert.Nil(t, report.Employees[0].Days[0].EntryTime)
}

func TestRangeReport_StopsOnCancelledContext(t *testing.T) {
	f := rangeFixture(t)
	svc := f.service(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RangeReport(ctx, service.RangeQuery{From: "2024-03-01", To: "2024-03-31"})
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// MonthGrid
// =============================================================================

func TestMonthGrid_StoredAndComputedCodes(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	svc := f.service(t)

	_, err := f.timesheets.UpsertDayFields(context.Background(), 1, f.tz.MonthStart(2024, 3), domain.DayPatch{Day: 5, Code: str("CA")})
	require.NoError(t, err)

	grid, err := svc.MonthGrid(context.Background(), 1, 2024, 3, "")
	require.NoError(t, err)
	require.Len(t, grid.Days, 31)
	require.NotNil(t, grid.TimesheetID)
	assert.Equal(t, "100", grid.ClockCode)

	d5 := grid.Days[4]
	assert.Equal(t, 5, d5.Day)
	assert.Equal(t, "Tuesday", d5.Weekday)
	assert.Equal(t, "CA", d5.StatusCode)
	assert.Equal(t, "CA", d5.StoredCode)
	assert.Equal(t, domain.CodePresent, d5.ComputedCode)
	assert.Equal(t, []string{"09:10:00", "17:00:00"}, d5.Punches)

	assert.Equal(t, domain.CodeUnknown, grid.Days[19].ComputedCode)
	assert.Equal(t, domain.CodeUnknown, grid.Days[25].StatusCode)
}

func TestMonthGrid_ClockCodeOverride(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "999", "2024-03-06", "09:00", "15:00")
	svc := f.service(t)

	grid, err := svc.MonthGrid(context.Background(), 1, 2024, 3, "999")
	require.NoError(t, err)
	assert.Equal(t, "999", grid.ClockCode)
	assert.Equal(t, domain.SourceDevice, grid.Days[5].Source)
	assert.Equal(t, domain.CodePartial, grid.Days[5].StatusCode)
	assert.Equal(t, 90, grid.ComputedMissingMinutes)
	assert.Nil(t, grid.TimesheetID)
}

func TestMonthGrid_ReportsDegradedSources(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	grid, err := svc.MonthGrid(context.Background(), 1, 2024, 3, "")
	require.NoError(t, err)
	assert.False(t, grid.Degraded)

	f.leaves.err = assert.AnError
	grid, err = svc.MonthGrid(context.Background(), 1, 2024, 3, "")
	require.NoError(t, err)
	assert.True(t, grid.Degraded)
	assert.Len(t, grid.Days, 31)
}

func TestMonthGrid_InvalidMonth(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.MonthGrid(context.Background(), 1, 2024, 13, "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// =============================================================================
// SyncMonth
// =============================================================================

func TestSyncMonth_WritesClosedDaysOnly(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	svc := f.service(t)

	res, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	require.NoError(t, err)
	assert.Equal(t, 19, res.DaysWritten)
	assert.NotZero(t, res.TimesheetID)
	assert.NotEmpty(t, res.Message)

	row, err := f.timesheets.FindMonthRow(context.Background(), 1, f.tz.MonthStart(2024, 3))
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, domain.DayFields{Code: "P", Reason: "L", Entry: "09:10:00", Exit: "17:00:00"}, row.Day(5))
	assert.Equal(t, domain.CodeAbsent, row.Day(1).Code)
	assert.Empty(t, row.Day(1).Entry)
	assert.Empty(t, row.Day(20).Code)

	f.publisher.AssertEventPublished(t, messaging.EventMonthSynced)
}

func TestSyncMonth_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	res, err := svc.SyncMonth(context.Background(), 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 19, res.DaysWritten)
}

func TestSyncMonth_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	f.punch(t, "100", "2024-03-06", "09:00", "15:00")
	svc := f.service(t)

	first, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	require.NoError(t, err)
	second, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	require.NoError(t, err)

	assert.Equal(t, first.TimesheetID, second.TimesheetID)
	require.Len(t, f.timesheets.writes, 2)
	assert.Equal(t, f.timesheets.writes[0], f.timesheets.writes[1])
}

func TestSyncMonth_KeepsManualCodes(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-07", "09:00", "17:00")
	svc := f.service(t)

	_, err := f.timesheets.UpsertDayFields(context.Background(), 1, f.tz.MonthStart(2024, 3), domain.DayPatch{Day: 7, Code: str("CA"), Comment: str("approved by phone")})
	require.NoError(t, err)

	_, err = svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	require.NoError(t, err)

	row, err := f.timesheets.FindMonthRow(context.Background(), 1, f.tz.MonthStart(2024, 3))
	require.NoError(t, err)
	assert.Equal(t, "CA", row.Day(7).Code)
	assert.Equal(t, "approved by phone", row.Day(7).Comment)
}

func TestSyncMonth_SkipsDaysDecidedByFailedSources(t *testing.T) {
	tests := []struct {
		name        string
		breakSource func(f *fixture)
		wantDays    []int
	}{
		// 5: device punches, 7: stored code, 12: approved leave, 14: manual times
		{name: "punches", breakSource: func(f *fixture) { f.punches.err = assert.AnError }, wantDays: []int{7, 12, 14}},
		{name: "leave", breakSource: func(f *fixture) { f.leaves.err = assert.AnError }, wantDays: []int{7}},
		{name: "holidays", breakSource: func(f *fixture) { f.holidays.err = assert.AnError }, wantDays: []int{1, 2, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 15, 16, 17, 18, 19}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.punch(t, "100", "2024-03-05", "09:10", "17:00")
			f.leaves.byEmployee[1] = []domain.LeaveInterval{{
				EmployeeID:  1,
				StartDate:   f.tz.Date(2024, 3, 12),
				EndDate:     f.tz.Date(2024, 3, 12),
				LeaveCodeID: 7,
			}}
			monthStart := f.tz.MonthStart(2024, 3)
			_, err := f.timesheets.UpsertDays(context.Background(), 1, monthStart, []domain.DayPatch{
				{Day: 7, Code: str("CA")},
				{Day: 14, Entry: str("09:00:00"), Exit: str("17:00:00")},
			})
			require.NoError(t, err)
			f.timesheets.writes = nil
			tt.breakSource(f)
			svc := f.service(t)

			res, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Equal(t, len(tt.wantDays), res.DaysWritten)
			assert.Equal(t, 19-len(tt.wantDays), res.DaysSkipped)

			require.Len(t, f.timesheets.writes, 1)
			written := make([]int, 0, len(f.timesheets.writes[0]))
			for _, p := range f.timesheets.writes[0] {
				written = append(written, p.Day)
			}
			assert.Equal(t, tt.wantDays, written)
			f.publisher.AssertEventPublished(t, messaging.EventMonthSynced)
		})
	}
}

func TestSyncMonth_NothingSettledWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.leaves.err = assert.AnError
	svc := f.service(t)

	res, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Zero(t, res.DaysWritten)
	assert.Equal(t, 19, res.DaysSkipped)
	assert.Empty(t, f.timesheets.writes)
	f.publisher.AssertNoEventsPublished(t)
}

func TestSyncMonth_RefusesUnreadableMonthRows(t *testing.T) {
	f := newFixture(t)
	f.timesheets.readErr = assert.AnError
	svc := f.service(t)

	_, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(3))
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
	assert.Empty(t, f.timesheets.writes)
	f.publisher.AssertNoEventsPublished(t)
}

func TestSyncMonth_FutureMonth(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.SyncMonth(context.Background(), 1, testutil.PtrInt(2024), testutil.PtrInt(4))
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	assert.Empty(t, f.timesheets.writes)
}

func TestSyncMonth_UnknownEmployee(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.SyncMonth(context.Background(), 99, testutil.PtrInt(2024), testutil.PtrInt(3))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

// =============================================================================
// SaveMonthlyMissing
// =============================================================================

func TestSaveMonthlyMissing(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	res, err := svc.SaveMonthlyMissing(context.Background(), 1, 2024, 3, 120)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", res.MonthStart)

	row, err := f.timesheets.FindMonthRow(context.Background(), 1, f.tz.MonthStart(2024, 3))
	require.NoError(t, err)
	assert.Equal(t, 120, row.MissingMinutesTotal)
	assert.Equal(t, res.TimesheetID, row.ID)

	f.publisher.AssertEventPublished(t, messaging.EventMonthMissingSaved)
}

func TestSaveMonthlyMissing_Errors(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.SaveMonthlyMissing(context.Background(), 1, 2024, 3, -1)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.SaveMonthlyMissing(context.Background(), 1, 2024, 0, 10)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.SaveMonthlyMissing(context.Background(), 99, 2024, 3, 10)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	f.publisher.AssertNoEventsPublished(t)
}

// =============================================================================
// ManualPunch
// =============================================================================

func TestManualPunch_NormalizesClockTimes(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "10:00", "12:00")
	svc := f.service(t)

	res, err := svc.ManualPunch(context.Background(), 1, service.ManualPunchInput{
		Date:       "2024-03-05",
		StatusCode: "P",
		Entry:      str("08:05"),
		Exit:       str("17:30:15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", res.MonthStart)

	row, err := f.timesheets.FindMonthRow(context.Background(), 1, f.tz.MonthStart(2024, 3))
	require.NoError(t, err)
	assert.Equal(t, "08:05:00", row.Day(5).Entry)
	assert.Equal(t, "17:30:15", row.Day(5).Exit)

	preview, err := svc.PreviewDay(context.Background(), 1, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, preview.Source)
	assert.Equal(t, "08:05:00", *preview.EntryTime)

	f.publisher.AssertEventPublished(t, messaging.EventDayOverridden)
}

func TestManualPunch_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.publisher.Err = assert.AnError
	svc := f.service(t)

	_, err := svc.ManualPunch(context.Background(), 1, service.ManualPunchInput{Date: "2024-03-05", StatusCode: "A"})
	require.NoError(t, err)
	assert.Len(t, f.timesheets.writes, 1)
}

func TestManualPunch_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input service.ManualPunchInput
	}{
		{name: "bad date", input: service.ManualPunchInput{Date: "2024-02-30", StatusCode: "P"}},
		{name: "missing code", input: service.ManualPunchInput{Date: "2024-03-05", StatusCode: "  "}},
		{name: "malformed entry", input: service.ManualPunchInput{Date: "2024-03-05", StatusCode: "P", Entry: str("eight")}},
		{name: "hour out of range", input: service.ManualPunchInput{Date: "2024-03-05", StatusCode: "P", Exit: str("25:00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.service(t)

			_, err := svc.ManualPunch(context.Background(), 1, tt.input)
			assert.True(t, errors.Is(err, errors.ErrValidation))
			assert.Empty(t, f.timesheets.writes)
		})
	}
}

// =============================================================================
// ExportMonth
// =============================================================================

func TestExportMonth(t *testing.T) {
	f := newFixture(t)
	f.punch(t, "100", "2024-03-05", "09:10", "17:00")
	svc := f.service(t)

	var buf bytes.Buffer
	name, err := svc.ExportMonth(context.Background(), 1, 2024, 3, &buf)
	require.NoError(t, err)
	assert.Equal(t, "timesheet-1-2024-03.xlsx", name)

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	cell := func(ref string) string {
		v, err := wb.GetCellValue("2024-03", ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Amina Benali", cell("A1"))
	assert.Equal(t, "Date", cell("A3"))
	assert.Equal(t, "2024-03-05", cell("A8"))
	assert.Equal(t, "P", cell("C8"))
	assert.Equal(t, "L", cell("D8"))
	assert.Equal(t, "09:10:00", cell("E8"))
	assert.Equal(t, "09:10:00 17:00:00", cell("L8"))
}

func TestExportMonth_UnknownEmployee(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	var buf bytes.Buffer
	_, err := svc.ExportMonth(context.Background(), 99, 2024, 3, &buf)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Zero(t, buf.Len())
}
