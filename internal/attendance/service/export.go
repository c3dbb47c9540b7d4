package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []interface{}{
	"Date", "Weekday", "Code", "Reason", "Entry", "Exit",
	"Worked (min)", "Expected (min)", "Missing (min)", "Holiday", "Source", "Punches", "Comment",
}

// ExportMonth renders the month grid as a single-sheet workbook
func (s *AttendanceService) ExportMonth(ctx context.Context, employeeID int64, year, month int, w io.Writer) (string, error) {
	grid, err := s.MonthGrid(ctx, employeeID, year, month, "")
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	sheet := fmt.Sprintf("%04d-%02d", year, month)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}

	f.SetCellValue(sheet, "A1", grid.FullName)
	f.SetCellValue(sheet, "C1", "Clock code")
	f.SetCellValue(sheet, "D1", grid.ClockCode)
	f.SetCellValue(sheet, "E1", "PS")
	f.SetCellValue(sheet, "F1", grid.PS)

	if err := f.SetSheetRow(sheet, "A3", &exportHeader); err != nil {
		return "", err
	}

	for i, d := range grid.Days {
		row := []interface{}{
			d.Date, d.Weekday, d.StatusCode, d.ResultFlag,
			deref(d.EntryTime), deref(d.ExitTime),
			intOrBlank(d.WorkedMinutes), intOrBlank(d.ExpectedMinutes), d.MissingMinutes,
			yesNo(d.IsHoliday), string(d.Source), strings.Join(d.Punches, " "), d.Comment,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", err
		}
	}

	total := len(grid.Days) + 5
	f.SetCellValue(sheet, fmt.Sprintf("A%d", total), "Computed missing (min)")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", total), grid.ComputedMissingMinutes)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", total+1), "Stored missing (min)")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", total+1), grid.StoredMissingMinutes)

	if err := f.Write(w); err != nil {
		return "", err
	}

	return fmt.Sprintf("timesheet-%d-%04d-%02d.xlsx", employeeID, year, month), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrBlank(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
