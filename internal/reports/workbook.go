package reports

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"rostering_backend/pkg/utils"
)

const (
	AttendanceSheet = "Attendance"
	TotalsSheet     = "Totals"
)

var (
	attendanceHeaders = []interface{}{"Record ID", "Staff ID", "Staff", "Shift Start", "Shift End", "Time In", "Time Out", "Hours", "Status"}
	totalsHeaders     = []interface{}{"Staff ID", "Staff", "Hours"}
)

// WriteWorkbook writes s as an xlsx workbook with one row per attendance
// record and a per-staff totals sheet.
func WriteWorkbook(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AttendanceSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return fmt.Errorf("creating totals sheet: %w", err)
	}

	if err := f.SetSheetRow(AttendanceSheet, "A1", &attendanceHeaders); err != nil {
		return err
	}
	for i, e := range s.Entries {
		status := "Complete"
		if !e.Complete {
			status = IncompleteMarker
		}
		row := []interface{}{
			e.RecordID, e.StaffID, e.StaffName,
			cellTime(e.ShiftStart), cellTime(e.ShiftEnd),
			cellTime(e.TimeIn), cellTime(e.TimeOut),
			round2(e.Hours), status,
		}
		if err := setRow(f, AttendanceSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(TotalsSheet, "A1", &totalsHeaders); err != nil {
		return err
	}
	next := 2
	for _, t := range s.StaffTotals {
		if err := setRow(f, TotalsSheet, next, []interface{}{t.StaffID, t.Name, round2(t.Hours)}); err != nil {
			return err
		}
		next++
	}
	footer := [][]interface{}{
		{"", "Week", s.WeekStart.Format(utils.DateLayout) + " - " + s.WeekEnd.Format(utils.DateLayout)},
		{"", "Total Shifts", s.TotalShifts},
		{"", "Total Staff", s.TotalStaff()},
		{"", "Total Hours Worked", round2(s.TotalHours)},
	}
	next++
	for _, row := range footer {
		if err := setRow(f, TotalsSheet, next, row); err != nil {
			return err
		}
		next++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cellTime(t *time.Time) string {
	if t == nil {
		return MissingPunch
	}
	return t.Format(utils.DisplayLayout)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
