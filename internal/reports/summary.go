// Package reports aggregates attendance for a roster and renders it as the
// plain-text shift report stored with each generated report.
package reports

import (
	"time"

	"rostering_backend/internal/models"
)

const (
	UnknownStaff     = "Unknown Staff"
	NoShiftInfo      = "No shift info"
	IncompleteMarker = "Incomplete (No time in/out)"
	MissingPunch     = "N/A"
)

// Entry is one attendance record resolved for display.
type Entry struct {
	RecordID   int64
	StaffID    int64
	StaffName  string
	ShiftID    int64
	ShiftStart *time.Time
	ShiftEnd   *time.Time
	TimeIn     *time.Time
	TimeOut    *time.Time
	Hours      float64
	Complete   bool
}

// StaffTotal is the accumulated hours of one staff member.
type StaffTotal struct {
	StaffID int64
	Name    string
	Hours   float64
}

// Summary is the reduced form of a roster's attendance.
type Summary struct {
	RosterID    int64
	WeekStart   time.Time
	WeekEnd     time.Time
	Entries     []Entry
	StaffTotals []StaffTotal // in order of first appearance
	TotalShifts int
	// TotalHours is the unrounded sum of entry hours. Rendered at two decimals it
	// can differ by 0.01 from the sum of the rendered per-entry values.
	TotalHours float64
}

// TotalStaff is the number of distinct staff members with at least one record.
func (s *Summary) TotalStaff() int {
	return len(s.StaffTotals)
}

// Build joins records to their shifts and staff and accumulates hours.
// Records whose staff or shift cannot be resolved still count, under sentinel labels.
func Build(roster models.Roster, shifts []models.Shift, records []models.AttendanceRecord, staff map[int64]*models.User) Summary {
	summary := Summary{
		RosterID:    roster.ID,
		WeekStart:   roster.WeekStart,
		WeekEnd:     roster.WeekEnd,
		Entries:     make([]Entry, 0, len(records)),
		StaffTotals: []StaffTotal{},
	}

	shiftByID := make(map[int64]*models.Shift, len(shifts))
	for i := range shifts {
		shiftByID[shifts[i].ID] = &shifts[i]
	}

	totalIndex := make(map[int64]int)
	for i := range records {
		rec := &records[i]

		name := UnknownStaff
		if u, ok := staff[rec.StaffID]; ok && u != nil {
			name = u.DisplayName()
		}

		entry := Entry{
			RecordID:  rec.ID,
			StaffID:   rec.StaffID,
			StaffName: name,
			ShiftID:   rec.ShiftID,
			TimeIn:    rec.TimeIn,
			TimeOut:   rec.TimeOut,
			Hours:     rec.Hours(),
			Complete:  rec.Complete(),
		}
		if sh, ok := shiftByID[rec.ShiftID]; ok {
			start, end := sh.StartTime, sh.EndTime
			entry.ShiftStart, entry.ShiftEnd = &start, &end
		}
		summary.Entries = append(summary.Entries, entry)

		idx, seen := totalIndex[rec.StaffID]
		if !seen {
			idx = len(summary.StaffTotals)
			totalIndex[rec.StaffID] = idx
			summary.StaffTotals = append(summary.StaffTotals, StaffTotal{StaffID: rec.StaffID, Name: name})
		}
		summary.StaffTotals[idx].Hours += entry.Hours

		summary.TotalShifts++
		summary.TotalHours += entry.Hours
	}

	return summary
}
