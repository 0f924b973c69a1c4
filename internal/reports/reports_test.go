package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rostering_backend/internal/models"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func staffID(id int64) *int64 { return &id }

func testRoster() models.Roster {
	return models.Roster{ID: 1, WeekStart: at("2025-09-29 00:00"), WeekEnd: at("2025-10-05 00:00")}
}

func TestBuildSingleCompleteRecord(t *testing.T) {
	shifts := []models.Shift{{ID: 10, RosterID: 1, StaffID: staffID(7), StartTime: at("2025-09-29 09:00"), EndTime: at("2025-09-29 17:00")}}
	records := []models.AttendanceRecord{{ID: 100, StaffID: 7, ShiftID: 10, TimeIn: ptr(at("2025-09-29 09:05")), TimeOut: ptr(at("2025-09-29 16:55"))}}
	staff := map[int64]*models.User{7: {ID: 7, Username: "alice"}}

	s := Build(testRoster(), shifts, records, staff)

	require.Len(t, s.Entries, 1)
	assert.Equal(t, 1, s.TotalShifts)
	assert.Equal(t, 1, s.TotalStaff())
	assert.InDelta(t, 7.8333, s.TotalHours, 0.001)

	text := Render(s)
	assert.True(t, strings.HasPrefix(text, "Shift Report\n"))
	assert.Contains(t, text, " Week: 2025-09-29 → 2025-10-05")
	assert.Contains(t, text, "Staff: alice\n")
	assert.Contains(t, text, " Shift: 2025-09-29 09:00 → 2025-09-29 17:00\n")
	assert.Contains(t, text, " Time In: 2025-09-29 09:05 | Time Out: 2025-09-29 16:55\n")
	assert.Contains(t, text, " Hours Worked: 7.83\n")
	assert.Contains(t, text, " alice: 7.83 hrs\n")
	assert.Contains(t, text, " Total Shifts: 1\n")
	assert.Contains(t, text, " Total Staff: 1\n")
	assert.Contains(t, text, " Total Hours Worked: 7.83 hrs")
}

func TestBuildIncompleteRecordCountsAsZero(t *testing.T) {
	shifts := []models.Shift{{ID: 10, StartTime: at("2025-09-29 09:00"), EndTime: at("2025-09-29 17:00")}}
	records := []models.AttendanceRecord{{ID: 1, StaffID: 7, ShiftID: 10, TimeIn: ptr(at("2025-09-29 09:00"))}}
	staff := map[int64]*models.User{7: {ID: 7, Username: "bob"}}

	s := Build(testRoster(), shifts, records, staff)
	text := Render(s)

	assert.Equal(t, 1, s.TotalShifts)
	assert.Equal(t, 0.0, s.TotalHours)
	assert.Contains(t, text, " Time In: 2025-09-29 09:00 | Time Out: N/A\n")
	assert.Contains(t, text, " Hours Worked: "+IncompleteMarker+"\n")
	assert.Contains(t, text, " bob: 0.00 hrs\n")
	assert.Contains(t, text, " Total Hours Worked: 0.00 hrs")
}

func TestBuildEmptyRoster(t *testing.T) {
	s := Build(testRoster(), nil, nil, nil)
	text := Render(s)

	assert.Equal(t, 0, s.TotalShifts)
	assert.Equal(t, 0, s.TotalStaff())
	assert.Contains(t, text, "Summary of Hours Worked (per staff):\n\nOverall Summary:")
	assert.Contains(t, text, " Total Shifts: 0\n")
	assert.Contains(t, text, " Total Staff: 0\n")
	assert.Contains(t, text, " Total Hours Worked: 0.00 hrs")
}

func TestBuildUnresolvedStaffAndShift(t *testing.T) {
	records := []models.AttendanceRecord{{ID: 1, StaffID: 99, ShiftID: 404, TimeIn: ptr(at("2025-09-30 08:00")), TimeOut: ptr(at("2025-09-30 10:00"))}}

	s := Build(testRoster(), nil, records, map[int64]*models.User{})
	text := Render(s)

	assert.Contains(t, text, "Staff: "+UnknownStaff+"\n")
	assert.Contains(t, text, " Shift: "+NoShiftInfo+"\n")
	assert.Contains(t, text, " Hours Worked: 2.00\n")
	assert.Equal(t, 1, s.TotalShifts)
}

func TestBuildAccumulatesByStaffIDInFirstAppearanceOrder(t *testing.T) {
	shifts := []models.Shift{
		{ID: 1, StartTime: at("2025-09-29 09:00"), EndTime: at("2025-09-29 12:00")},
		{ID: 2, StartTime: at("2025-09-30 09:00"), EndTime: at("2025-09-30 12:00")},
		{ID: 3, StartTime: at("2025-10-01 09:00"), EndTime: at("2025-10-01 12:00")},
	}
	records := []models.AttendanceRecord{
		{ID: 1, StaffID: 8, ShiftID: 1, TimeIn: ptr(at("2025-09-29 09:00")), TimeOut: ptr(at("2025-09-29 12:00"))},
		{ID: 2, StaffID: 7, ShiftID: 2, TimeIn: ptr(at("2025-09-30 09:00")), TimeOut: ptr(at("2025-09-30 11:30"))},
		{ID: 3, StaffID: 8, ShiftID: 3, TimeIn: ptr(at("2025-10-01 09:00")), TimeOut: ptr(at("2025-10-01 10:00"))},
	}
	// Two staff accounts sharing a display name must not be merged.
	staff := map[int64]*models.User{7: {ID: 7, Username: "sam"}, 8: {ID: 8, Username: "sam"}}

	s := Build(testRoster(), shifts, records, staff)

	require.Len(t, s.StaffTotals, 2)
	assert.Equal(t, int64(8), s.StaffTotals[0].StaffID)
	assert.InDelta(t, 4.0, s.StaffTotals[0].Hours, 1e-9)
	assert.Equal(t, int64(7), s.StaffTotals[1].StaffID)
	assert.InDelta(t, 2.5, s.StaffTotals[1].Hours, 1e-9)
	assert.Equal(t, 3, s.TotalShifts)
	assert.Equal(t, 2, s.TotalStaff())
	assert.InDelta(t, 6.5, s.TotalHours, 1e-9)
}

func TestBuildClampsNegativeDuration(t *testing.T) {
	records := []models.AttendanceRecord{{ID: 1, StaffID: 7, ShiftID: 1, TimeIn: ptr(at("2025-09-29 17:00")), TimeOut: ptr(at("2025-09-29 09:00"))}}

	s := Build(testRoster(), nil, records, nil)

	assert.Equal(t, 0.0, s.TotalHours)
	assert.True(t, s.Entries[0].Complete)
}

func TestRenderIsDeterministic(t *testing.T) {
	records := []models.AttendanceRecord{{ID: 1, StaffID: 7, ShiftID: 1, TimeIn: ptr(at("2025-09-29 09:00")), TimeOut: ptr(at("2025-09-29 17:20"))}}
	s := Build(testRoster(), nil, records, map[int64]*models.User{7: {ID: 7, Username: "carol"}})

	assert.Equal(t, Render(s), Render(s))
}

func TestParseTotalHoursRoundTrip(t *testing.T) {
	records := []models.AttendanceRecord{
		{ID: 1, StaffID: 7, ShiftID: 1, TimeIn: ptr(at("2025-09-29 09:05")), TimeOut: ptr(at("2025-09-29 16:55"))},
		{ID: 2, StaffID: 8, ShiftID: 2, TimeIn: ptr(at("2025-09-30 22:00")), TimeOut: ptr(at("2025-10-01 06:10"))},
	}
	s := Build(testRoster(), nil, records, nil)

	got, err := ParseTotalHours(Render(s))
	require.NoError(t, err)
	assert.Equal(t, round2(s.TotalHours), got)
}

func TestTotalHoursRoundsTheUnroundedSum(t *testing.T) {
	records := []models.AttendanceRecord{
		{ID: 1, StaffID: 7, ShiftID: 1, TimeIn: ptr(at("2025-09-29 09:00")), TimeOut: ptr(at("2025-09-29 09:20"))},
		{ID: 2, StaffID: 7, ShiftID: 2, TimeIn: ptr(at("2025-09-30 09:00")), TimeOut: ptr(at("2025-09-30 09:20"))},
	}
	text := Render(Build(testRoster(), nil, records, map[int64]*models.User{7: {ID: 7, Username: "dave"}}))

	assert.Equal(t, 2, strings.Count(text, " Hours Worked: 0.33\n"))
	assert.Contains(t, text, " dave: 0.67 hrs\n")
	assert.True(t, strings.HasSuffix(text, " Total Hours Worked: 0.67 hrs"))
}

func TestParseTotalHoursMissingLine(t *testing.T) {
	_, err := ParseTotalHours("Shift Report\n")
	assert.ErrorIs(t, err, ErrNoTotal)
}

func TestWriteWorkbook(t *testing.T) {
	shifts := []models.Shift{{ID: 10, StartTime: at("2025-09-29 09:00"), EndTime: at("2025-09-29 17:00")}}
	records := []models.AttendanceRecord{
		{ID: 100, StaffID: 7, ShiftID: 10, TimeIn: ptr(at("2025-09-29 09:05")), TimeOut: ptr(at("2025-09-29 16:55"))},
		{ID: 101, StaffID: 8, ShiftID: 10, TimeIn: ptr(at("2025-09-29 09:00"))},
	}
	staff := map[int64]*models.User{7: {ID: 7, Username: "alice"}, 8: {ID: 8, Username: "bob"}}
	s := Build(testRoster(), shifts, records, staff)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, s))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Record ID", rows[0][0])
	assert.Equal(t, "alice", rows[1][2])
	assert.Equal(t, "7.83", rows[1][7])
	assert.Equal(t, IncompleteMarker, rows[2][8])

	totals, err := f.GetRows(TotalsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff ID", "Staff", "Hours"}, totals[0])
	assert.Equal(t, "alice", totals[1][1])
	assert.Equal(t, "bob", totals[2][1])
}
