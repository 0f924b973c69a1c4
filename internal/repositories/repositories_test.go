package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostering_backend/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var (
	monday    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sunday    = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	createdAt = time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)
)

func rosterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "week_start", "week_end", "created_at"})
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "staff_id", "shift_id", "time_in", "time_out", "created_at", "updated_at"})
}

func TestRosterGetOrCreateInserts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rosters")).
		WithArgs(monday, sunday, sqlmock.AnyArg()).
		WillReturnRows(rosterRows().AddRow(1, monday, sunday, createdAt))

	roster, created, err := NewRosterRepository().GetOrCreateByWeek(context.Background(), db, monday)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), roster.ID)
	assert.Equal(t, sunday, roster.WeekEnd)
}

func TestRosterGetOrCreateReturnsExistingOnConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (week_start) DO NOTHING")).
		WillReturnRows(rosterRows())
	mock.ExpectQuery(regexp.QuoteMeta("FROM rosters WHERE week_start = $1")).
		WithArgs(monday).
		WillReturnRows(rosterRows().AddRow(4, monday, sunday, createdAt))

	roster, created, err := NewRosterRepository().GetOrCreateByWeek(context.Background(), db, monday)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(4), roster.ID)
}

func TestRosterGetOrCreateDatabaseError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rosters")).
		WillReturnError(errors.New("connection reset"))

	_, _, err := NewRosterRepository().GetOrCreateByWeek(context.Background(), db, monday)
	assert.ErrorIs(t, err, ErrDatabaseError)
}

func TestGetRosterByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rosters WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(rosterRows())

	_, err := NewRosterRepository().GetRosterByID(context.Background(), db, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRostersEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rosters ORDER BY week_start DESC")).
		WillReturnRows(rosterRows())

	rosters, err := NewRosterRepository().ListRosters(context.Background(), db)
	require.NoError(t, err)
	assert.NotNil(t, rosters)
	assert.Empty(t, rosters)
}

func TestAttendanceGetOrCreateReturnsExistingOnConflict(t *testing.T) {
	db, mock := newMock(t)
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WithArgs(int64(3), int64(10), sqlmock.AnyArg()).
		WillReturnRows(attendanceRows())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE staff_id = $1 AND shift_id = $2")).
		WithArgs(int64(3), int64(10)).
		WillReturnRows(attendanceRows().AddRow(7, 3, 10, in, nil, createdAt, createdAt))

	rec, err := NewAttendanceRepository().GetOrCreate(context.Background(), db, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	require.NotNil(t, rec.TimeIn)
	assert.Equal(t, in, *rec.TimeIn)
	assert.Nil(t, rec.TimeOut)
}

func TestAttendanceSetTimeOut(t *testing.T) {
	db, mock := newMock(t)
	in := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE attendance_records SET time_out = $1")).
		WithArgs(out, sqlmock.AnyArg(), int64(7)).
		WillReturnRows(attendanceRows().AddRow(7, 3, 10, in, out, createdAt, createdAt))

	rec, err := NewAttendanceRepository().SetTimeOut(context.Background(), db, 7, out)
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.InDelta(t, 8.0, rec.Hours(), 1e-9)
}

func TestAttendanceByShiftIDsSkipsQueryWhenEmpty(t *testing.T) {
	db, _ := newMock(t)
	records, err := NewAttendanceRepository().GetByShiftIDs(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestShiftMutationsReportMissingRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shifts SET staff_id = $1")).
		WithArgs(int64(3), sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewShiftRepository()
	assert.ErrorIs(t, repo.AssignStaff(context.Background(), db, 42, 3), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteShift(context.Background(), db, 42), ErrNotFound)
}

func TestGetShiftsFiltersByStaff(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	staffID := int64(3)
	rows := sqlmock.NewRows([]string{"id", "roster_id", "staff_id", "start_time", "end_time", "created_at", "updated_at", "staff_name"}).
		AddRow(5, 1, 3, start, start.Add(8*time.Hour), createdAt, createdAt, "bob").
		AddRow(6, 1, nil, start.Add(24*time.Hour), start.Add(32*time.Hour), createdAt, createdAt, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.staff_id = $1 ORDER BY s.start_time ASC")).
		WithArgs(staffID).
		WillReturnRows(rows)

	shifts, err := NewShiftRepository().GetShifts(context.Background(), db, &staffID)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.True(t, shifts[0].AssignedTo(3))
	assert.Equal(t, "bob", *shifts[0].StaffName)
	assert.Nil(t, shifts[1].StaffID)
	assert.Nil(t, shifts[1].StaffName)
}

func TestCreateReport(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_reports")).
		WithArgs(int64(1), monday, sunday, "Shift Report", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, createdAt))

	rep, err := NewReportRepository().CreateReport(context.Background(), db, &models.ShiftReport{
		RosterID:  1,
		WeekStart: monday.Add(3 * time.Hour),
		WeekEnd:   sunday,
		Summary:   "Shift Report",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), rep.ID)
	assert.Equal(t, createdAt, rep.CreatedAt)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"unique", &pq.Error{Code: "23505", Constraint: "users_username_key"}, ErrDuplicateKey},
		{"foreign key", &pq.Error{Code: "23503", Constraint: "shifts_staff_id_fkey"}, ErrForeignKey},
		{"other pq", &pq.Error{Code: "42P01"}, ErrDatabaseError},
		{"plain", errors.New("boom"), ErrDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err, "testing"), tt.want)
		})
	}
	assert.NoError(t, translateError(nil, "testing"))

	err := translateError(&pq.Error{Code: "23505", Constraint: "users_email_key"}, "creating user")
	assert.Contains(t, err.Error(), "users_email_key")
}
