package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostering_backend/internal/events"
	"rostering_backend/internal/models"
	"rostering_backend/internal/repositories"
)

// memStore implements every repository interface in memory. The executor
// argument is ignored; transaction boundaries are asserted through sqlmock.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]*models.User
	rosters    map[int64]*models.Roster
	shifts     map[int64]*models.Shift
	attendance map[int64]*models.AttendanceRecord
	reports    map[int64]*models.ShiftReport
}

var (
	_ repositories.UserRepository       = (*memStore)(nil)
	_ repositories.RosterRepository     = (*memStore)(nil)
	_ repositories.ShiftRepository      = (*memStore)(nil)
	_ repositories.AttendanceRepository = (*memStore)(nil)
	_ repositories.ReportRepository     = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]*models.User{},
		rosters:    map[int64]*models.Roster{},
		shifts:     map[int64]*models.Shift{},
		attendance: map[int64]*models.AttendanceRecord{},
		reports:    map[int64]*models.ShiftReport{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// --- users ---

func (m *memStore) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: (constraint: users_username_key)", repositories.ErrDuplicateKey)
		}
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: (constraint: users_email_key)", repositories.ErrDuplicateKey)
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	m.users[user.ID] = &stored
	return user, nil
}

func (m *memStore) FindUserByUsername(_ context.Context, _ repositories.SQLExecutor, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) FindUserByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) FindStaffByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.User, error) {
	u, err := m.FindUserByID(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	if !u.IsStaff() {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindUsersByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			c := *u
			out[id] = &c
		}
	}
	return out, nil
}

func (m *memStore) ListStaff(_ context.Context, _ repositories.SQLExecutor) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.IsStaff() {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	stored := *user
	m.users[user.ID] = &stored
	return user, nil
}

func (m *memStore) DeleteUser(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// --- rosters ---

func (m *memStore) GetOrCreateByWeek(_ context.Context, _ repositories.SQLExecutor, weekStart time.Time) (*models.Roster, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rosters {
		if r.WeekStart.Equal(weekStart) {
			c := *r
			return &c, false, nil
		}
	}
	r := &models.Roster{ID: m.id(), WeekStart: weekStart, WeekEnd: weekStart.AddDate(0, 0, 6)}
	m.rosters[r.ID] = r
	c := *r
	return &c, true, nil
}

func (m *memStore) GetRosterByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *memStore) GetRosterByWeekStart(_ context.Context, _ repositories.SQLExecutor, weekStart time.Time) (*models.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rosters {
		if r.WeekStart.Equal(weekStart) {
			c := *r
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) GetLatestRoster(ctx context.Context, exec repositories.SQLExecutor) (*models.Roster, error) {
	list, _ := m.ListRosters(ctx, exec)
	if len(list) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &list[0], nil
}

func (m *memStore) ListRosters(_ context.Context, _ repositories.SQLExecutor) ([]models.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Roster
	for _, r := range m.rosters {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

// --- shifts ---

func (m *memStore) CreateShift(_ context.Context, _ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rosters[shift.RosterID]; !ok {
		return nil, repositories.ErrForeignKey
	}
	shift.ID = m.id()
	stored := *shift
	m.shifts[shift.ID] = &stored
	return shift, nil
}

func (m *memStore) withName(s models.Shift) models.Shift {
	if s.StaffID != nil {
		if u, ok := m.users[*s.StaffID]; ok {
			name := u.Username
			s.StaffName = &name
		}
	}
	return s
}

func (m *memStore) GetShiftByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := m.withName(*s)
	return &c, nil
}

func (m *memStore) sortedShifts(keep func(*models.Shift) bool) []models.Shift {
	out := []models.Shift{}
	for _, s := range m.shifts {
		if keep(s) {
			out = append(out, m.withName(*s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) GetShiftsByRoster(_ context.Context, _ repositories.SQLExecutor, rosterID int64) ([]models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedShifts(func(s *models.Shift) bool { return s.RosterID == rosterID }), nil
}

func (m *memStore) GetShifts(_ context.Context, _ repositories.SQLExecutor, staffID *int64) ([]models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedShifts(func(s *models.Shift) bool { return staffID == nil || s.AssignedTo(*staffID) }), nil
}

func (m *memStore) AssignStaff(_ context.Context, _ repositories.SQLExecutor, shiftID, staffID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[shiftID]
	if !ok {
		return repositories.ErrNotFound
	}
	id := staffID
	s.StaffID = &id
	return nil
}

func (m *memStore) DeleteShift(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.shifts, id)
	return nil
}

// --- attendance ---

func (m *memStore) GetOrCreate(_ context.Context, _ repositories.SQLExecutor, staffID, shiftID int64) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attendance {
		if a.StaffID == staffID && a.ShiftID == shiftID {
			c := *a
			return &c, nil
		}
	}
	a := &models.AttendanceRecord{ID: m.id(), StaffID: staffID, ShiftID: shiftID}
	m.attendance[a.ID] = a
	c := *a
	return &c, nil
}

func (m *memStore) setPunch(recordID int64, ts time.Time, out bool) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attendance[recordID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	t := ts
	if out {
		a.TimeOut = &t
	} else {
		a.TimeIn = &t
	}
	c := *a
	return &c, nil
}

func (m *memStore) SetTimeIn(_ context.Context, _ repositories.SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error) {
	return m.setPunch(recordID, ts, false)
}

func (m *memStore) SetTimeOut(_ context.Context, _ repositories.SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error) {
	return m.setPunch(recordID, ts, true)
}

func (m *memStore) sortedAttendance(keep func(*models.AttendanceRecord) bool) []models.AttendanceRecord {
	out := []models.AttendanceRecord{}
	for _, a := range m.attendance {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) GetByShiftIDs(_ context.Context, _ repositories.SQLExecutor, shiftIDs []int64) ([]models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range shiftIDs {
		want[id] = true
	}
	return m.sortedAttendance(func(a *models.AttendanceRecord) bool { return want[a.ShiftID] }), nil
}

func (m *memStore) GetByStaff(_ context.Context, _ repositories.SQLExecutor, staffID int64) ([]models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedAttendance(func(a *models.AttendanceRecord) bool { return a.StaffID == staffID }), nil
}

// --- reports ---

func (m *memStore) CreateReport(_ context.Context, _ repositories.SQLExecutor, report *models.ShiftReport) (*models.ShiftReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = m.id()
	report.CreatedAt = time.Now().UTC()
	stored := *report
	m.reports[report.ID] = &stored
	return report, nil
}

func (m *memStore) GetReportByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.ShiftReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *memStore) ListReportsByRoster(_ context.Context, _ repositories.SQLExecutor, rosterID int64) ([]models.ShiftReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ShiftReport{}
	for _, r := range m.reports {
		if r.RosterID == rosterID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- helpers ---

func (m *memStore) addUser(username string, role models.Role) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com", Role: role}
	_, _ = m.CreateUser(context.Background(), nil, u)
	return u
}

func (m *memStore) rosterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rosters)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	require.NoError(t, err)
	return ts
}

func strPtr(s string) *string { return &s }
