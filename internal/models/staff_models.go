package models

import "time"

// Roster groups the shifts of one Monday-anchored week.
type Roster struct {
	ID        int64     `json:"id" db:"id"`
	WeekStart time.Time `json:"week_start" db:"week_start"`
	WeekEnd   time.Time `json:"week_end" db:"week_end"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Contains reports whether t falls on a calendar day between WeekStart and WeekEnd inclusive.
func (r *Roster) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.WeekStart.Year(), r.WeekStart.Month(), r.WeekStart.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.WeekEnd.Year(), r.WeekEnd.Month(), r.WeekEnd.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

// Shift is a scheduled work interval. StaffID is nil for unassigned shifts.
type Shift struct {
	ID        int64     `json:"id" db:"id"`
	RosterID  int64     `json:"roster_id" db:"roster_id"`
	StaffID   *int64    `json:"staff_id,omitempty" db:"staff_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	StaffName *string   `json:"staff_name,omitempty"` // joined from users
}

// Duration is the scheduled length of the shift.
func (s *Shift) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// AssignedTo reports whether the shift belongs to staffID.
func (s *Shift) AssignedTo(staffID int64) bool {
	return s.StaffID != nil && *s.StaffID == staffID
}

// AttendanceRecord holds the punches of one staff member against one shift.
type AttendanceRecord struct {
	ID        int64      `json:"id" db:"id"`
	StaffID   int64      `json:"staff_id" db:"staff_id"`
	ShiftID   int64      `json:"shift_id" db:"shift_id"`
	TimeIn    *time.Time `json:"time_in,omitempty" db:"time_in"`
	TimeOut   *time.Time `json:"time_out,omitempty" db:"time_out"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Complete reports whether both punches are present.
func (a *AttendanceRecord) Complete() bool {
	return a.TimeIn != nil && a.TimeOut != nil
}

// Hours worked, or zero if a punch is missing. Out-of-order punches count as zero.
func (a *AttendanceRecord) Hours() float64 {
	if !a.Complete() {
		return 0
	}
	h := a.TimeOut.Sub(*a.TimeIn).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// RosterView is a roster together with its shifts ordered by start time.
type RosterView struct {
	Roster
	Shifts []Shift `json:"shifts"`
}
