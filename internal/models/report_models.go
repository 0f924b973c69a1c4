package models

import "time"

// ShiftReport is a persisted snapshot of a roster's attendance summary.
type ShiftReport struct {
	ID        int64     `json:"id" db:"id"`
	RosterID  int64     `json:"roster_id" db:"roster_id"`
	WeekStart time.Time `json:"week_start" db:"week_start"`
	WeekEnd   time.Time `json:"week_end" db:"week_end"`
	Summary   string    `json:"summary" db:"summary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
