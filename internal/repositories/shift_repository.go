package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rostering_backend/internal/models"
)

// ShiftRepository defines the database operations on shifts.
type ShiftRepository interface {
	CreateShift(ctx context.Context, exec SQLExecutor, shift *models.Shift) (*models.Shift, error)
	GetShiftByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Shift, error)
	GetShiftsByRoster(ctx context.Context, exec SQLExecutor, rosterID int64) ([]models.Shift, error)
	GetShifts(ctx context.Context, exec SQLExecutor, staffID *int64) ([]models.Shift, error)
	AssignStaff(ctx context.Context, exec SQLExecutor, shiftID, staffID int64) error
	DeleteShift(ctx context.Context, exec SQLExecutor, id int64) error
}

type shiftRepository struct{}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository() ShiftRepository {
	return &shiftRepository{}
}

const shiftSelect = `SELECT s.id, s.roster_id, s.staff_id, s.start_time, s.end_time, s.created_at, s.updated_at,
	       u.username AS staff_name
	  FROM shifts s
	  LEFT JOIN users u ON s.staff_id = u.id`

func scanShift(row scanner) (*models.Shift, error) {
	var s models.Shift
	var staffID sql.NullInt64
	var staffName sql.NullString
	if err := row.Scan(&s.ID, &s.RosterID, &staffID, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt, &staffName); err != nil {
		return nil, err
	}
	s.StaffID = int64Ptr(staffID)
	s.StaffName = stringPtr(staffName)
	return &s, nil
}

func (r *shiftRepository) CreateShift(ctx context.Context, exec SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `INSERT INTO shifts (roster_id, staff_id, start_time, end_time, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		shift.RosterID, shift.StaffID, shift.StartTime, shift.EndTime, time.Now().UTC(),
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("creating shift in roster %d", shift.RosterID))
	}
	return shift, nil
}

func (r *shiftRepository) GetShiftByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Shift, error) {
	shift, err := scanShift(exec.QueryRowContext(ctx, shiftSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("getting shift by ID %d", id))
	}
	return shift, nil
}

// GetShiftsByRoster returns the roster's shifts ordered by start time ascending.
func (r *shiftRepository) GetShiftsByRoster(ctx context.Context, exec SQLExecutor, rosterID int64) ([]models.Shift, error) {
	return r.queryShifts(ctx, exec, shiftSelect+` WHERE s.roster_id = $1 ORDER BY s.start_time ASC, s.id ASC`, rosterID)
}

// GetShifts returns all shifts, or only those of staffID, ordered by start time ascending.
func (r *shiftRepository) GetShifts(ctx context.Context, exec SQLExecutor, staffID *int64) ([]models.Shift, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(shiftSelect)

	var args []interface{}
	if staffID != nil {
		queryBuilder.WriteString(` WHERE s.staff_id = $1`)
		args = append(args, *staffID)
	}
	queryBuilder.WriteString(` ORDER BY s.start_time ASC, s.id ASC`)
	return r.queryShifts(ctx, exec, queryBuilder.String(), args...)
}

func (r *shiftRepository) queryShifts(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Shift, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "querying shifts")
	}
	defer rows.Close()

	shifts := []models.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
		}
		shifts = append(shifts, *shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shift rows: %v", ErrDatabaseError, err)
	}
	return shifts, nil
}

func (r *shiftRepository) AssignStaff(ctx context.Context, exec SQLExecutor, shiftID, staffID int64) error {
	query := `UPDATE shifts SET staff_id = $1, updated_at = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, staffID, time.Now().UTC(), shiftID)
	if err != nil {
		return translateError(err, fmt.Sprintf("assigning staff %d to shift %d", staffID, shiftID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shiftRepository) DeleteShift(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return translateError(err, fmt.Sprintf("deleting shift ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
