package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rostering_backend/internal/models"
)

// AttendanceRepository defines the database operations on punch records.
type AttendanceRepository interface {
	// GetOrCreate returns the record for (staffID, shiftID), inserting an empty one if absent.
	GetOrCreate(ctx context.Context, exec SQLExecutor, staffID, shiftID int64) (*models.AttendanceRecord, error)
	SetTimeIn(ctx context.Context, exec SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error)
	SetTimeOut(ctx context.Context, exec SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error)
	GetByShiftIDs(ctx context.Context, exec SQLExecutor, shiftIDs []int64) ([]models.AttendanceRecord, error)
	GetByStaff(ctx context.Context, exec SQLExecutor, staffID int64) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct{}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository() AttendanceRepository {
	return &attendanceRepository{}
}

const attendanceColumns = `id, staff_id, shift_id, time_in, time_out, created_at, updated_at`

func scanAttendance(row scanner) (*models.AttendanceRecord, error) {
	var a models.AttendanceRecord
	var in, out sql.NullTime
	if err := row.Scan(&a.ID, &a.StaffID, &a.ShiftID, &in, &out, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.TimeIn = timePtr(in)
	a.TimeOut = timePtr(out)
	return &a, nil
}

// GetOrCreate uses the attendance_records_staff_shift_key constraint so concurrent
// callers for the same pair converge on a single row.
func (r *attendanceRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, staffID, shiftID int64) (*models.AttendanceRecord, error) {
	insert := `INSERT INTO attendance_records (staff_id, shift_id, created_at, updated_at)
	           VALUES ($1, $2, $3, $3)
	           ON CONFLICT (staff_id, shift_id) DO NOTHING
	           RETURNING ` + attendanceColumns
	record, err := scanAttendance(exec.QueryRowContext(ctx, insert, staffID, shiftID, time.Now().UTC()))
	if err == nil {
		return record, nil
	}
	if translated := translateError(err, "creating attendance record"); !errors.Is(translated, ErrNotFound) {
		return nil, translated
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE staff_id = $1 AND shift_id = $2`
	record, err = scanAttendance(exec.QueryRowContext(ctx, query, staffID, shiftID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("getting attendance for staff %d shift %d", staffID, shiftID))
	}
	return record, nil
}

func (r *attendanceRepository) SetTimeIn(ctx context.Context, exec SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error) {
	return r.setPunch(ctx, exec, "time_in", recordID, ts)
}

func (r *attendanceRepository) SetTimeOut(ctx context.Context, exec SQLExecutor, recordID int64, ts time.Time) (*models.AttendanceRecord, error) {
	return r.setPunch(ctx, exec, "time_out", recordID, ts)
}

// setPunch overwrites one punch column; column is never user input.
func (r *attendanceRepository) setPunch(ctx context.Context, exec SQLExecutor, column string, recordID int64, ts time.Time) (*models.AttendanceRecord, error) {
	query := `UPDATE attendance_records SET ` + column + ` = $1, updated_at = $2
	          WHERE id = $3
	          RETURNING ` + attendanceColumns
	record, err := scanAttendance(exec.QueryRowContext(ctx, query, ts, time.Now().UTC(), recordID))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("setting %s on attendance record %d", column, recordID))
	}
	return record, nil
}

// GetByShiftIDs returns the records referencing any of shiftIDs, ordered by id.
func (r *attendanceRepository) GetByShiftIDs(ctx context.Context, exec SQLExecutor, shiftIDs []int64) ([]models.AttendanceRecord, error) {
	if len(shiftIDs) == 0 {
		return []models.AttendanceRecord{}, nil
	}
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE shift_id = ANY($1) ORDER BY id ASC`
	return r.queryRecords(ctx, exec, query, pq.Array(shiftIDs))
}

// GetByStaff returns one staff member's records, newest first.
func (r *attendanceRepository) GetByStaff(ctx context.Context, exec SQLExecutor, staffID int64) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE staff_id = $1 ORDER BY id DESC`
	return r.queryRecords(ctx, exec, query, staffID)
}

func (r *attendanceRepository) queryRecords(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.AttendanceRecord, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "querying attendance records")
	}
	defer rows.Close()

	records := []models.AttendanceRecord{}
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning attendance record: %v", ErrDatabaseError, err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating attendance rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}
