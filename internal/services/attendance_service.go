package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rostering_backend/internal/database"
	"rostering_backend/internal/events"
	"rostering_backend/internal/models"
	"rostering_backend/internal/repositories"
	"rostering_backend/pkg/utils"
)

// PunchRequest is the body of a time-in or time-out call. Timestamp defaults to now.
type PunchRequest struct {
	ShiftID   int64   `json:"shift_id" binding:"required"`
	Timestamp *string `json:"timestamp"`
}

type punchKind int

const (
	punchIn punchKind = iota
	punchOut
)

type AttendanceService interface {
	// MarkTimeIn records (overwriting) the time-in of staffID for shiftID.
	MarkTimeIn(ctx context.Context, staffID int64, req PunchRequest) (*models.AttendanceRecord, error)
	// MarkTimeOut records (overwriting) the time-out of staffID for shiftID.
	MarkTimeOut(ctx context.Context, staffID int64, req PunchRequest) (*models.AttendanceRecord, error)
	ListForStaff(ctx context.Context, staffID int64) ([]models.AttendanceRecord, error)
}

type attendanceService struct {
	attendanceRepo repositories.AttendanceRepository
	shiftRepo      repositories.ShiftRepository
	userRepo       repositories.UserRepository
	db             *sql.DB
	publisher      events.Publisher
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repositories.AttendanceRepository,
	shiftRepo repositories.ShiftRepository,
	userRepo repositories.UserRepository,
	db *sql.DB,
	publisher events.Publisher,
) AttendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		shiftRepo:      shiftRepo,
		userRepo:       userRepo,
		db:             db,
		publisher:      publisher,
		now:            time.Now,
	}
}

func (s *attendanceService) MarkTimeIn(ctx context.Context, staffID int64, req PunchRequest) (*models.AttendanceRecord, error) {
	return s.mark(ctx, staffID, req, punchIn)
}

func (s *attendanceService) MarkTimeOut(ctx context.Context, staffID int64, req PunchRequest) (*models.AttendanceRecord, error) {
	return s.mark(ctx, staffID, req, punchOut)
}

func (s *attendanceService) timestamp(raw *string) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return s.now().UTC(), nil
	}
	ts, err := utils.ParseDateTime(strings.TrimSpace(*raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrTimeFormat, *raw)
	}
	return ts, nil
}

func (s *attendanceService) mark(ctx context.Context, staffID int64, req PunchRequest, kind punchKind) (*models.AttendanceRecord, error) {
	ts, err := s.timestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}

	var record *models.AttendanceRecord
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.userRepo.FindStaffByID(ctx, tx, staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrStaffNotFound, staffID)
			}
			return fmt.Errorf("failed to validate staff member: %w", err)
		}
		shift, err := s.shiftRepo.GetShiftByID(ctx, tx, req.ShiftID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrShiftNotFound, req.ShiftID)
			}
			return fmt.Errorf("failed to get shift: %w", err)
		}
		if shift.StaffID != nil && !shift.AssignedTo(staffID) {
			return ErrShiftNotOwned
		}

		current, err := s.attendanceRepo.GetOrCreate(ctx, tx, staffID, req.ShiftID)
		if err != nil {
			return fmt.Errorf("failed to get attendance record: %w", err)
		}

		switch kind {
		case punchIn:
			if current.TimeOut != nil && ts.After(*current.TimeOut) {
				return fmt.Errorf("%w: time-in %s is after recorded time-out %s", ErrAttendanceValidation,
					ts.Format(utils.DisplayLayout), current.TimeOut.Format(utils.DisplayLayout))
			}
			record, err = s.attendanceRepo.SetTimeIn(ctx, tx, current.ID, ts)
		case punchOut:
			if current.TimeIn != nil && ts.Before(*current.TimeIn) {
				return fmt.Errorf("%w: time-out %s is before recorded time-in %s", ErrAttendanceValidation,
					ts.Format(utils.DisplayLayout), current.TimeIn.Format(utils.DisplayLayout))
			}
			record, err = s.attendanceRepo.SetTimeOut(ctx, tx, current.ID, ts)
		}
		if err != nil {
			return fmt.Errorf("failed to record punch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.TypeAttendanceIn
	if kind == punchOut {
		eventType = events.TypeAttendanceOut
	}
	publish(ctx, s.publisher, eventType, record)
	return record, nil
}

func (s *attendanceService) ListForStaff(ctx context.Context, staffID int64) ([]models.AttendanceRecord, error) {
	records, err := s.attendanceRepo.GetByStaff(ctx, s.db, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}
