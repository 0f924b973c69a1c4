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

// --- Shift DTOs ---

// ShiftInterval is one start/end pair, ISO-8601 encoded.
type ShiftInterval struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type ScheduleShiftRequest struct {
	StaffID   int64   `json:"staff_id" binding:"required"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	WeekStart *string `json:"week_start"` // YYYY-MM-DD; defaults to the week containing StartTime
}

// ScheduleWeekRequest schedules several shifts for one staff member in a single transaction.
type ScheduleWeekRequest struct {
	StaffID   int64           `json:"staff_id" binding:"required"`
	WeekStart *string         `json:"week_start"`
	Shifts    []ShiftInterval `json:"shifts" binding:"required,min=1,dive"`
}

type AssignStaffRequest struct {
	StaffID int64 `json:"staff_id" binding:"required"`
}

// --- RosterService Interface ---
type RosterService interface {
	ScheduleShift(ctx context.Context, req ScheduleShiftRequest) (*models.Shift, error)
	ScheduleWeek(ctx context.Context, req ScheduleWeekRequest) ([]models.Shift, error)
	ListShifts(ctx context.Context, staffID *int64) ([]models.Shift, error)
	GetShift(ctx context.Context, shiftID int64) (*models.Shift, error)
	AssignStaff(ctx context.Context, shiftID, staffID int64) (*models.Shift, error)
	DeleteShift(ctx context.Context, shiftID int64) error

	// GetRoster returns the roster for the week containing weekStart, or the
	// current week when weekStart is nil. It never creates a roster.
	GetRoster(ctx context.Context, weekStart *time.Time) (*models.RosterView, error)
	GetLatestRoster(ctx context.Context) (*models.RosterView, error)
	GetRosterByID(ctx context.Context, rosterID int64) (*models.RosterView, error)
	ListRosters(ctx context.Context) ([]models.Roster, error)
}

// --- rosterService Implementation ---
type rosterService struct {
	rosterRepo repositories.RosterRepository
	shiftRepo  repositories.ShiftRepository
	userRepo   repositories.UserRepository
	db         *sql.DB
	publisher  events.Publisher
	now        func() time.Time
}

// NewRosterService creates a new instance of RosterService.
func NewRosterService(
	rosterRepo repositories.RosterRepository,
	shiftRepo repositories.ShiftRepository,
	userRepo repositories.UserRepository,
	db *sql.DB,
	publisher events.Publisher,
) RosterService {
	return &rosterService{
		rosterRepo: rosterRepo,
		shiftRepo:  shiftRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
		now:        time.Now,
	}
}

type interval struct {
	start, end time.Time
}

func parseInterval(startStr, endStr string) (interval, error) {
	start, err := utils.ParseDateTime(strings.TrimSpace(startStr))
	if err != nil {
		return interval{}, fmt.Errorf("%w: start time %q", ErrTimeFormat, startStr)
	}
	end, err := utils.ParseDateTime(strings.TrimSpace(endStr))
	if err != nil {
		return interval{}, fmt.Errorf("%w: end time %q", ErrTimeFormat, endStr)
	}
	if !start.Before(end) {
		return interval{}, fmt.Errorf("%w: %s >= %s", ErrShiftValidation, start.Format(utils.DisplayLayout), end.Format(utils.DisplayLayout))
	}
	return interval{start: start, end: end}, nil
}

// parseWeekStart resolves an optional YYYY-MM-DD string to the Monday of its week.
func parseWeekStart(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: week start %q", ErrDateFormat, *s)
	}
	monday := utils.WeekStartOf(d)
	return &monday, nil
}

func (s *rosterService) ScheduleShift(ctx context.Context, req ScheduleShiftRequest) (*models.Shift, error) {
	shifts, err := s.ScheduleWeek(ctx, ScheduleWeekRequest{
		StaffID:   req.StaffID,
		WeekStart: req.WeekStart,
		Shifts:    []ShiftInterval{{StartTime: req.StartTime, EndTime: req.EndTime}},
	})
	if err != nil {
		return nil, err
	}
	return &shifts[0], nil
}

func (s *rosterService) ScheduleWeek(ctx context.Context, req ScheduleWeekRequest) ([]models.Shift, error) {
	if len(req.Shifts) == 0 {
		return nil, fmt.Errorf("%w: at least one shift is required", ErrShiftValidation)
	}
	intervals := make([]interval, 0, len(req.Shifts))
	for _, si := range req.Shifts {
		iv, err := parseInterval(si.StartTime, si.EndTime)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}

	var (
		created    []models.Shift
		newRosters []*models.Roster
	)
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		staff, err := s.userRepo.FindStaffByID(ctx, tx, req.StaffID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrStaffNotFound, req.StaffID)
			}
			return fmt.Errorf("failed to validate staff member: %w", err)
		}

		rosters := make(map[time.Time]*models.Roster)
		for _, iv := range intervals {
			week := utils.WeekStartOf(iv.start)
			if weekStart != nil {
				week = *weekStart
			}
			roster, ok := rosters[week]
			if !ok {
				var isNew bool
				roster, isNew, err = s.rosterRepo.GetOrCreateByWeek(ctx, tx, week)
				if err != nil {
					return fmt.Errorf("failed to resolve roster for week %s: %w", week.Format(utils.DateLayout), err)
				}
				rosters[week] = roster
				if isNew {
					newRosters = append(newRosters, roster)
				}
			}
			if !roster.Contains(iv.start) {
				return fmt.Errorf("%w: %s is not within %s → %s", ErrShiftOutsideWeek,
					iv.start.Format(utils.DisplayLayout), roster.WeekStart.Format(utils.DateLayout), roster.WeekEnd.Format(utils.DateLayout))
			}

			staffID := staff.ID
			shift, err := s.shiftRepo.CreateShift(ctx, tx, &models.Shift{
				RosterID:  roster.ID,
				StaffID:   &staffID,
				StartTime: iv.start,
				EndTime:   iv.end,
			})
			if err != nil {
				return fmt.Errorf("failed to create shift: %w", err)
			}
			name := staff.DisplayName()
			shift.StaffName = &name
			created = append(created, *shift)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range newRosters {
		publish(ctx, s.publisher, events.TypeRosterCreated, r)
	}
	for i := range created {
		publish(ctx, s.publisher, events.TypeShiftScheduled, created[i])
	}
	return created, nil
}

// ListShifts returns shifts ordered by start time, optionally limited to one staff member.
func (s *rosterService) ListShifts(ctx context.Context, staffID *int64) ([]models.Shift, error) {
	if staffID != nil {
		if _, err := s.userRepo.FindStaffByID(ctx, s.db, *staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrStaffNotFound, *staffID)
			}
			return nil, fmt.Errorf("failed to validate staff member: %w", err)
		}
	}
	shifts, err := s.shiftRepo.GetShifts(ctx, s.db, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

func (s *rosterService) GetShift(ctx context.Context, shiftID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(ctx, s.db, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift by ID: %w", err)
	}
	return shift, nil
}

// AssignStaff points the shift at staffID. Assigning the current owner again is a no-op.
func (s *rosterService) AssignStaff(ctx context.Context, shiftID, staffID int64) (*models.Shift, error) {
	var shift *models.Shift
	changed := false
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.shiftRepo.GetShiftByID(ctx, tx, shiftID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrShiftNotFound
			}
			return fmt.Errorf("failed to get shift for assignment: %w", err)
		}
		if _, err := s.userRepo.FindStaffByID(ctx, tx, staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrStaffNotFound, staffID)
			}
			return fmt.Errorf("failed to validate staff member: %w", err)
		}
		if current.AssignedTo(staffID) {
			shift = current
			return nil
		}
		if err := s.shiftRepo.AssignStaff(ctx, tx, shiftID, staffID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrShiftNotFound
			}
			return fmt.Errorf("failed to assign staff: %w", err)
		}
		changed = true
		shift, err = s.shiftRepo.GetShiftByID(ctx, tx, shiftID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		publish(ctx, s.publisher, events.TypeShiftAssigned, shift)
	}
	return shift, nil
}

func (s *rosterService) DeleteShift(ctx context.Context, shiftID int64) error {
	if err := s.shiftRepo.DeleteShift(ctx, s.db, shiftID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

func (s *rosterService) GetRoster(ctx context.Context, weekStart *time.Time) (*models.RosterView, error) {
	ref := s.now().UTC()
	if weekStart != nil {
		ref = *weekStart
	}
	week := utils.WeekStartOf(ref)
	roster, err := s.rosterRepo.GetRosterByWeekStart(ctx, s.db, week)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: week of %s", ErrRosterNotFound, week.Format(utils.DateLayout))
		}
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return s.view(ctx, roster)
}

func (s *rosterService) GetLatestRoster(ctx context.Context) (*models.RosterView, error) {
	roster, err := s.rosterRepo.GetLatestRoster(ctx, s.db)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoRostersExist
		}
		return nil, fmt.Errorf("failed to get latest roster: %w", err)
	}
	return s.view(ctx, roster)
}

func (s *rosterService) GetRosterByID(ctx context.Context, rosterID int64) (*models.RosterView, error) {
	roster, err := s.rosterRepo.GetRosterByID(ctx, s.db, rosterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("failed to get roster by ID: %w", err)
	}
	return s.view(ctx, roster)
}

func (s *rosterService) ListRosters(ctx context.Context) ([]models.Roster, error) {
	rosters, err := s.rosterRepo.ListRosters(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	return rosters, nil
}

func (s *rosterService) view(ctx context.Context, roster *models.Roster) (*models.RosterView, error) {
	shifts, err := s.shiftRepo.GetShiftsByRoster(ctx, s.db, roster.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts for roster %d: %w", roster.ID, err)
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	return &models.RosterView{Roster: *roster, Shifts: shifts}, nil
}
