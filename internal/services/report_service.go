package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rostering_backend/internal/database"
	"rostering_backend/internal/events"
	"rostering_backend/internal/models"
	"rostering_backend/internal/reports"
	"rostering_backend/internal/repositories"
	"rostering_backend/pkg/utils"
)

type ReportService interface {
	// GenerateReport renders and stores a new report for the roster. Every call inserts a new row.
	GenerateReport(ctx context.Context, rosterID int64) (*models.ShiftReport, error)
	GenerateReportForWeek(ctx context.Context, weekStart time.Time) (*models.ShiftReport, error)
	GenerateLatestReport(ctx context.Context) (*models.ShiftReport, error)
	GetReport(ctx context.Context, reportID int64) (*models.ShiftReport, error)
	ListReports(ctx context.Context, rosterID int64) ([]models.ShiftReport, error)
	// BuildSummary aggregates the roster without persisting anything.
	BuildSummary(ctx context.Context, rosterID int64) (*reports.Summary, error)
}

type reportService struct {
	rosterRepo     repositories.RosterRepository
	shiftRepo      repositories.ShiftRepository
	attendanceRepo repositories.AttendanceRepository
	userRepo       repositories.UserRepository
	reportRepo     repositories.ReportRepository
	db             *sql.DB
	publisher      events.Publisher
}

func NewReportService(
	rosterRepo repositories.RosterRepository,
	shiftRepo repositories.ShiftRepository,
	attendanceRepo repositories.AttendanceRepository,
	userRepo repositories.UserRepository,
	reportRepo repositories.ReportRepository,
	db *sql.DB,
	publisher events.Publisher,
) ReportService {
	return &reportService{
		rosterRepo:     rosterRepo,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		reportRepo:     reportRepo,
		db:             db,
		publisher:      publisher,
	}
}

func (s *reportService) GenerateReport(ctx context.Context, rosterID int64) (*models.ShiftReport, error) {
	var report *models.ShiftReport
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		roster, err := s.rosterRepo.GetRosterByID(ctx, tx, rosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrRosterNotFound, rosterID)
			}
			return fmt.Errorf("failed to get roster: %w", err)
		}
		report, err = s.generate(ctx, tx, roster)
		return err
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, events.TypeReportGenerated, reportEvent(report))
	return report, nil
}

func (s *reportService) GenerateReportForWeek(ctx context.Context, weekStart time.Time) (*models.ShiftReport, error) {
	week := utils.WeekStartOf(weekStart)
	roster, err := s.rosterRepo.GetRosterByWeekStart(ctx, s.db, week)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: week of %s", ErrRosterNotFound, week.Format(utils.DateLayout))
		}
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return s.GenerateReport(ctx, roster.ID)
}

func (s *reportService) GenerateLatestReport(ctx context.Context) (*models.ShiftReport, error) {
	roster, err := s.rosterRepo.GetLatestRoster(ctx, s.db)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoRostersExist
		}
		return nil, fmt.Errorf("failed to get latest roster: %w", err)
	}
	return s.GenerateReport(ctx, roster.ID)
}

func (s *reportService) generate(ctx context.Context, tx *sql.Tx, roster *models.Roster) (*models.ShiftReport, error) {
	summary, err := s.summarize(ctx, tx, roster)
	if err != nil {
		return nil, err
	}
	report, err := s.reportRepo.CreateReport(ctx, tx, &models.ShiftReport{
		RosterID:  roster.ID,
		WeekStart: roster.WeekStart,
		WeekEnd:   roster.WeekEnd,
		Summary:   reports.Render(*summary),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

// summarize loads everything the aggregator needs for roster.
func (s *reportService) summarize(ctx context.Context, exec repositories.SQLExecutor, roster *models.Roster) (*reports.Summary, error) {
	shifts, err := s.shiftRepo.GetShiftsByRoster(ctx, exec, roster.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts for roster %d: %w", roster.ID, err)
	}
	shiftIDs := make([]int64, 0, len(shifts))
	for _, sh := range shifts {
		shiftIDs = append(shiftIDs, sh.ID)
	}

	records, err := s.attendanceRepo.GetByShiftIDs(ctx, exec, shiftIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance for roster %d: %w", roster.ID, err)
	}

	seen := make(map[int64]bool)
	staffIDs := make([]int64, 0)
	for _, rec := range records {
		if !seen[rec.StaffID] {
			seen[rec.StaffID] = true
			staffIDs = append(staffIDs, rec.StaffID)
		}
	}
	staff, err := s.userRepo.FindUsersByIDs(ctx, exec, staffIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staff names: %w", err)
	}

	summary := reports.Build(*roster, shifts, records, staff)
	return &summary, nil
}

func (s *reportService) GetReport(ctx context.Context, reportID int64) (*models.ShiftReport, error) {
	report, err := s.reportRepo.GetReportByID(ctx, s.db, reportID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func (s *reportService) ListReports(ctx context.Context, rosterID int64) ([]models.ShiftReport, error) {
	if _, err := s.rosterRepo.GetRosterByID(ctx, s.db, rosterID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrRosterNotFound, rosterID)
		}
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	list, err := s.reportRepo.ListReportsByRoster(ctx, s.db, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return list, nil
}

func (s *reportService) BuildSummary(ctx context.Context, rosterID int64) (*reports.Summary, error) {
	roster, err := s.rosterRepo.GetRosterByID(ctx, s.db, rosterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrRosterNotFound, rosterID)
		}
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return s.summarize(ctx, s.db, roster)
}

type reportGenerated struct {
	ReportID  int64  `json:"report_id"`
	RosterID  int64  `json:"roster_id"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}

func reportEvent(r *models.ShiftReport) reportGenerated {
	return reportGenerated{
		ReportID:  r.ID,
		RosterID:  r.RosterID,
		WeekStart: r.WeekStart.Format(utils.DateLayout),
		WeekEnd:   r.WeekEnd.Format(utils.DateLayout),
	}
}
