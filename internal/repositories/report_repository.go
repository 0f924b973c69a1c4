package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rostering_backend/internal/models"
	"rostering_backend/pkg/utils"
)

// ReportRepository defines the database operations on persisted shift reports.
type ReportRepository interface {
	CreateReport(ctx context.Context, exec SQLExecutor, report *models.ShiftReport) (*models.ShiftReport, error)
	GetReportByID(ctx context.Context, exec SQLExecutor, id int64) (*models.ShiftReport, error)
	ListReportsByRoster(ctx context.Context, exec SQLExecutor, rosterID int64) ([]models.ShiftReport, error)
}

type reportRepository struct{}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

const reportColumns = `id, roster_id, week_start, week_end, summary, created_at`

func scanReport(row scanner) (*models.ShiftReport, error) {
	var rep models.ShiftReport
	var summary sql.NullString
	if err := row.Scan(&rep.ID, &rep.RosterID, &rep.WeekStart, &rep.WeekEnd, &summary, &rep.CreatedAt); err != nil {
		return nil, err
	}
	rep.Summary = summary.String
	return &rep, nil
}

// CreateReport always inserts a new row; reports for a roster accumulate.
func (r *reportRepository) CreateReport(ctx context.Context, exec SQLExecutor, report *models.ShiftReport) (*models.ShiftReport, error) {
	query := `INSERT INTO shift_reports (roster_id, week_start, week_end, summary, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		report.RosterID, utils.DateOnly(report.WeekStart), utils.DateOnly(report.WeekEnd), report.Summary, time.Now().UTC(),
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("creating report for roster %d", report.RosterID))
	}
	return report, nil
}

func (r *reportRepository) GetReportByID(ctx context.Context, exec SQLExecutor, id int64) (*models.ShiftReport, error) {
	query := `SELECT ` + reportColumns + ` FROM shift_reports WHERE id = $1`
	rep, err := scanReport(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("getting report by ID %d", id))
	}
	return rep, nil
}

// ListReportsByRoster returns the roster's reports, newest first.
func (r *reportRepository) ListReportsByRoster(ctx context.Context, exec SQLExecutor, rosterID int64) ([]models.ShiftReport, error) {
	query := `SELECT ` + reportColumns + ` FROM shift_reports WHERE roster_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := exec.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, translateError(err, "querying reports")
	}
	defer rows.Close()

	reports := []models.ShiftReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning report: %v", ErrDatabaseError, err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating report rows: %v", ErrDatabaseError, err)
	}
	return reports, nil
}
