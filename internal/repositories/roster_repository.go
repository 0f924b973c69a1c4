package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rostering_backend/internal/models"
	"rostering_backend/pkg/utils"
)

// RosterRepository defines the database operations on weekly rosters.
type RosterRepository interface {
	// GetOrCreateByWeek returns the roster for weekStart, inserting it if absent.
	// created reports whether this call inserted the row.
	GetOrCreateByWeek(ctx context.Context, exec SQLExecutor, weekStart time.Time) (roster *models.Roster, created bool, err error)
	GetRosterByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Roster, error)
	GetRosterByWeekStart(ctx context.Context, exec SQLExecutor, weekStart time.Time) (*models.Roster, error)
	GetLatestRoster(ctx context.Context, exec SQLExecutor) (*models.Roster, error)
	ListRosters(ctx context.Context, exec SQLExecutor) ([]models.Roster, error)
}

type rosterRepository struct{}

// NewRosterRepository creates a new instance of RosterRepository.
func NewRosterRepository() RosterRepository {
	return &rosterRepository{}
}

const rosterColumns = `id, week_start, week_end, created_at`

func scanRoster(row scanner) (*models.Roster, error) {
	var r models.Roster
	if err := row.Scan(&r.ID, &r.WeekStart, &r.WeekEnd, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrCreateByWeek relies on the rosters_week_start_key constraint: a losing
// concurrent insert does nothing and the row is re-selected instead.
func (r *rosterRepository) GetOrCreateByWeek(ctx context.Context, exec SQLExecutor, weekStart time.Time) (*models.Roster, bool, error) {
	start := utils.DateOnly(weekStart)
	end := start.AddDate(0, 0, 6)

	insert := `INSERT INTO rosters (week_start, week_end, created_at)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (week_start) DO NOTHING
	           RETURNING ` + rosterColumns
	roster, err := scanRoster(exec.QueryRowContext(ctx, insert, start, end, time.Now().UTC()))
	if err == nil {
		return roster, true, nil
	}
	if translated := translateError(err, "creating roster"); !errors.Is(translated, ErrNotFound) {
		return nil, false, translated
	}

	roster, err = r.GetRosterByWeekStart(ctx, exec, start)
	if err != nil {
		return nil, false, err
	}
	return roster, false, nil
}

func (r *rosterRepository) GetRosterByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Roster, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE id = $1`
	roster, err := scanRoster(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("getting roster by ID %d", id))
	}
	return roster, nil
}

func (r *rosterRepository) GetRosterByWeekStart(ctx context.Context, exec SQLExecutor, weekStart time.Time) (*models.Roster, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE week_start = $1`
	roster, err := scanRoster(exec.QueryRowContext(ctx, query, utils.DateOnly(weekStart)))
	if err != nil {
		return nil, translateError(err, "getting roster for week "+weekStart.Format(utils.DateLayout))
	}
	return roster, nil
}

// GetLatestRoster returns the roster with the most recent week_start.
func (r *rosterRepository) GetLatestRoster(ctx context.Context, exec SQLExecutor) (*models.Roster, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters ORDER BY week_start DESC LIMIT 1`
	roster, err := scanRoster(exec.QueryRowContext(ctx, query))
	if err != nil {
		return nil, translateError(err, "getting latest roster")
	}
	return roster, nil
}

// ListRosters returns all rosters, newest week first.
func (r *rosterRepository) ListRosters(ctx context.Context, exec SQLExecutor) ([]models.Roster, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters ORDER BY week_start DESC`
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError(err, "querying rosters")
	}
	defer rows.Close()

	rosters := []models.Roster{}
	for rows.Next() {
		roster, err := scanRoster(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning roster: %v", ErrDatabaseError, err)
		}
		rosters = append(rosters, *roster)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating roster rows: %v", ErrDatabaseError, err)
	}
	return rosters, nil
}
