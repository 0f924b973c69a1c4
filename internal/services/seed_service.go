package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rostering_backend/internal/database"
	"rostering_backend/internal/models"
	"rostering_backend/internal/repositories"
	"rostering_backend/pkg/utils"
)

const (
	seedRosterWeeks = 5
	seedShiftLength = 8 * time.Hour
)

type seedAccount struct {
	username, password string
	role               models.Role
	jobRole            string
}

var seedAccounts = []seedAccount{
	{"admin1", "adminpass1", models.RoleAdmin, ""},
	{"admin2", "adminpass2", models.RoleAdmin, ""},
	{"alice", "alicepass", models.RoleStaff, "Cashier"},
	{"bob", "bobpass", models.RoleStaff, "Cook"},
	{"carol", "carolpass", models.RoleStaff, "Waiter"},
	{"dave", "davepass", models.RoleStaff, "Cleaner"},
	{"eve", "evepass", models.RoleStaff, "Bartender"},
	{"frank", "frankpass", models.RoleStaff, "Security"},
}

// SeedResult counts what Seed inserted.
type SeedResult struct {
	Admins     int `json:"admins"`
	Staff      int `json:"staff"`
	Rosters    int `json:"rosters"`
	Shifts     int `json:"shifts"`
	Attendance int `json:"attendance"`
}

// SeedService fills an empty database with demo accounts, the current and
// previous four weekly rosters, one 8h shift per staff member per roster and
// randomised attendance (full, late, absent, early leave).
type SeedService struct {
	userRepo       repositories.UserRepository
	rosterRepo     repositories.RosterRepository
	shiftRepo      repositories.ShiftRepository
	attendanceRepo repositories.AttendanceRepository
	db             *sql.DB
	bcryptCost     int
	rng            *rand.Rand
	now            func() time.Time
}

func NewSeedService(
	userRepo repositories.UserRepository,
	rosterRepo repositories.RosterRepository,
	shiftRepo repositories.ShiftRepository,
	attendanceRepo repositories.AttendanceRepository,
	db *sql.DB,
	bcryptCost int,
) *SeedService {
	return &SeedService{
		userRepo:       userRepo,
		rosterRepo:     rosterRepo,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		db:             db,
		bcryptCost:     bcryptCost,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            time.Now,
	}
}

func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var staff []*models.User
		for _, acc := range seedAccounts {
			hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), s.bcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", acc.username, err)
			}
			user := &models.User{
				Username:     acc.username,
				Email:        acc.username + "@example.com",
				PasswordHash: string(hash),
				Role:         acc.role,
				JobRole:      utils.NewNullString(acc.jobRole),
			}
			if _, err := s.userRepo.CreateUser(ctx, tx, user); err != nil {
				return duplicateUserError(err)
			}
			if user.IsStaff() {
				staff = append(staff, user)
				result.Staff++
			} else {
				result.Admins++
			}
		}

		current := utils.WeekStartOf(s.now().UTC())
		for i := 0; i < seedRosterWeeks; i++ {
			roster, _, err := s.rosterRepo.GetOrCreateByWeek(ctx, tx, current.AddDate(0, 0, -7*i))
			if err != nil {
				return fmt.Errorf("failed to create roster: %w", err)
			}
			result.Rosters++

			for _, member := range staff {
				if err := s.seedShift(ctx, tx, roster, member.ID); err != nil {
					return err
				}
				result.Shifts++
				result.Attendance++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Database seeded", map[string]interface{}{
		"admins": result.Admins, "staff": result.Staff, "rosters": result.Rosters, "shifts": result.Shifts,
	})
	return result, nil
}

func (s *SeedService) seedShift(ctx context.Context, tx *sql.Tx, roster *models.Roster, staffID int64) error {
	start := roster.WeekStart.AddDate(0, 0, s.rng.Intn(7)).Add(time.Duration(8+s.rng.Intn(7)) * time.Hour)
	end := start.Add(seedShiftLength)

	shift, err := s.shiftRepo.CreateShift(ctx, tx, &models.Shift{
		RosterID:  roster.ID,
		StaffID:   &staffID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}

	record, err := s.attendanceRepo.GetOrCreate(ctx, tx, staffID, shift.ID)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	in, out, present := s.randomPunches(start, end)
	if !present {
		return nil
	}
	if _, err := s.attendanceRepo.SetTimeIn(ctx, tx, record.ID, in); err != nil {
		return fmt.Errorf("failed to seed time-in: %w", err)
	}
	if _, err := s.attendanceRepo.SetTimeOut(ctx, tx, record.ID, out); err != nil {
		return fmt.Errorf("failed to seed time-out: %w", err)
	}
	return nil
}

func (s *SeedService) minutes(lo, hi int) time.Duration {
	return time.Duration(lo+s.rng.Intn(hi-lo+1)) * time.Minute
}

// randomPunches picks one of four attendance patterns. present is false for an absence.
func (s *SeedService) randomPunches(start, end time.Time) (in, out time.Time, present bool) {
	switch s.rng.Intn(4) {
	case 0: // full
		return start.Add(s.minutes(0, 10)), end.Add(-s.minutes(0, 10)), true
	case 1: // late
		return start.Add(s.minutes(15, 60)), end.Add(-s.minutes(0, 10)), true
	case 2: // early leave
		return start.Add(s.minutes(0, 10)), end.Add(-time.Duration(1+s.rng.Intn(3)) * time.Hour), true
	default: // absent
		return time.Time{}, time.Time{}, false
	}
}
