package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"rostering_backend/internal/models"
	"rostering_backend/internal/repositories"
	"rostering_backend/pkg/utils"
)

// --- Staff DTOs ---
type CreateStaffRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	JobRole  *string `json:"job_role"`
}

type UpdateStaffRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	JobRole  *string `json:"job_role"`
}

// --- StaffService Interface ---
type StaffService interface {
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
	GetStaff(ctx context.Context, staffID int64) (*models.User, error)
	UpdateStaff(ctx context.Context, staffID int64, req UpdateStaffRequest) (*models.User, error)
	DeleteStaff(ctx context.Context, staffID int64) error
}

// --- staffService Implementation ---
type staffService struct {
	userRepo   repositories.UserRepository
	db         *sql.DB
	bcryptCost int
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(userRepo repositories.UserRepository, db *sql.DB, bcryptCost int) StaffService {
	return &staffService{
		userRepo:   userRepo,
		db:         db,
		bcryptCost: bcryptCost,
	}
}

func (s *staffService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.User, error) {
	return registerUser(ctx, s.db, s.userRepo, s.bcryptCost, CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     string(models.RoleStaff),
		JobRole:  req.JobRole,
	})
}

func (s *staffService) ListStaff(ctx context.Context) ([]models.User, error) {
	staff, err := s.userRepo.ListStaff(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *staffService) GetStaff(ctx context.Context, staffID int64) (*models.User, error) {
	staff, err := s.userRepo.FindStaffByID(ctx, s.db, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member by ID: %w", err)
	}
	staff.PasswordHash = ""
	return staff, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, staffID int64, req UpdateStaffRequest) (*models.User, error) {
	staff, err := s.userRepo.FindStaffByID(ctx, s.db, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member for update: %w", err)
	}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrStaffDataValidation)
		}
		staff.Username = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("%w: invalid email %q", ErrStaffDataValidation, email)
		}
		staff.Email = email
	}
	if req.Password != nil {
		if !utils.IsValidPasswordLength(*req.Password, minPasswordLength) {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrStaffDataValidation, minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		staff.PasswordHash = string(hash)
	}
	if req.JobRole != nil {
		staff.JobRole = utils.NewNullString(*req.JobRole)
	}

	updated, err := s.userRepo.UpdateUser(ctx, s.db, staff)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, duplicateUserError(err)
	}
	updated.PasswordHash = ""
	return updated, nil
}

// DeleteStaff removes the account. Their shifts become unassigned and their
// attendance records are removed with them.
func (s *staffService) DeleteStaff(ctx context.Context, staffID int64) error {
	if _, err := s.GetStaff(ctx, staffID); err != nil {
		return err
	}
	if err := s.userRepo.DeleteUser(ctx, s.db, staffID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	return nil
}
