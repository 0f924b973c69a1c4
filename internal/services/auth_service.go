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

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// CreateUserRequest DTO
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     string  `json:"role" binding:"required"`
	JobRole  *string `json:"job_role"` // staff only, e.g. "Cook"
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	userRepo   repositories.UserRepository
	db         *sql.DB
	tokens     *utils.TokenManager
	bcryptCost int
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository, db *sql.DB, tokens *utils.TokenManager, bcryptCost int) AuthService {
	return &authService{
		userRepo:   userRepo,
		db:         db,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Login checks the password and, when creds.Role is set, that the account has that role.
func (s *authService) Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, s.db, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if creds.Role != "" {
		role, ok := models.ParseRole(creds.Role)
		if !ok || role != user.Role {
			return nil, ErrInvalidCredentials
		}
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	user.PasswordHash = ""
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	return registerUser(ctx, s.db, s.userRepo, s.bcryptCost, req)
}

// registerUser validates req, hashes the password and inserts the account.
// Shared with the staff service.
func registerUser(ctx context.Context, exec repositories.SQLExecutor, repo repositories.UserRepository, cost int, req CreateUserRequest) (*models.User, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}
	username := strings.TrimSpace(req.Username)
	if utils.IsEmpty(username) {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrStaffDataValidation)
	}
	email := strings.TrimSpace(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email %q", ErrStaffDataValidation, email)
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrStaffDataValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if role == models.RoleStaff && req.JobRole != nil {
		user.JobRole = utils.NewNullString(*req.JobRole)
	}

	created, err := repo.CreateUser(ctx, exec, user)
	if err != nil {
		return nil, duplicateUserError(err)
	}
	created.PasswordHash = ""
	return created, nil
}

// duplicateUserError maps a unique violation on users onto the matching conflict error.
func duplicateUserError(err error) error {
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if strings.Contains(err.Error(), "users_email_key") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}
