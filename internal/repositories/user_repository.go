package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rostering_backend/internal/models"
)

// UserRepository defines the database operations on accounts (admins and staff).
type UserRepository interface {
	CreateUser(ctx context.Context, exec SQLExecutor, user *models.User) (*models.User, error)
	FindUserByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error)
	FindUserByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error)
	FindStaffByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error)
	FindUsersByIDs(ctx context.Context, exec SQLExecutor, ids []int64) (map[int64]*models.User, error)
	ListStaff(ctx context.Context, exec SQLExecutor) ([]models.User, error)
	UpdateUser(ctx context.Context, exec SQLExecutor, user *models.User) (*models.User, error)
	DeleteUser(ctx context.Context, exec SQLExecutor, id int64) error
}

type userRepository struct{}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `id, username, email, password_hash, role, job_role, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var role string
	var jobRole sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &jobRole, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.JobRole = stringPtr(jobRole)
	return &u, nil
}

// CreateUser inserts a new account. PasswordHash must already be set.
func (r *userRepository) CreateUser(ctx context.Context, exec SQLExecutor, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, email, password_hash, role, job_role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          RETURNING id, created_at, updated_at`

	now := time.Now().UTC()
	err := exec.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, string(user.Role), user.JobRole, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "creating user "+user.Username)
	}
	return user, nil
}

// FindUserByUsername returns the account including its password hash.
func (r *userRepository) FindUserByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(exec.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, translateError(err, "finding user by username "+username)
	}
	return u, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("finding user by ID %d", id))
	}
	return u, nil
}

// FindStaffByID is FindUserByID restricted to the staff variant.
func (r *userRepository) FindStaffByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND role = 'staff'`
	u, err := scanUser(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("finding staff by ID %d", id))
	}
	return u, nil
}

// FindUsersByIDs loads the given accounts keyed by id. Missing ids are simply absent.
func (r *userRepository) FindUsersByIDs(ctx context.Context, exec SQLExecutor, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := exec.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, translateError(err, "querying users by IDs")
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}

// ListStaff returns every staff account ordered by username.
func (r *userRepository) ListStaff(ctx context.Context, exec SQLExecutor) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'staff' ORDER BY username ASC`
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError(err, "querying staff")
	}
	defer rows.Close()

	staff := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning staff: %v", ErrDatabaseError, err)
		}
		staff = append(staff, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return staff, nil
}

// UpdateUser writes username, email, password hash and job role.
func (r *userRepository) UpdateUser(ctx context.Context, exec SQLExecutor, user *models.User) (*models.User, error) {
	query := `UPDATE users SET
	            username = $1, email = $2, password_hash = $3, job_role = $4, updated_at = $5
	          WHERE id = $6
	          RETURNING updated_at`

	user.UpdatedAt = time.Now().UTC()
	err := exec.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.JobRole, user.UpdatedAt, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("updating user ID %d", user.ID))
	}
	return user, nil
}

func (r *userRepository) DeleteUser(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err, fmt.Sprintf("deleting user ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
