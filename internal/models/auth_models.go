package models

import (
	"strings"
	"time"
)

// Role discriminates the two kinds of account sharing the users table.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// ParseRole normalises user input ("Admin", " staff ") into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is an account. Admins and staff share the id space; JobRole is only
// meaningful for staff (e.g. "Cook").
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	JobRole      *string   `json:"job_role,omitempty" db:"job_role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the account has the admin variant.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsStaff reports whether the account has the staff variant.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}

// DisplayName is the label used in rosters and reports.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return u.Username
}

// Credentials for login request. Role optionally restricts the login to one account kind.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role,omitempty"`
}
