package services

import (
	"context"
	"errors"

	"rostering_backend/internal/events"
	"rostering_backend/pkg/utils"
)

// Error categories. Every error returned by a service either wraps one of
// these or is an unexpected failure (500).
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrStaffNotFound        = newError(ErrNotFound, "staff member not found")
	ErrShiftNotFound        = newError(ErrNotFound, "shift not found")
	ErrRosterNotFound       = newError(ErrNotFound, "roster not found")
	ErrReportNotFound       = newError(ErrNotFound, "report not found")
	ErrNoRostersExist       = newError(ErrNotFound, "no roster has been created yet")
	ErrShiftValidation      = newError(ErrValidation, "shift start time must be before end time")
	ErrShiftOutsideWeek     = newError(ErrValidation, "shift start time falls outside the roster week")
	ErrTimeFormat           = newError(ErrValidation, "invalid time format, use RFC3339 or YYYY-MM-DDTHH:MM")
	ErrDateFormat           = newError(ErrValidation, "invalid date format, use YYYY-MM-DD")
	ErrAttendanceValidation = newError(ErrValidation, "time-out cannot be before time-in")
	ErrStaffDataValidation  = newError(ErrValidation, "staff data validation error")
	ErrInvalidRole          = newError(ErrValidation, "role must be admin or staff")
	ErrUsernameExists       = newError(ErrConflict, "username already exists")
	ErrEmailExists          = newError(ErrConflict, "email already exists")
	ErrInvalidCredentials   = newError(ErrUnauthorized, "invalid username or password")
	ErrShiftNotOwned        = newError(ErrForbidden, "shift is assigned to another staff member")
)

type serviceError struct {
	category error
	msg      string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.category }

func newError(category error, msg string) error {
	return &serviceError{category: category, msg: msg}
}

// publish sends an event without letting a broker failure affect the caller.
func publish(ctx context.Context, pub events.Publisher, eventType string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events.New(eventType, payload)); err != nil {
		utils.LogWarn(err, "Failed to publish "+eventType+" event")
	}
}
