package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (week starts, report headers).
const DateLayout = "2006-01-02"

// DisplayLayout is used for punch timestamps in rendered reports.
const DisplayLayout = "2006-01-02 15:04"

// ErrInvalidTimeFormat is returned by ParseDateTime and ParseDate.
var ErrInvalidTimeFormat = errors.New("invalid date/time format")

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// WeekBounds returns the Monday and Sunday (both at midnight, in ref's location)
// of the week containing ref.
func WeekBounds(ref time.Time) (time.Time, time.Time) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	// time.Weekday has Sunday = 0; shift so Monday = 0.
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// WeekStartOf is shorthand for the first value of WeekBounds.
func WeekStartOf(ref time.Time) time.Time {
	start, _ := WeekBounds(ref)
	return start
}

// IsMonday reports whether d falls on a Monday.
func IsMonday(d time.Time) bool {
	return d.Weekday() == time.Monday
}

// ParseDateTime accepts ISO-8601 timestamps with or without an offset.
// Values without an offset are taken as UTC. The result is always in UTC:
// the timestamp columns store wall-clock time only, so an offset that
// reached the database would be dropped.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DDTHH:MM)", ErrInvalidTimeFormat, s)
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidTimeFormat, s)
	}
	return t, nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
