// Package events publishes domain events to RabbitMQ. Publishing is
// best-effort: callers log failures and carry on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeRosterCreated   = "roster.created"
	TypeShiftScheduled  = "shift.scheduled"
	TypeShiftAssigned   = "shift.assigned"
	TypeAttendanceIn    = "attendance.time_in"
	TypeAttendanceOut   = "attendance.time_out"
	TypeReportGenerated = "report.generated"
)

const (
	defaultContentType    = "application/json"
	defaultPublishTimeout = 5 * time.Second
)

// Event is the envelope written to the broker. Type doubles as the routing key.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current UTC time.
func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
