package authclient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSessionVerified  ActivityEventType = "session.verified"
	ActivityEventSessionRejected  ActivityEventType = "session.rejected"
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventLogout           ActivityEventType = "auth.logout"
	ActivityEventAccountDeleted   ActivityEventType = "account.deleted"
	ActivityEventCredentialPruned ActivityEventType = "credential.pruned"
)

// ActivityEvent captures audit-friendly information about a session
// lifecycle action.
type ActivityEvent struct {
	ID         string
	EventType  ActivityEventType
	UserID     string
	FromStatus Status
	ToStatus   Status
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged by the emitter, never propagated.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func newActivityEvent(eventType ActivityEventType, from, to Status) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		FromStatus: from,
		ToStatus:   to,
	}
}
