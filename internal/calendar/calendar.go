// Package calendar defines the port through which the booking engine talks to
// an owner's external calendar. The engine never imports a provider SDK
// directly; the google subpackage implements this port for Google Calendar.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialInvalid marks a call that failed because the stored credential
// was rejected by the provider. Callers degrade rather than fail on it.
var ErrCredentialInvalid = errors.New("calendar credential invalid")

// Event is a provider event as seen by conflict checks. Start/End are nil for
// events without explicit timestamps (all-day entries), which conflict checks
// skip.
type Event struct {
	ID      string
	Summary string
	Start   *time.Time
	End     *time.Time
}

// EventInput describes an event to mirror into the provider.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Tokens is the outcome of an authorization-code exchange.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Port lists and mutates events on one owner's calendar. The credential is the
// owner's stored refresh credential, captured once per operation.
type Port interface {
	ListEvents(ctx context.Context, credential, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, credential, calendarID string, in EventInput) (string, error)
	UpdateEvent(ctx context.Context, credential, calendarID, eventID string, in EventInput) error
	DeleteEvent(ctx context.Context, credential, calendarID, eventID string) error
}

// Connector handles the connection handshake with the provider.
type Connector interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (Tokens, error)
}
