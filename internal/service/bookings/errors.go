package bookings

import (
	"errors"

	"bookly/backend/internal/domain"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	ErrOwnerNotFound   = errors.New("owner not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidInterval = errors.New("end_time must be after start_time")
	ErrPastInterval    = errors.New("start_time must not be in the past")
)

// ConflictError reports an overlap with existing bookings or with the owner's
// connected calendar. Local conflicts are itemized; external conflicts are a
// flag only, since the provider is authoritative for its own event details.
type ConflictError struct {
	External  bool
	Conflicts []domain.Booking
}

func (e *ConflictError) Error() string {
	if e.External {
		return "time slot conflicts with the connected calendar"
	}
	return "time slot conflicts with an existing booking"
}
