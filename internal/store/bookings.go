package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
)

// BookingFilter narrows a per-owner booking query. Zero values disable the
// corresponding clause.
type BookingFilter struct {
	// ExcludeID drops a single booking from the result, used when a booking
	// is validated against everything but its own prior record.
	ExcludeID uuid.UUID

	// OverlapStart/OverlapEnd select bookings whose [start_time, end_time)
	// interval overlaps the candidate half-open interval. Both must be set
	// together.
	OverlapStart time.Time
	OverlapEnd   time.Time

	// StartsAfter keeps bookings with start_time at or after this instant.
	StartsAfter time.Time

	// Limit caps the number of rows returned, 0 means no cap.
	Limit int
}

// BookingUpdate carries the mutable booking fields. Nil pointers leave the
// stored value untouched.
type BookingUpdate struct {
	Title           *string
	StartTime       *time.Time
	EndTime         *time.Time
	CalendarEventID *string
}

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	Find(ctx context.Context, ownerID uuid.UUID, filter BookingFilter) ([]domain.Booking, error)
	FindOne(ctx context.Context, ownerID, bookingID uuid.UUID) (domain.Booking, error)
	Update(ctx context.Context, ownerID, bookingID uuid.UUID, fields BookingUpdate) (domain.Booking, error)
	Delete(ctx context.Context, ownerID, bookingID uuid.UUID) (domain.Booking, error)
}
