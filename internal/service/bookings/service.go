// Package bookings implements the booking lifecycle: validation, conflict
// detection against local bookings and the owner's connected calendar, and
// best-effort mirroring of local bookings as external calendar events.
package bookings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/calendar"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

const upcomingLimit = 5

type Service struct {
	bookings store.BookingRepository
	owners   store.OwnerRepository
	cal      calendar.Port
	log      *slog.Logger

	now func() time.Time
}

func NewService(bookings store.BookingRepository, owners store.OwnerRepository, cal calendar.Port, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		bookings: bookings,
		owners:   owners,
		cal:      cal,
		log:      log.With(slog.String("component", "service.bookings")),
		now:      time.Now,
	}
}

type CreateInput struct {
	IdentityID string
	Title      string
	StartTime  time.Time
	EndTime    time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Booking, error) {
	if in.IdentityID == "" {
		return domain.Booking{}, validationError("identity_id is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Booking{}, validationError("title is required")
	}

	owner, err := s.resolveOwner(ctx, in.IdentityID)
	if err != nil {
		return domain.Booking{}, err
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.Booking{}, ErrInvalidInterval
	}
	if start.Before(s.now().UTC()) {
		return domain.Booking{}, ErrPastInterval
	}

	local, err := s.localConflicts(ctx, owner.ID, start, end, uuid.Nil)
	if err != nil {
		return domain.Booking{}, err
	}
	if len(local) > 0 {
		return domain.Booking{}, &ConflictError{Conflicts: local}
	}
	if s.externalConflict(ctx, owner, start, end, "") {
		return domain.Booking{}, &ConflictError{External: true}
	}

	booking, err := s.bookings.Create(ctx, domain.Booking{
		OwnerID:   owner.ID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, &ConflictError{}
		}
		return domain.Booking{}, err
	}

	if outcome := s.mirrorCreate(ctx, owner, &booking); outcome.attempted && outcome.err != nil {
		s.log.Warn(
			"calendar mirror create failed",
			slog.String("booking_id", booking.ID.String()),
			slog.String("owner_id", owner.ID.String()),
			slog.Any("err", outcome.err),
		)
	}

	return booking, nil
}

func (s *Service) List(ctx context.Context, identityID string) ([]domain.Booking, error) {
	if identityID == "" {
		return nil, validationError("identity_id is required")
	}

	owner, err := s.owners.FindByIdentity(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.Booking{}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.bookings.Find(ctx, owner.ID, store.BookingFilter{})
}

func (s *Service) Upcoming(ctx context.Context, identityID string) ([]domain.Booking, error) {
	if identityID == "" {
		return nil, validationError("identity_id is required")
	}

	owner, err := s.owners.FindByIdentity(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.Booking{}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.bookings.Find(ctx, owner.ID, store.BookingFilter{
		StartsAfter: s.now().UTC(),
		Limit:       upcomingLimit,
	})
}

func (s *Service) Get(ctx context.Context, identityID string, bookingID uuid.UUID) (domain.Booking, error) {
	if identityID == "" {
		return domain.Booking{}, validationError("identity_id is required")
	}
	if bookingID == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}

	owner, err := s.resolveOwner(ctx, identityID)
	if err != nil {
		return domain.Booking{}, err
	}

	return s.findOwned(ctx, owner.ID, bookingID)
}

type UpdateInput struct {
	IdentityID string
	BookingID  uuid.UUID
	Title      *string
	StartTime  *time.Time
	EndTime    *time.Time
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Booking, error) {
	if in.IdentityID == "" {
		return domain.Booking{}, validationError("identity_id is required")
	}
	if in.BookingID == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}

	owner, err := s.resolveOwner(ctx, in.IdentityID)
	if err != nil {
		return domain.Booking{}, err
	}

	existing, err := s.findOwned(ctx, owner.ID, in.BookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	title := existing.Title
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.Booking{}, validationError("title is required")
		}
	}

	start := existing.StartTime
	end := existing.EndTime
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		end = in.EndTime.UTC()
	}
	if !end.After(start) {
		return domain.Booking{}, ErrInvalidInterval
	}

	local, err := s.localConflicts(ctx, owner.ID, start, end, existing.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	if len(local) > 0 {
		return domain.Booking{}, &ConflictError{Conflicts: local}
	}

	// The external check costs a provider round trip, so it only runs when
	// the interval actually moved. The booking's own mirrored event is
	// excluded so it cannot conflict with itself.
	intervalChanged := !start.Equal(existing.StartTime) || !end.Equal(existing.EndTime)
	if intervalChanged && s.externalConflict(ctx, owner, start, end, existing.CalendarEventID) {
		return domain.Booking{}, &ConflictError{External: true}
	}

	updated, err := s.bookings.Update(ctx, owner.ID, existing.ID, store.BookingUpdate{
		Title:     &title,
		StartTime: &start,
		EndTime:   &end,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, &ConflictError{}
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, ErrBookingNotFound
		}
		return domain.Booking{}, err
	}

	if outcome := s.mirrorUpdate(ctx, owner, updated); outcome.attempted && outcome.err != nil {
		s.log.Warn(
			"calendar mirror update failed",
			slog.String("booking_id", updated.ID.String()),
			slog.String("event_id", updated.CalendarEventID),
			slog.String("owner_id", owner.ID.String()),
			slog.Any("err", outcome.err),
		)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, identityID string, bookingID uuid.UUID) (domain.Booking, error) {
	if identityID == "" {
		return domain.Booking{}, validationError("identity_id is required")
	}
	if bookingID == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}

	owner, err := s.resolveOwner(ctx, identityID)
	if err != nil {
		return domain.Booking{}, err
	}

	existing, err := s.findOwned(ctx, owner.ID, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	// Mirror removal happens first but never blocks the local delete; the
	// local store is authoritative.
	if outcome := s.mirrorDelete(ctx, owner, existing); outcome.attempted && outcome.err != nil {
		s.log.Warn(
			"calendar mirror delete failed",
			slog.String("booking_id", existing.ID.String()),
			slog.String("event_id", existing.CalendarEventID),
			slog.String("owner_id", owner.ID.String()),
			slog.Any("err", outcome.err),
		)
	}

	deleted, err := s.bookings.Delete(ctx, owner.ID, existing.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, ErrBookingNotFound
		}
		return domain.Booking{}, err
	}
	return deleted, nil
}

func (s *Service) resolveOwner(ctx context.Context, identityID string) (domain.Owner, error) {
	owner, err := s.owners.FindByIdentity(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Owner{}, ErrOwnerNotFound
	}
	if err != nil {
		return domain.Owner{}, err
	}
	return owner, nil
}

func (s *Service) findOwned(ctx context.Context, ownerID, bookingID uuid.UUID) (domain.Booking, error) {
	booking, err := s.bookings.FindOne(ctx, ownerID, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}
