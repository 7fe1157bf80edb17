package bookings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// ConflictCheck is the result of a conflict probe for a candidate interval.
// Conflicts itemizes overlapping local bookings; ExternalConflict is a flag
// only.
type ConflictCheck struct {
	HasConflicts     bool             `json:"hasConflicts"`
	Conflicts        []domain.Booking `json:"conflicts"`
	ExternalConflict bool             `json:"externalConflict"`
}

// CheckConflicts is the read-only probe callers use before committing to a
// create or update. ExcludeID removes one booking (and its mirrored event)
// from consideration.
func (s *Service) CheckConflicts(ctx context.Context, identityID string, startTime, endTime time.Time, excludeID uuid.UUID) (ConflictCheck, error) {
	if identityID == "" {
		return ConflictCheck{}, validationError("identity_id is required")
	}

	owner, err := s.resolveOwner(ctx, identityID)
	if err != nil {
		return ConflictCheck{}, err
	}

	start := startTime.UTC()
	end := endTime.UTC()
	if !end.After(start) {
		return ConflictCheck{}, ErrInvalidInterval
	}

	var excludeEventID string
	if excludeID != uuid.Nil {
		if excluded, err := s.bookings.FindOne(ctx, owner.ID, excludeID); err == nil {
			excludeEventID = excluded.CalendarEventID
		}
	}

	local, err := s.localConflicts(ctx, owner.ID, start, end, excludeID)
	if err != nil {
		return ConflictCheck{}, err
	}

	check := ConflictCheck{Conflicts: local}
	check.ExternalConflict = s.externalConflict(ctx, owner, start, end, excludeEventID)
	check.HasConflicts = len(local) > 0 || check.ExternalConflict
	return check, nil
}

func (s *Service) localConflicts(ctx context.Context, ownerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.Find(ctx, ownerID, store.BookingFilter{
		ExcludeID:    excludeID,
		OverlapStart: start,
		OverlapEnd:   end,
	})
}

// externalConflict scans the owner's connected calendar for events overlapping
// [start, end). Listing failures degrade to "no external conflicts": local
// consistency is guaranteed, external consistency is best-effort.
func (s *Service) externalConflict(ctx context.Context, owner domain.Owner, start, end time.Time, excludeEventID string) bool {
	if !owner.CalendarConnected() {
		return false
	}

	events, err := s.cal.ListEvents(ctx, owner.CalendarRefreshToken, owner.CalendarID, start, end)
	if err != nil {
		s.log.Warn(
			"calendar listing failed, skipping external conflict check",
			slog.String("owner_id", owner.ID.String()),
			slog.Any("err", err),
		)
		return false
	}

	for _, ev := range events {
		if excludeEventID != "" && ev.ID == excludeEventID {
			continue
		}
		// All-day entries carry no explicit timestamps and never conflict.
		if ev.Start == nil || ev.End == nil {
			continue
		}
		if domain.Overlaps(start, end, *ev.Start, *ev.End) {
			return true
		}
	}
	return false
}
