package bookings

import (
	"context"

	"bookly/backend/internal/calendar"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

const mirrorDescription = "Created by Bookly"

// syncOutcome records a best-effort mirror attempt. A failed outcome is
// logged by the caller and never surfaced to the booking operation's caller.
type syncOutcome struct {
	attempted bool
	eventID   string
	err       error
}

func (s *Service) mirrorCreate(ctx context.Context, owner domain.Owner, booking *domain.Booking) syncOutcome {
	if !owner.CalendarConnected() {
		return syncOutcome{}
	}

	eventID, err := s.cal.InsertEvent(ctx, owner.CalendarRefreshToken, owner.CalendarID, calendar.EventInput{
		Summary:     booking.Title,
		Description: mirrorDescription,
		Start:       booking.StartTime,
		End:         booking.EndTime,
	})
	if err != nil {
		return syncOutcome{attempted: true, err: err}
	}

	updated, err := s.bookings.Update(ctx, booking.OwnerID, booking.ID, store.BookingUpdate{
		CalendarEventID: &eventID,
	})
	if err != nil {
		return syncOutcome{attempted: true, eventID: eventID, err: err}
	}

	*booking = updated
	return syncOutcome{attempted: true, eventID: eventID}
}

func (s *Service) mirrorUpdate(ctx context.Context, owner domain.Owner, booking domain.Booking) syncOutcome {
	if !owner.CalendarConnected() || booking.CalendarEventID == "" {
		return syncOutcome{}
	}

	err := s.cal.UpdateEvent(ctx, owner.CalendarRefreshToken, owner.CalendarID, booking.CalendarEventID, calendar.EventInput{
		Summary:     booking.Title,
		Description: mirrorDescription,
		Start:       booking.StartTime,
		End:         booking.EndTime,
	})
	return syncOutcome{attempted: true, eventID: booking.CalendarEventID, err: err}
}

func (s *Service) mirrorDelete(ctx context.Context, owner domain.Owner, booking domain.Booking) syncOutcome {
	if !owner.CalendarConnected() || booking.CalendarEventID == "" {
		return syncOutcome{}
	}

	err := s.cal.DeleteEvent(ctx, owner.CalendarRefreshToken, owner.CalendarID, booking.CalendarEventID)
	return syncOutcome{attempted: true, eventID: booking.CalendarEventID, err: err}
}
