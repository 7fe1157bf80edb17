package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings" json:"-"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	OwnerID         uuid.UUID `bun:"owner_id,notnull,type:uuid" json:"ownerId"`
	Title           string    `bun:"title,notnull" json:"title"`
	StartTime       time.Time `bun:"start_time,notnull" json:"startTime"`
	EndTime         time.Time `bun:"end_time,notnull" json:"endTime"`
	CalendarEventID string    `bun:"calendar_event_id,nullzero" json:"calendarEventId,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}
