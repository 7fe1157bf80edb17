package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Owner struct {
	bun.BaseModel `bun:"table:owners" json:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	IdentityID string    `bun:"identity_id,notnull" json:"identityId"`
	Email      string    `bun:"email,notnull" json:"email"`
	Name       string    `bun:"name,notnull" json:"name"`
	Picture    string    `bun:"picture,nullzero" json:"picture,omitempty"`

	// CalendarRefreshToken is present only while the owner has an external
	// calendar connected. It is never exposed over the wire.
	CalendarRefreshToken string `bun:"calendar_refresh_token,nullzero" json:"-"`
	CalendarID           string `bun:"calendar_id,nullzero" json:"-"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (o *Owner) CalendarConnected() bool {
	return o.CalendarRefreshToken != ""
}

func (o *Owner) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if o.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			o.ID = id
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		if o.UpdatedAt.IsZero() {
			o.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		o.UpdatedAt = now
	}
	return nil
}
