package store

import (
	"context"

	"github.com/google/uuid"

	"bookly/backend/internal/domain"
)

// OwnerUpdate carries the mutable owner fields. Nil pointers leave the stored
// value untouched; pointers to empty strings clear nullable columns.
type OwnerUpdate struct {
	Email                *string
	Name                 *string
	Picture              *string
	CalendarRefreshToken *string
	CalendarID           *string
}

type OwnerRepository interface {
	Create(ctx context.Context, owner domain.Owner) (domain.Owner, error)
	FindByIdentity(ctx context.Context, identityID string) (domain.Owner, error)
	Update(ctx context.Context, ownerID uuid.UUID, fields OwnerUpdate) (domain.Owner, error)
}
