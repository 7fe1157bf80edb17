package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type OwnerRepo struct {
	db *bun.DB
}

func NewOwnerRepo(db *bun.DB) *OwnerRepo {
	return &OwnerRepo{db: db}
}

func (r *OwnerRepo) Create(ctx context.Context, owner domain.Owner) (domain.Owner, error) {
	m := owner
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Owner{}, store.ErrConflict
		}
		return domain.Owner{}, err
	}
	return m, nil
}

func (r *OwnerRepo) FindByIdentity(ctx context.Context, identityID string) (domain.Owner, error) {
	var row domain.Owner
	err := r.db.NewSelect().
		Model(&row).
		Where("identity_id = ?", identityID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Owner{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Owner{}, err
	}
	return row, nil
}

func (r *OwnerRepo) Update(ctx context.Context, ownerID uuid.UUID, fields store.OwnerUpdate) (domain.Owner, error) {
	var out domain.Owner
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var m domain.Owner
		err := tx.NewSelect().
			Model(&m).
			Where("id = ?", ownerID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if fields.Email != nil {
			m.Email = *fields.Email
		}
		if fields.Name != nil {
			m.Name = *fields.Name
		}
		if fields.Picture != nil {
			m.Picture = *fields.Picture
		}
		if fields.CalendarRefreshToken != nil {
			m.CalendarRefreshToken = *fields.CalendarRefreshToken
		}
		if fields.CalendarID != nil {
			m.CalendarID = *fields.CalendarID
		}

		if _, err := tx.NewUpdate().Model(&m).WherePK().Exec(ctx); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Owner{}, err
	}
	return out, nil
}
