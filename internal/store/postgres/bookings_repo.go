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

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.InOwnerTransaction(ctx, booking.OwnerID, func(ctx context.Context, tx bun.Tx) error {
		m := booking
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return mapBookingError(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) Find(ctx context.Context, ownerID uuid.UUID, filter store.BookingFilter) ([]domain.Booking, error) {
	var rows []domain.Booking
	q := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID)

	if filter.ExcludeID != uuid.Nil {
		q = q.Where("id != ?", filter.ExcludeID)
	}
	if !filter.OverlapStart.IsZero() && !filter.OverlapEnd.IsZero() {
		start := filter.OverlapStart
		end := filter.OverlapEnd
		// Three-clause overlap: candidate starts during existing, candidate
		// ends during existing, or candidate contains existing. Equivalent to
		// domain.Overlaps over half-open intervals.
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("start_time <= ?", start).Where("end_time > ?", start)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("start_time < ?", end).Where("end_time >= ?", end)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("start_time >= ?", start).Where("end_time <= ?", end)
				})
		})
	}
	if !filter.StartsAfter.IsZero() {
		q = q.Where("start_time >= ?", filter.StartsAfter)
	}

	q = q.OrderExpr("start_time ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) FindOne(ctx context.Context, ownerID, bookingID uuid.UUID) (domain.Booking, error) {
	var row domain.Booking
	err := r.db.NewSelect().
		Model(&row).
		Where("owner_id = ?", ownerID).
		Where("id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return row, nil
}

func (r *BookingRepo) Update(ctx context.Context, ownerID, bookingID uuid.UUID, fields store.BookingUpdate) (domain.Booking, error) {
	var out domain.Booking
	err := r.InOwnerTransaction(ctx, ownerID, func(ctx context.Context, tx bun.Tx) error {
		var m domain.Booking
		err := tx.NewSelect().
			Model(&m).
			Where("owner_id = ?", ownerID).
			Where("id = ?", bookingID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if fields.Title != nil {
			m.Title = *fields.Title
		}
		if fields.StartTime != nil {
			m.StartTime = *fields.StartTime
		}
		if fields.EndTime != nil {
			m.EndTime = *fields.EndTime
		}
		if fields.CalendarEventID != nil {
			m.CalendarEventID = *fields.CalendarEventID
		}

		if _, err := tx.NewUpdate().Model(&m).WherePK().Exec(ctx); err != nil {
			return mapBookingError(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) Delete(ctx context.Context, ownerID, bookingID uuid.UUID) (domain.Booking, error) {
	var out domain.Booking
	err := r.InOwnerTransaction(ctx, ownerID, func(ctx context.Context, tx bun.Tx) error {
		var m domain.Booking
		err := tx.NewSelect().
			Model(&m).
			Where("owner_id = ?", ownerID).
			Where("id = ?", bookingID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*domain.Booking)(nil)).
			Where("owner_id = ?", ownerID).
			Where("id = ?", bookingID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

// InOwnerTransaction serializes same-owner writers with an advisory lock so a
// conflict check and the write it guards observe a consistent snapshot.
// Cross-owner operations proceed in parallel.
func (r *BookingRepo) InOwnerTransaction(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockOwnerCalendar(ctx, tx, ownerID); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func lockOwnerCalendar(ctx context.Context, tx bun.Tx, ownerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID.String()).Exec(ctx)
	return err
}

func mapBookingError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == "bookings_no_overlap" {
			return store.ErrConflict
		}
		if pgErr.Code == "23503" {
			return store.ErrNotFound
		}
	}
	return err
}
