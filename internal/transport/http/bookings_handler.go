package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/bookings"
)

type bookingsService interface {
	Create(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	List(ctx context.Context, identityID string) ([]domain.Booking, error)
	Upcoming(ctx context.Context, identityID string) ([]domain.Booking, error)
	Get(ctx context.Context, identityID string, bookingID uuid.UUID) (domain.Booking, error)
	Update(ctx context.Context, in bookings.UpdateInput) (domain.Booking, error)
	Delete(ctx context.Context, identityID string, bookingID uuid.UUID) (domain.Booking, error)
	CheckConflicts(ctx context.Context, identityID string, startTime, endTime time.Time, excludeID uuid.UUID) (bookings.ConflictCheck, error)
}

type BookingsHandler struct {
	svc bookingsService
	log *slog.Logger
}

func NewBookingsHandler(svc bookingsService, log *slog.Logger) *BookingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.bookings")),
	}
}

func (h *BookingsHandler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/upcoming", h.upcoming)
	r.Get("/check-conflicts", h.checkConflicts)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createBookingRequest struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "create"))
	identityID := identityFrom(r.Context())

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_times"))
		writeError(w, http.StatusBadRequest, "startTime and endTime are required")
		return
	}

	booking, err := h.svc.Create(r.Context(), bookings.CreateInput{
		IdentityID: identityID,
		Title:      req.Title,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info(
		"booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.Time("start_time", booking.StartTime),
		slog.Time("end_time", booking.EndTime),
	)
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "list"))

	out, err := h.svc.List(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	if out == nil {
		out = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingsHandler) upcoming(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "upcoming"))

	out, err := h.svc.Upcoming(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	if out == nil {
		out = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingsHandler) get(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "get"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	booking, err := h.svc.Get(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type updateBookingRequest struct {
	Title     *string    `json:"title"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

func (h *BookingsHandler) update(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "update"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	var req updateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.svc.Update(r.Context(), bookings.UpdateInput{
		IdentityID: identityFrom(r.Context()),
		BookingID:  id,
		Title:      req.Title,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("booking updated", slog.String("booking_id", booking.ID.String()))
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "delete"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	booking, err := h.svc.Delete(r.Context(), identityFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("booking deleted", slog.String("booking_id", booking.ID.String()))
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingsHandler) checkConflicts(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "check_conflicts"))

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("startTime"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_start_time"))
		writeError(w, http.StatusBadRequest, "startTime must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("endTime"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_end_time"))
		writeError(w, http.StatusBadRequest, "endTime must be an RFC 3339 timestamp")
		return
	}

	excludeID := uuid.Nil
	if raw := r.URL.Query().Get("excludeId"); raw != "" {
		excludeID, err = uuid.Parse(raw)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "invalid_exclude_id"))
			writeError(w, http.StatusBadRequest, "excludeId must be a UUID")
			return
		}
	}

	check, err := h.svc.CheckConflicts(r.Context(), identityFrom(r.Context()), start, end, excludeID)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	if check.Conflicts == nil {
		check.Conflicts = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, check)
}

type conflictResponse struct {
	Error            string           `json:"error"`
	HasConflicts     bool             `json:"hasConflicts"`
	Conflicts        []domain.Booking `json:"conflicts"`
	ExternalConflict bool             `json:"externalConflict"`
}

func (h *BookingsHandler) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var cErr *bookings.ConflictError
	if errors.As(err, &cErr) {
		log.Info("booking conflict", slog.Bool("external", cErr.External), slog.Int("conflicts", len(cErr.Conflicts)))
		conflicts := cErr.Conflicts
		if conflicts == nil {
			conflicts = []domain.Booking{}
		}
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:            cErr.Error(),
			HasConflicts:     true,
			Conflicts:        conflicts,
			ExternalConflict: cErr.External,
		})
		return
	}

	var vErr *bookings.ValidationError
	switch {
	case errors.Is(err, bookings.ErrInvalidInterval), errors.Is(err, bookings.ErrPastInterval):
		log.Warn("invalid interval", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, bookings.ErrOwnerNotFound):
		log.Info("owner not found")
		writeError(w, http.StatusNotFound, "owner not found")
	case errors.Is(err, bookings.ErrBookingNotFound):
		log.Info("booking not found")
		writeError(w, http.StatusNotFound, "booking not found")
	default:
		log.Error("booking operation failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
