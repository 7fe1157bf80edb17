package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/service/owners"
)

type ownersService interface {
	ResolveOrCreate(ctx context.Context, in owners.ResolveInput) (domain.Owner, error)
	Get(ctx context.Context, identityID string) (domain.Owner, error)
	CalendarAuthURL(identityID string) (string, error)
	ConnectCalendar(ctx context.Context, identityID, code string) (domain.Owner, error)
	DisconnectCalendar(ctx context.Context, identityID string) (domain.Owner, error)
	CalendarStatus(ctx context.Context, identityID string) (bool, error)
}

type OwnersHandler struct {
	svc ownersService
	log *slog.Logger
}

func NewOwnersHandler(svc ownersService, log *slog.Logger) *OwnersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OwnersHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.owners")),
	}
}

func (h *OwnersHandler) OwnerRoutes(r chi.Router) {
	r.Post("/resolve", h.resolve)
	r.Get("/me", h.me)
}

func (h *OwnersHandler) CalendarRoutes(r chi.Router) {
	r.Get("/auth-url", h.authURL)
	r.Post("/connect", h.connect)
	r.Delete("/disconnect", h.disconnect)
	r.Get("/status", h.status)
}

type resolveOwnerRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (h *OwnersHandler) resolve(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "resolve"))

	var req resolveOwnerRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner, err := h.svc.ResolveOrCreate(r.Context(), owners.ResolveInput{
		IdentityID: identityFrom(r.Context()),
		Email:      req.Email,
		Name:       req.Name,
		Picture:    req.Picture,
	})
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("owner resolved", slog.String("owner_id", owner.ID.String()))
	writeJSON(w, http.StatusOK, owner)
}

func (h *OwnersHandler) me(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "me"))

	owner, err := h.svc.Get(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, owner)
}

func (h *OwnersHandler) authURL(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "auth_url"))

	url, err := h.svc.CalendarAuthURL(identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *OwnersHandler) connect(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "connect"))

	owner, err := h.svc.ConnectCalendar(r.Context(), identityFrom(r.Context()), r.URL.Query().Get("code"))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("calendar connected", slog.String("owner_id", owner.ID.String()))
	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

func (h *OwnersHandler) disconnect(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "disconnect"))

	owner, err := h.svc.DisconnectCalendar(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}

	log.Info("calendar disconnected", slog.String("owner_id", owner.ID.String()))
	writeJSON(w, http.StatusOK, map[string]bool{"connected": false})
}

func (h *OwnersHandler) status(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "status"))

	connected, err := h.svc.CalendarStatus(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

func (h *OwnersHandler) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *owners.ValidationError
	switch {
	case errors.Is(err, owners.ErrMissingEmail):
		log.Warn("missing email")
		writeError(w, http.StatusBadRequest, owners.ErrMissingEmail.Error())
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, owners.ErrOwnerNotFound):
		log.Info("owner not found")
		writeError(w, http.StatusNotFound, "owner not found")
	case errors.Is(err, owners.ErrCalendarAuth):
		log.Warn("calendar authorization failed")
		writeError(w, http.StatusUnauthorized, "failed to connect calendar")
	default:
		log.Error("owner operation failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
