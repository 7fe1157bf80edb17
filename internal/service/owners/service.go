// Package owners maps external identities to owner records and manages the
// owner's external calendar connection.
package owners

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"bookly/backend/internal/calendar"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	ErrOwnerNotFound = errors.New("owner not found")
	ErrMissingEmail  = errors.New("email is required")
	ErrCalendarAuth  = errors.New("calendar authorization failed")
)

const (
	// defaultName stands in when the identity provider supplies no display
	// name. Email stays the durable identifier users recognize.
	defaultName = "User"

	// defaultCalendarID is the provider's primary calendar, used for every
	// connection.
	defaultCalendarID = "primary"
)

type Service struct {
	owners    store.OwnerRepository
	connector calendar.Connector
	log       *slog.Logger
}

func NewService(owners store.OwnerRepository, connector calendar.Connector, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		owners:    owners,
		connector: connector,
		log:       log.With(slog.String("component", "service.owners")),
	}
}

type ResolveInput struct {
	IdentityID string
	Email      string
	Name       string
	Picture    string
}

// ResolveOrCreate looks up the owner for an external identity, creating the
// record on first sight and refreshing mutable profile fields on subsequent
// calls. Supplied empty fields never overwrite stored values.
func (s *Service) ResolveOrCreate(ctx context.Context, in ResolveInput) (domain.Owner, error) {
	if in.IdentityID == "" {
		return domain.Owner{}, validationError("identity_id is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.Owner{}, ErrMissingEmail
	}
	name := strings.TrimSpace(in.Name)
	picture := strings.TrimSpace(in.Picture)

	existing, err := s.owners.FindByIdentity(ctx, in.IdentityID)
	if err == nil {
		fields := store.OwnerUpdate{}
		if email != existing.Email {
			fields.Email = &email
		}
		if name != "" && name != existing.Name {
			fields.Name = &name
		}
		if picture != "" && picture != existing.Picture {
			fields.Picture = &picture
		}
		if fields == (store.OwnerUpdate{}) {
			return existing, nil
		}
		return s.owners.Update(ctx, existing.ID, fields)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Owner{}, err
	}

	if name == "" {
		name = defaultName
	}
	return s.owners.Create(ctx, domain.Owner{
		IdentityID: in.IdentityID,
		Email:      email,
		Name:       name,
		Picture:    picture,
	})
}

func (s *Service) Get(ctx context.Context, identityID string) (domain.Owner, error) {
	if identityID == "" {
		return domain.Owner{}, validationError("identity_id is required")
	}
	owner, err := s.owners.FindByIdentity(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Owner{}, ErrOwnerNotFound
	}
	if err != nil {
		return domain.Owner{}, err
	}
	return owner, nil
}

// CalendarAuthURL builds the provider consent URL. The identity travels in
// the OAuth state parameter so the callback can find the owner again.
func (s *Service) CalendarAuthURL(identityID string) (string, error) {
	if identityID == "" {
		return "", validationError("identity_id is required")
	}
	return s.connector.AuthURL(identityID), nil
}

// ConnectCalendar exchanges the authorization code and stores the resulting
// refresh credential against the owner's primary calendar.
func (s *Service) ConnectCalendar(ctx context.Context, identityID, code string) (domain.Owner, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Owner{}, validationError("code is required")
	}

	owner, err := s.Get(ctx, identityID)
	if err != nil {
		return domain.Owner{}, err
	}

	tokens, err := s.connector.ExchangeCode(ctx, code)
	if err != nil {
		s.log.Warn(
			"authorization code exchange failed",
			slog.String("owner_id", owner.ID.String()),
			slog.Any("err", err),
		)
		return domain.Owner{}, ErrCalendarAuth
	}
	if tokens.RefreshToken == "" {
		// Without a refresh credential the connection cannot outlive the
		// access token, so the exchange counts as failed.
		return domain.Owner{}, ErrCalendarAuth
	}

	calendarID := defaultCalendarID
	updated, err := s.owners.Update(ctx, owner.ID, store.OwnerUpdate{
		CalendarRefreshToken: &tokens.RefreshToken,
		CalendarID:           &calendarID,
	})
	if err != nil {
		return domain.Owner{}, err
	}

	s.log.Info("calendar connected", slog.String("owner_id", owner.ID.String()))
	return updated, nil
}

func (s *Service) DisconnectCalendar(ctx context.Context, identityID string) (domain.Owner, error) {
	owner, err := s.Get(ctx, identityID)
	if err != nil {
		return domain.Owner{}, err
	}

	cleared := ""
	updated, err := s.owners.Update(ctx, owner.ID, store.OwnerUpdate{
		CalendarRefreshToken: &cleared,
		CalendarID:           &cleared,
	})
	if err != nil {
		return domain.Owner{}, err
	}

	s.log.Info("calendar disconnected", slog.String("owner_id", owner.ID.String()))
	return updated, nil
}

func (s *Service) CalendarStatus(ctx context.Context, identityID string) (bool, error) {
	owner, err := s.Get(ctx, identityID)
	if err != nil {
		return false, err
	}
	return owner.CalendarConnected(), nil
}
