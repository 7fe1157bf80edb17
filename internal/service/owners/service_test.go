package owners

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"bookly/backend/internal/calendar"
	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// memOwnerRepo is an in-memory OwnerRepository keyed by identity, enough to
// exercise the resolve and connection flows end to end.
type memOwnerRepo struct {
	owners map[string]domain.Owner
}

func newMemOwnerRepo() *memOwnerRepo {
	return &memOwnerRepo{owners: map[string]domain.Owner{}}
}

func (m *memOwnerRepo) Create(ctx context.Context, owner domain.Owner) (domain.Owner, error) {
	if _, ok := m.owners[owner.IdentityID]; ok {
		return domain.Owner{}, store.ErrConflict
	}
	owner.ID = uuid.New()
	m.owners[owner.IdentityID] = owner
	return owner, nil
}

func (m *memOwnerRepo) FindByIdentity(ctx context.Context, identityID string) (domain.Owner, error) {
	owner, ok := m.owners[identityID]
	if !ok {
		return domain.Owner{}, store.ErrNotFound
	}
	return owner, nil
}

func (m *memOwnerRepo) Update(ctx context.Context, ownerID uuid.UUID, fields store.OwnerUpdate) (domain.Owner, error) {
	for identityID, owner := range m.owners {
		if owner.ID != ownerID {
			continue
		}
		if fields.Email != nil {
			owner.Email = *fields.Email
		}
		if fields.Name != nil {
			owner.Name = *fields.Name
		}
		if fields.Picture != nil {
			owner.Picture = *fields.Picture
		}
		if fields.CalendarRefreshToken != nil {
			owner.CalendarRefreshToken = *fields.CalendarRefreshToken
		}
		if fields.CalendarID != nil {
			owner.CalendarID = *fields.CalendarID
		}
		m.owners[identityID] = owner
		return owner, nil
	}
	return domain.Owner{}, store.ErrNotFound
}

type fakeConnector struct {
	authURLFn  func(state string) string
	exchangeFn func(ctx context.Context, code string) (calendar.Tokens, error)
}

func (f *fakeConnector) AuthURL(state string) string {
	if f.authURLFn == nil {
		panic("AuthURL not configured")
	}
	return f.authURLFn(state)
}

func (f *fakeConnector) ExchangeCode(ctx context.Context, code string) (calendar.Tokens, error) {
	if f.exchangeFn == nil {
		panic("ExchangeCode not configured")
	}
	return f.exchangeFn(ctx, code)
}

func TestResolveOrCreate_CreatesThenUpdates(t *testing.T) {
	repo := newMemOwnerRepo()
	svc := NewService(repo, &fakeConnector{}, nil)

	first, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
		Name:       "U One",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("owner id not assigned")
	}

	second, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
		Name:       "U Renamed",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resolve created a duplicate: %s vs %s", second.ID, first.ID)
	}
	if second.Name != "U Renamed" {
		t.Fatalf("name = %q, want %q", second.Name, "U Renamed")
	}
	if len(repo.owners) != 1 {
		t.Fatalf("stored owners = %d, want 1", len(repo.owners))
	}
}

func TestResolveOrCreate_EmptyFieldsPreserveStoredValues(t *testing.T) {
	repo := newMemOwnerRepo()
	svc := NewService(repo, &fakeConnector{}, nil)

	if _, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
		Name:       "U One",
		Picture:    "https://example.com/u1.png",
	}); err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}

	owner, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if owner.Name != "U One" || owner.Picture != "https://example.com/u1.png" {
		t.Fatalf("stored profile was overwritten: %+v", owner)
	}
}

func TestResolveOrCreate_MissingEmail(t *testing.T) {
	svc := NewService(newMemOwnerRepo(), &fakeConnector{}, nil)

	_, err := svc.ResolveOrCreate(context.Background(), ResolveInput{IdentityID: "auth0|u1"})
	if !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("error = %v, want %v", err, ErrMissingEmail)
	}
}

func TestResolveOrCreate_NamePlaceholder(t *testing.T) {
	svc := NewService(newMemOwnerRepo(), &fakeConnector{}, nil)

	owner, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if owner.Name != defaultName {
		t.Fatalf("name = %q, want %q", owner.Name, defaultName)
	}
}

func TestGet_UnknownOwner(t *testing.T) {
	svc := NewService(newMemOwnerRepo(), &fakeConnector{}, nil)

	_, err := svc.Get(context.Background(), "auth0|missing")
	if !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrOwnerNotFound)
	}
}

func TestCalendarAuthURL_CarriesIdentityState(t *testing.T) {
	connector := &fakeConnector{
		authURLFn: func(state string) string {
			return "https://accounts.example.com/consent?state=" + state
		},
	}
	svc := NewService(newMemOwnerRepo(), connector, nil)

	url, err := svc.CalendarAuthURL("auth0|u1")
	if err != nil {
		t.Fatalf("CalendarAuthURL error: %v", err)
	}
	if url != "https://accounts.example.com/consent?state=auth0|u1" {
		t.Fatalf("url = %q", url)
	}
}

func TestConnectCalendar_StoresRefreshToken(t *testing.T) {
	repo := newMemOwnerRepo()
	connector := &fakeConnector{
		exchangeFn: func(ctx context.Context, code string) (calendar.Tokens, error) {
			if code != "auth-code" {
				t.Fatalf("code = %q, want %q", code, "auth-code")
			}
			return calendar.Tokens{AccessToken: "at", RefreshToken: "rt"}, nil
		},
	}
	svc := NewService(repo, connector, nil)

	if _, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	}); err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}

	owner, err := svc.ConnectCalendar(context.Background(), "auth0|u1", "auth-code")
	if err != nil {
		t.Fatalf("ConnectCalendar error: %v", err)
	}
	if !owner.CalendarConnected() {
		t.Fatalf("owner not marked connected: %+v", owner)
	}
	if owner.CalendarID != defaultCalendarID {
		t.Fatalf("calendar id = %q, want %q", owner.CalendarID, defaultCalendarID)
	}

	connected, err := svc.CalendarStatus(context.Background(), "auth0|u1")
	if err != nil {
		t.Fatalf("CalendarStatus error: %v", err)
	}
	if !connected {
		t.Fatalf("status = false after connect")
	}
}

func TestConnectCalendar_ExchangeFailure(t *testing.T) {
	repo := newMemOwnerRepo()
	connector := &fakeConnector{
		exchangeFn: func(ctx context.Context, code string) (calendar.Tokens, error) {
			return calendar.Tokens{}, errors.New("invalid_grant")
		},
	}
	svc := NewService(repo, connector, nil)

	if _, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	}); err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}

	_, err := svc.ConnectCalendar(context.Background(), "auth0|u1", "bad-code")
	if !errors.Is(err, ErrCalendarAuth) {
		t.Fatalf("error = %v, want %v", err, ErrCalendarAuth)
	}
}

func TestConnectCalendar_MissingRefreshToken(t *testing.T) {
	repo := newMemOwnerRepo()
	connector := &fakeConnector{
		exchangeFn: func(ctx context.Context, code string) (calendar.Tokens, error) {
			// Re-consent without offline access yields no refresh token.
			return calendar.Tokens{AccessToken: "at"}, nil
		},
	}
	svc := NewService(repo, connector, nil)

	if _, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	}); err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}

	_, err := svc.ConnectCalendar(context.Background(), "auth0|u1", "auth-code")
	if !errors.Is(err, ErrCalendarAuth) {
		t.Fatalf("error = %v, want %v", err, ErrCalendarAuth)
	}

	connected, err := svc.CalendarStatus(context.Background(), "auth0|u1")
	if err != nil {
		t.Fatalf("CalendarStatus error: %v", err)
	}
	if connected {
		t.Fatalf("owner connected after failed exchange")
	}
}

func TestDisconnectCalendar_ClearsCredential(t *testing.T) {
	repo := newMemOwnerRepo()
	connector := &fakeConnector{
		exchangeFn: func(ctx context.Context, code string) (calendar.Tokens, error) {
			return calendar.Tokens{AccessToken: "at", RefreshToken: "rt"}, nil
		},
	}
	svc := NewService(repo, connector, nil)

	if _, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		IdentityID: "auth0|u1",
		Email:      "u1@example.com",
	}); err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if _, err := svc.ConnectCalendar(context.Background(), "auth0|u1", "auth-code"); err != nil {
		t.Fatalf("ConnectCalendar error: %v", err)
	}

	owner, err := svc.DisconnectCalendar(context.Background(), "auth0|u1")
	if err != nil {
		t.Fatalf("DisconnectCalendar error: %v", err)
	}
	if owner.CalendarConnected() {
		t.Fatalf("owner still connected after disconnect")
	}
	if owner.CalendarID != "" {
		t.Fatalf("calendar id = %q, want empty", owner.CalendarID)
	}
}
