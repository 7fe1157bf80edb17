// Package google implements the calendar port against the Google Calendar v3
// API. Credentials are per-owner OAuth refresh tokens; a fresh token source is
// built for every call so no owner state lives on the client.
package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"bookly/backend/internal/calendar"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Client struct {
	oauth *oauth2.Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				gcalendar.CalendarReadonlyScope,
				gcalendar.CalendarEventsScope,
			},
			Endpoint: googleoauth.Endpoint,
		},
	}
}

func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (calendar.Tokens, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return calendar.Tokens{}, mapError(err)
	}
	return calendar.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}

func (c *Client) ListEvents(ctx context.Context, credential, calendarID string, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	svc, err := c.service(ctx, credential)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]calendar.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, calendar.Event{
			ID:      item.Id,
			Summary: item.Summary,
			Start:   parseEventTime(item.Start),
			End:     parseEventTime(item.End),
		})
	}
	return out, nil
}

func (c *Client) InsertEvent(ctx context.Context, credential, calendarID string, in calendar.EventInput) (string, error) {
	svc, err := c.service(ctx, credential)
	if err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(calendarID, toGoogleEvent(in)).Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	return created.Id, nil
}

func (c *Client) UpdateEvent(ctx context.Context, credential, calendarID, eventID string, in calendar.EventInput) error {
	svc, err := c.service(ctx, credential)
	if err != nil {
		return err
	}

	_, err = svc.Events.Update(calendarID, eventID, toGoogleEvent(in)).Context(ctx).Do()
	return mapError(err)
}

func (c *Client) DeleteEvent(ctx context.Context, credential, calendarID, eventID string) error {
	svc, err := c.service(ctx, credential)
	if err != nil {
		return err
	}
	return mapError(svc.Events.Delete(calendarID, eventID).Context(ctx).Do())
}

func (c *Client) service(ctx context.Context, refreshToken string) (*gcalendar.Service, error) {
	if refreshToken == "" {
		return nil, calendar.ErrCredentialInvalid
	}
	ts := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return gcalendar.NewService(ctx, option.WithTokenSource(ts))
}

func toGoogleEvent(in calendar.EventInput) *gcalendar.Event {
	return &gcalendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start:       &gcalendar.EventDateTime{DateTime: in.Start.UTC().Format(time.RFC3339)},
		End:         &gcalendar.EventDateTime{DateTime: in.End.UTC().Format(time.RFC3339)},
	}
}

// parseEventTime returns nil for all-day events, which carry a Date but no
// DateTime.
func parseEventTime(edt *gcalendar.EventDateTime) *time.Time {
	if edt == nil || edt.DateTime == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return calendar.ErrCredentialInvalid
		}
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return calendar.ErrCredentialInvalid
	}
	if strings.Contains(err.Error(), "invalid_grant") {
		return calendar.ErrCredentialInvalid
	}
	return err
}
