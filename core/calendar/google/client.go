// Package google adapts Google Calendar and Google Tasks to the canonical
// calendar surface. Credentials are opaque per-request bearer tokens; the
// adapter never refreshes them.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cal "github.com/vbracun/aria-core/core/calendar"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

const (
	calendarID = "primary"
	tasklistID = "@default"
)

type Client struct {
	events *gcal.Service
	tasks  *gtasks.Service
}

// NewClient builds an adapter around the caller-supplied bearer token.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, &cal.CredentialError{Provider: cal.ProviderGoogle, Reason: "missing bearer token"}
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, source)

	eventsService, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	tasksService, err := gtasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{events: eventsService, tasks: tasksService}, nil
}

// wrapError maps a Google API failure into the canonical taxonomy. kind
// and id identify the mutation target for not-found reporting.
func wrapError(err error, kind, id string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &cal.ProviderError{Provider: cal.ProviderGoogle, Message: err.Error()}
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &cal.CredentialError{Provider: cal.ProviderGoogle, Reason: apiErr.Message}
	case http.StatusNotFound, http.StatusGone:
		return &cal.NotFoundError{Kind: kind, ID: id}
	default:
		return &cal.ProviderError{Provider: cal.ProviderGoogle, Status: apiErr.Code, Message: apiErr.Message}
	}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone)
}
