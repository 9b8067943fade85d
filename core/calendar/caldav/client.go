// Package caldav adapts a CalDAV server to the canonical calendar
// surface: events as VEVENT objects, tasks as VTODO objects. Credentials
// are opaque per-request bearer tokens.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	cal "github.com/vbracun/aria-core/core/calendar"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const productID = "-//aria-core//EN"

// bearerTransport adds the caller's token and a stable user agent to each
// request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("User-Agent", "aria-core/1.0")
	return t.base.RoundTrip(req)
}

type Client struct {
	client *caldav.Client

	// eventsPath and tasksPath are the discovered collection paths for
	// VEVENT and VTODO objects. They may name the same collection.
	eventsPath string
	tasksPath  string
}

// NewClient discovers the principal's calendar home and picks the first
// collections supporting events and todos.
func NewClient(ctx context.Context, endpoint, token string) (*Client, error) {
	if token == "" {
		return nil, &cal.CredentialError{Provider: cal.ProviderCalDAV, Reason: "missing bearer token"}
	}

	httpClient := &http.Client{Transport: &bearerTransport{
		token: token,
		base:  otelhttp.NewTransport(http.DefaultTransport),
	}}
	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &Client{client: client}
	if err := c.discoverCollections(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) discoverCollections(ctx context.Context) error {
	principal, err := c.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return wrapError(err, "principal", "")
	}
	homeSet, err := c.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return wrapError(err, "calendar home", principal)
	}
	calendars, err := c.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return wrapError(err, "calendars", homeSet)
	}

	for _, collection := range calendars {
		if c.eventsPath == "" && supportsComponent(collection, ical.CompEvent) {
			c.eventsPath = collection.Path
		}
		if c.tasksPath == "" && supportsComponent(collection, ical.CompToDo) {
			c.tasksPath = collection.Path
		}
	}
	if c.eventsPath == "" {
		return &cal.ProviderError{Provider: cal.ProviderCalDAV, Message: "no calendar collection supports events"}
	}
	if c.tasksPath == "" {
		// Many servers accept VTODO in the event collection even when the
		// component set is not advertised.
		c.tasksPath = c.eventsPath
	}
	return nil
}

func supportsComponent(collection caldav.Calendar, name string) bool {
	if len(collection.SupportedComponentSet) == 0 {
		return name == ical.CompEvent
	}
	return slices.Contains(collection.SupportedComponentSet, name)
}

func (c *Client) eventPath(uid string) string {
	return path.Join(c.eventsPath, uid+".ics")
}

func (c *Client) taskPath(uid string) string {
	return path.Join(c.tasksPath, uid+".ics")
}

func newContainer() *ical.Calendar {
	container := ical.NewCalendar()
	container.Props.SetText(ical.PropVersion, "2.0")
	container.Props.SetText(ical.PropProductID, productID)
	return container
}

func wrapError(err error, kind, id string) error {
	var httpErr *webdav.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &cal.CredentialError{Provider: cal.ProviderCalDAV, Reason: httpErr.Error()}
		case http.StatusNotFound, http.StatusGone:
			return &cal.NotFoundError{Kind: kind, ID: id}
		default:
			return &cal.ProviderError{Provider: cal.ProviderCalDAV, Status: httpErr.Code, Message: httpErr.Error()}
		}
	}
	return &cal.ProviderError{Provider: cal.ProviderCalDAV, Message: err.Error()}
}

func isNotFound(err error) bool {
	var httpErr *webdav.HTTPError
	return errors.As(err, &httpErr) && (httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusGone)
}
