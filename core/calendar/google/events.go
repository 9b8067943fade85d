package google

import (
	"context"
	"time"

	cal "github.com/vbracun/aria-core/core/calendar"
	gcal "google.golang.org/api/calendar/v3"
)

func (c *Client) ListEvents(ctx context.Context, opts cal.ListOptions) ([]cal.Event, error) {
	call := c.events.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if opts.TimeMin != nil {
		call = call.TimeMin(opts.TimeMin.UTC().Format(time.RFC3339))
	}
	if opts.TimeMax != nil {
		call = call.TimeMax(opts.TimeMax.UTC().Format(time.RFC3339))
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}

	response, err := call.Do()
	if err != nil {
		return nil, wrapError(err, "calendar", calendarID)
	}

	events := make([]cal.Event, 0, len(response.Items))
	for _, item := range response.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*cal.Event, error) {
	item, err := c.events.Events.Get(calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "event", id)
	}
	canonical := toEvent(item)
	return &canonical, nil
}

func (c *Client) CreateEvent(ctx context.Context, event cal.Event) (*cal.Event, error) {
	created, err := c.events.Events.Insert(calendarID, fromEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "calendar", calendarID)
	}
	canonical := toEvent(created)
	return &canonical, nil
}

// UpdateEvent applies a partial update. The pre-fetch of the existing
// object is best-effort: when it fails the sparse patch proceeds anyway,
// which is what lets a vanished event id recover upsert-style here while
// tasks never do.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch cal.EventPatch) (*cal.Event, error) {
	if _, err := c.events.Events.Get(calendarID, id).Context(ctx).Do(); err != nil {
		logger.WarnContext(ctx, "pre-update event fetch failed, patching anyway",
			"eventID", id, "error", err)
	}

	payload := &gcal.Event{}
	if patch.Title != nil {
		payload.Summary = *patch.Title
	}
	if patch.Description != nil {
		payload.Description = *patch.Description
	}
	if patch.Start != nil {
		payload.Start = fromEventTime(*patch.Start)
	}
	if patch.End != nil {
		payload.End = fromEventTime(*patch.End)
	}
	if patch.Attendees != nil {
		payload.Attendees = fromAttendees(*patch.Attendees)
	}

	updated, err := c.events.Events.Patch(calendarID, id, payload).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "event", id)
	}
	canonical := toEvent(updated)
	return &canonical, nil
}

// DeleteEvent removes the event and returns its last known canonical form.
// The detail fetch is best-effort; its failure never aborts the delete.
func (c *Client) DeleteEvent(ctx context.Context, id string) (*cal.Event, error) {
	var details *cal.Event
	if existing, err := c.events.Events.Get(calendarID, id).Context(ctx).Do(); err != nil {
		logger.WarnContext(ctx, "pre-delete event fetch failed, continuing without details",
			"eventID", id, "error", err)
	} else {
		canonical := toEvent(existing)
		details = &canonical
	}

	if err := c.events.Events.Delete(calendarID, id).Context(ctx).Do(); err != nil {
		return nil, wrapError(err, "event", id)
	}
	if details == nil {
		details = &cal.Event{ID: id, Source: cal.ProviderGoogle}
	}
	return details, nil
}

func toEvent(item *gcal.Event) cal.Event {
	event := cal.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Start:       toEventTime(item.Start),
		End:         toEventTime(item.End),
		Source:      cal.ProviderGoogle,
	}
	for _, attendee := range item.Attendees {
		if attendee.Resource {
			continue
		}
		event.Attendees = append(event.Attendees, cal.Attendee{
			Email:       attendee.Email,
			DisplayName: attendee.DisplayName,
		})
	}
	if item.ConferenceData != nil {
		for _, entryPoint := range item.ConferenceData.EntryPoints {
			if entryPoint.EntryPointType == "video" {
				event.ConferenceLink = entryPoint.Uri
				break
			}
		}
	}
	if event.ConferenceLink == "" {
		event.ConferenceLink = item.HangoutLink
	}
	return cal.NormalizeEvent(event)
}

func toEventTime(edt *gcal.EventDateTime) cal.EventTime {
	if edt == nil {
		return cal.EventTime{}
	}
	if edt.Date != "" {
		return cal.EventTime{Date: edt.Date}
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		logger.Warn("unparseable event timestamp", "value", edt.DateTime, "error", err)
		return cal.EventTime{}
	}
	zone := edt.TimeZone
	if zone == "" {
		zone = t.Location().String()
	}
	return cal.EventTime{DateTime: &t, TimeZone: zone}
}

func fromEvent(event cal.Event) *gcal.Event {
	return &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start:       fromEventTime(event.Start),
		End:         fromEventTime(event.End),
		Attendees:   fromAttendees(event.Attendees),
	}
}

func fromEventTime(t cal.EventTime) *gcal.EventDateTime {
	if t.IsZero() {
		return nil
	}
	if t.IsDateOnly() {
		return &gcal.EventDateTime{Date: t.Date}
	}
	return &gcal.EventDateTime{
		DateTime: t.DateTime.Format(time.RFC3339),
		TimeZone: t.TimeZone,
	}
}

func fromAttendees(attendees []cal.Attendee) []*gcal.EventAttendee {
	mapped := make([]*gcal.EventAttendee, 0, len(attendees))
	for _, attendee := range attendees {
		mapped = append(mapped, &gcal.EventAttendee{
			Email:       attendee.Email,
			DisplayName: attendee.DisplayName,
		})
	}
	return mapped
}
