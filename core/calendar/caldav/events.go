package caldav

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	cal "github.com/vbracun/aria-core/core/calendar"
)

func (c *Client) ListEvents(ctx context.Context, opts cal.ListOptions) ([]cal.Event, error) {
	filter := caldav.CompFilter{Name: ical.CompEvent}
	if opts.TimeMin != nil {
		filter.Start = opts.TimeMin.UTC()
	}
	if opts.TimeMax != nil {
		filter.End = opts.TimeMax.UTC()
	}

	objects, err := c.client.QueryCalendar(ctx, c.eventsPath, &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{filter},
		},
	})
	if err != nil {
		return nil, wrapError(err, "calendar", c.eventsPath)
	}

	events := []cal.Event{}
	for _, object := range objects {
		if object.Data == nil {
			continue
		}
		for _, component := range object.Data.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := toEvent(component)
			if opts.Query != "" && !matchesEventQuery(event, opts.Query) {
				continue
			}
			events = append(events, event)
		}
	}
	if opts.MaxResults > 0 && len(events) > opts.MaxResults {
		events = events[:opts.MaxResults]
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*cal.Event, error) {
	object, err := c.client.GetCalendarObject(ctx, c.eventPath(id))
	if err != nil {
		return nil, wrapError(err, "event", id)
	}
	component := findComponent(object.Data, ical.CompEvent)
	if component == nil {
		return nil, &cal.NotFoundError{Kind: "event", ID: id}
	}
	canonical := toEvent(component)
	canonical.ID = id
	return &canonical, nil
}

func (c *Client) CreateEvent(ctx context.Context, event cal.Event) (*cal.Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	container := newContainer()
	container.Children = append(container.Children, fromEvent(event))

	if _, err := c.client.PutCalendarObject(ctx, c.eventPath(event.ID), container); err != nil {
		return nil, wrapError(err, "event", event.ID)
	}
	canonical := cal.NormalizeEvent(event)
	return &canonical, nil
}

// UpdateEvent merges the patch over the stored object and rewrites it.
// When the object vanished, the merge falls back to the patch alone and
// the PUT recreates it under the same id: CalDAV's PUT-as-upsert is the
// event-only recovery path.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch cal.EventPatch) (*cal.Event, error) {
	existing := cal.Event{ID: id, Source: cal.ProviderCalDAV}
	if object, err := c.client.GetCalendarObject(ctx, c.eventPath(id)); err != nil {
		logger.WarnContext(ctx, "pre-update event fetch failed, rewriting from patch",
			"eventID", id, "error", err)
	} else if component := findComponent(object.Data, ical.CompEvent); component != nil {
		existing = toEvent(component)
		existing.ID = id
	}

	merged := applyPatch(existing, patch)
	container := newContainer()
	container.Children = append(container.Children, fromEvent(merged))
	if _, err := c.client.PutCalendarObject(ctx, c.eventPath(id), container); err != nil {
		return nil, wrapError(err, "event", id)
	}
	canonical := cal.NormalizeEvent(merged)
	return &canonical, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) (*cal.Event, error) {
	details := &cal.Event{ID: id, Source: cal.ProviderCalDAV}
	if object, err := c.client.GetCalendarObject(ctx, c.eventPath(id)); err != nil {
		if isNotFound(err) {
			return nil, &cal.NotFoundError{Kind: "event", ID: id}
		}
		logger.WarnContext(ctx, "pre-delete event fetch failed, continuing without details",
			"eventID", id, "error", err)
	} else if component := findComponent(object.Data, ical.CompEvent); component != nil {
		canonical := toEvent(component)
		canonical.ID = id
		details = &canonical
	}

	if err := c.client.RemoveAll(ctx, c.eventPath(id)); err != nil {
		return nil, wrapError(err, "event", id)
	}
	return details, nil
}

func applyPatch(event cal.Event, patch cal.EventPatch) cal.Event {
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Start != nil {
		event.Start = *patch.Start
	}
	if patch.End != nil {
		event.End = *patch.End
	}
	if patch.Attendees != nil {
		event.Attendees = *patch.Attendees
	}
	return event
}

func findComponent(container *ical.Calendar, name string) *ical.Component {
	if container == nil {
		return nil
	}
	for _, component := range container.Children {
		if component.Name == name {
			return component
		}
	}
	return nil
}

func matchesEventQuery(event cal.Event, query string) bool {
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(event.Title), query) ||
		strings.Contains(strings.ToLower(event.Description), query)
}

func toEvent(component *ical.Component) cal.Event {
	event := cal.Event{Source: cal.ProviderCalDAV}
	event.ID = propText(component, ical.PropUID)
	event.Title = propText(component, ical.PropSummary)
	event.Description = propText(component, ical.PropDescription)
	event.Start = timeFromProp(component.Props.Get(ical.PropDateTimeStart))
	event.End = timeFromProp(component.Props.Get(ical.PropDateTimeEnd))
	if event.End.IsZero() {
		event.End = event.Start
	}

	for _, prop := range component.Props.Values(ical.PropAttendee) {
		email := strings.TrimPrefix(strings.TrimPrefix(prop.Value, "mailto:"), "MAILTO:")
		event.Attendees = append(event.Attendees, cal.Attendee{
			Email:       email,
			DisplayName: prop.Params.Get(ical.ParamCommonName),
		})
	}
	event.ConferenceLink = propText(component, ical.PropURL)
	return cal.NormalizeEvent(event)
}

func fromEvent(event cal.Event) *ical.Component {
	component := ical.NewComponent(ical.CompEvent)
	component.Props.SetText(ical.PropUID, event.ID)
	component.Props.SetText(ical.PropSummary, event.Title)
	component.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	setTimeProp(component, ical.PropDateTimeStart, event.Start)
	setTimeProp(component, ical.PropDateTimeEnd, event.End)
	if event.Description != "" {
		component.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.ConferenceLink != "" {
		component.Props.SetText(ical.PropURL, event.ConferenceLink)
	}
	for _, attendee := range event.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + attendee.Email
		if attendee.DisplayName != "" {
			prop.Params.Set(ical.ParamCommonName, attendee.DisplayName)
		}
		component.Props.Add(prop)
	}
	return component
}

const icsDateLayout = "20060102"

func timeFromProp(prop *ical.Prop) cal.EventTime {
	if prop == nil {
		return cal.EventTime{}
	}
	if prop.ValueType() == ical.ValueDate {
		day, err := time.Parse(icsDateLayout, prop.Value)
		if err != nil {
			logger.Warn("unparseable ics date", "value", prop.Value, "error", err)
			return cal.EventTime{}
		}
		return cal.EventTime{Date: day.Format("2006-01-02")}
	}
	instant, err := prop.DateTime(time.UTC)
	if err != nil {
		logger.Warn("unparseable ics timestamp", "value", prop.Value, "error", err)
		return cal.EventTime{}
	}
	return cal.NewDateTime(instant)
}

func setTimeProp(component *ical.Component, name string, value cal.EventTime) {
	if value.IsZero() {
		return
	}
	if value.IsDateOnly() {
		prop := ical.NewProp(name)
		prop.SetValueType(ical.ValueDate)
		prop.Value = value.Instant().Format(icsDateLayout)
		component.Props.Set(prop)
		return
	}
	component.Props.SetDateTime(name, value.DateTime.UTC())
}

func propText(component *ical.Component, name string) string {
	prop := component.Props.Get(name)
	if prop == nil {
		return ""
	}
	text, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return text
}
