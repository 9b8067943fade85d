package caldav

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	webdavcaldav "github.com/emersion/go-webdav/caldav"
	cal "github.com/vbracun/aria-core/core/calendar"
)

func TestEventRoundTrip(t *testing.T) {
	start := time.Date(2026, 7, 1, 14, 0, 0, 0, time.UTC)
	original := cal.Event{
		ID:             "uid-1",
		Title:          "Planning",
		Description:    "Quarterly planning",
		Start:          cal.NewDateTime(start),
		End:            cal.NewDateTime(start.Add(time.Hour)),
		Attendees:      []cal.Attendee{{Email: "a@x.com", DisplayName: "A"}},
		ConferenceLink: "https://meet.example.com/q",
		Source:         cal.ProviderCalDAV,
	}

	mapped := toEvent(fromEvent(original))

	if mapped.ID != "uid-1" || mapped.Title != "Planning" {
		t.Fatalf("expected identity on id/title, got %+v", mapped)
	}
	if !mapped.Start.Instant().Equal(start) || !mapped.End.Instant().Equal(start.Add(time.Hour)) {
		t.Fatalf("expected window to survive the round trip, got %+v", mapped)
	}
	if len(mapped.Attendees) != 1 || mapped.Attendees[0].Email != "a@x.com" || mapped.Attendees[0].DisplayName != "A" {
		t.Fatalf("expected attendee to survive, got %+v", mapped.Attendees)
	}
	if mapped.ConferenceLink != "https://meet.example.com/q" {
		t.Fatalf("expected conference link to survive, got %q", mapped.ConferenceLink)
	}
}

func TestEventDateOnlyRoundTrip(t *testing.T) {
	original := cal.Event{
		ID:    "uid-2",
		Title: "Offsite",
		Start: cal.NewDate(2026, time.August, 3),
		End:   cal.NewDate(2026, time.August, 4),
	}

	mapped := toEvent(fromEvent(original))

	if !mapped.Start.IsDateOnly() || mapped.Start.Date != "2026-08-03" {
		t.Fatalf("expected date-only start, got %+v", mapped.Start)
	}
	if !mapped.End.IsDateOnly() || mapped.End.Date != "2026-08-04" {
		t.Fatalf("expected date-only end, got %+v", mapped.End)
	}
}

func TestTaskRoundTrip(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	original := cal.Task{
		ID:    "uid-3",
		Title: "Send invoices",
		Notes: "September batch",
		Due:   &due,
	}

	mapped := toTask(fromTask(original))

	if mapped.ID != "uid-3" || mapped.Title != "Send invoices" || mapped.Notes != "September batch" {
		t.Fatalf("expected identity on fields, got %+v", mapped)
	}
	if mapped.Due == nil || !mapped.Due.Equal(due) {
		t.Fatalf("expected due date %v, got %v", due, mapped.Due)
	}
	if !mapped.IsTask {
		t.Fatalf("expected task flag to be set")
	}
}

func TestApplyPatchPreservesUnsetFields(t *testing.T) {
	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	existing := cal.Event{
		ID:          "uid-4",
		Title:       "Old title",
		Description: "keep me",
		Start:       cal.NewDateTime(start),
		End:         cal.NewDateTime(start.Add(time.Hour)),
	}
	title := "New title"

	merged := applyPatch(existing, cal.EventPatch{Title: &title})

	if merged.Title != "New title" {
		t.Fatalf("expected patched title, got %q", merged.Title)
	}
	if merged.Description != "keep me" || !merged.Start.Instant().Equal(start) {
		t.Fatalf("expected unset fields preserved, got %+v", merged)
	}
}

func calendarWithComponents(names ...string) (collection webdavcaldav.Calendar) {
	collection.SupportedComponentSet = names
	return collection
}

func TestSupportsComponent(t *testing.T) {
	generic := calendarWithComponents()
	if !supportsComponent(generic, ical.CompEvent) {
		t.Fatalf("expected collections without an advertised set to accept events")
	}
	if supportsComponent(generic, ical.CompToDo) {
		t.Fatalf("expected collections without an advertised set to reject todos")
	}

	todoOnly := calendarWithComponents(ical.CompToDo)
	if supportsComponent(todoOnly, ical.CompEvent) || !supportsComponent(todoOnly, ical.CompToDo) {
		t.Fatalf("expected advertised set to be honored")
	}
}
