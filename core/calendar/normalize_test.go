package calendar

import (
	"testing"
	"time"
)

func TestNormalizeEventConvertsInstantsToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("expected location to load, got %v", err)
	}
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, loc)
	end := start.Add(30 * time.Minute)

	normalized := NormalizeEvent(Event{
		Title: " Standup ",
		Start: NewDateTime(start),
		End:   NewDateTime(end),
	})

	if normalized.Start.TimeZone != "UTC" || normalized.End.TimeZone != "UTC" {
		t.Fatalf("expected UTC zone tags, got %q and %q", normalized.Start.TimeZone, normalized.End.TimeZone)
	}
	if got := *normalized.Start.DateTime; !got.Equal(start) || got.Location() != time.UTC {
		t.Fatalf("expected start converted to UTC instant, got %v", got)
	}
	if normalized.Title != "Standup" {
		t.Fatalf("expected trimmed title, got %q", normalized.Title)
	}
}

func TestNormalizeEventLeavesDateOnlyUntouched(t *testing.T) {
	normalized := NormalizeEvent(Event{
		Start: NewDate(2026, time.April, 1),
		End:   NewDate(2026, time.April, 2),
	})

	if normalized.Start.Date != "2026-04-01" || normalized.Start.DateTime != nil {
		t.Fatalf("expected untouched date-only start, got %+v", normalized.Start)
	}
	if normalized.Start.TimeZone != "" {
		t.Fatalf("expected no zone tag on date-only value, got %q", normalized.Start.TimeZone)
	}
}

func TestNormalizeEventIsIdempotent(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	event := Event{
		Title:       "Review",
		Description: "<p>Agenda:</p><ul><li>one</li><li>two</li></ul>",
		Start:       NewDateTime(time.Date(2026, 1, 5, 9, 0, 0, 0, loc)),
		End:         NewDateTime(time.Date(2026, 1, 5, 10, 0, 0, 0, loc)),
	}

	once := NormalizeEvent(event)
	twice := NormalizeEvent(once)

	if once.Description != twice.Description ||
		once.Start.String() != twice.Start.String() ||
		once.Start.TimeZone != twice.Start.TimeZone ||
		once.End.String() != twice.End.String() {
		t.Fatalf("expected normalization to be idempotent, got %+v then %+v", once, twice)
	}
}

func TestCleanTextStripsMarkupAndCollapsesWhitespace(t *testing.T) {
	in := "<div>Hello   <b>world</b></div><br><br>\n\n\n\nBring   laptops &amp; chargers"
	got := CleanText(in)
	want := "Hello world\n\nBring laptops & chargers"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeTaskKeepsMissingDue(t *testing.T) {
	task := NormalizeTask(Task{Title: "  Buy milk "})
	if task.Due != nil {
		t.Fatalf("expected due to stay unset, got %v", task.Due)
	}
	if !task.IsTask {
		t.Fatalf("expected task flag to be set")
	}
	if task.Title != "Buy milk" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
}

func TestTaskAsEventUsesWindowStartWhenDueMissing(t *testing.T) {
	window := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	row := Task{ID: "t1", Title: "Ship release"}.AsEvent(window)

	if !row.IsTask {
		t.Fatalf("expected task projection to keep the task flag")
	}
	if row.Start.Date != "2026-02-01" {
		t.Fatalf("expected display date at window start, got %q", row.Start.Date)
	}
}

func TestParseEventTime(t *testing.T) {
	if _, err := ParseEventTime("not-a-time"); err == nil {
		t.Fatalf("expected parse error for garbage input")
	}

	dateOnly, err := ParseEventTime("2026-06-01")
	if err != nil || !dateOnly.IsDateOnly() {
		t.Fatalf("expected date-only value, got %+v (%v)", dateOnly, err)
	}

	instant, err := ParseEventTime("2026-06-01T10:00:00+02:00")
	if err != nil || instant.DateTime == nil {
		t.Fatalf("expected instant value, got %+v (%v)", instant, err)
	}
	if got := instant.Instant(); got != time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC) {
		t.Fatalf("expected UTC instant 08:00, got %v", got)
	}
}
