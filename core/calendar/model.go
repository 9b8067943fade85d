package calendar

import (
	"fmt"
	"time"
)

// ProviderTag identifies one configured calendar/task backend.
type ProviderTag string

const (
	ProviderGoogle ProviderTag = "google"
	ProviderCalDAV ProviderTag = "caldav"

	// ProviderCombined fans reads out to every configured provider. It is
	// never a valid mutation target.
	ProviderCombined ProviderTag = "combined"
)

const dateLayout = "2006-01-02"

// EventTime is either a date-only value or an instant carrying the zone
// label the provider originally reported. After normalization the instant
// is in UTC and TimeZone reads "UTC".
type EventTime struct {
	Date     string     `json:"date,omitempty"`
	DateTime *time.Time `json:"dateTime,omitempty"`
	TimeZone string     `json:"timeZone,omitempty"`
}

// NewDateTime builds an instant-valued EventTime.
func NewDateTime(t time.Time) EventTime {
	return EventTime{DateTime: &t, TimeZone: t.Location().String()}
}

// NewDate builds a date-only EventTime.
func NewDate(year int, month time.Month, day int) EventTime {
	return EventTime{Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout)}
}

// ParseEventTime accepts either an RFC 3339 timestamp or a bare
// "2006-01-02" date.
func ParseEventTime(value string) (EventTime, error) {
	if value == "" {
		return EventTime{}, fmt.Errorf("empty time value")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return NewDateTime(t), nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return EventTime{}, fmt.Errorf("unrecognized time value %q: %w", value, err)
	}
	return EventTime{Date: value}, nil
}

func (t EventTime) IsDateOnly() bool {
	return t.Date != ""
}

func (t EventTime) IsZero() bool {
	return t.Date == "" && t.DateTime == nil
}

// Instant returns the UTC instant used for sorting and overlap checks.
// Date-only values sort by midnight UTC.
func (t EventTime) Instant() time.Time {
	if t.DateTime != nil {
		return t.DateTime.UTC()
	}
	if t.Date != "" {
		if day, err := time.Parse(dateLayout, t.Date); err == nil {
			return day
		}
	}
	return time.Time{}
}

// String renders the value the way it should appear on the wire.
func (t EventTime) String() string {
	if t.IsDateOnly() {
		return t.Date
	}
	if t.DateTime != nil {
		return t.DateTime.Format(time.RFC3339)
	}
	return ""
}

type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Event is the provider-agnostic projection every adapter normalizes into.
// Instances are ephemeral: created per read, discarded with the response.
type Event struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Start          EventTime   `json:"start"`
	End            EventTime   `json:"end"`
	Attendees      []Attendee  `json:"attendees,omitempty"`
	ConferenceLink string      `json:"conferenceLink,omitempty"`
	Source         ProviderTag `json:"source"`
	IsTask         bool        `json:"isTask"`
}

// Task is the provider-agnostic task projection. Due is date-only and may
// be absent.
type Task struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Notes  string      `json:"notes,omitempty"`
	Due    *time.Time  `json:"due,omitempty"`
	Source ProviderTag `json:"source"`
	IsTask bool        `json:"isTask"`
}

// AsEvent projects the task into an event row for range-filtered listings.
// A task without a due date is displayed at the start of the active query
// window; that is a display convention, the stored task keeps no due date.
func (t Task) AsEvent(windowStart time.Time) Event {
	due := windowStart
	if t.Due != nil {
		due = *t.Due
	}
	when := EventTime{Date: due.UTC().Format(dateLayout)}
	return Event{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Notes,
		Start:       when,
		End:         when,
		Source:      t.Source,
		IsTask:      true,
	}
}

// EventPatch is a partial event update. Nil fields are preserved from the
// existing object.
type EventPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Start       *EventTime  `json:"start,omitempty"`
	End         *EventTime  `json:"end,omitempty"`
	Attendees   *[]Attendee `json:"attendees,omitempty"`
}

func (p EventPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Start == nil && p.End == nil && p.Attendees == nil
}

// ChangesWindow reports whether the patch moves the event in time.
func (p EventPatch) ChangesWindow() bool {
	return p.Start != nil || p.End != nil
}

// TaskPatch is a partial task update. Nil fields are preserved.
type TaskPatch struct {
	Title *string    `json:"title,omitempty"`
	Notes *string    `json:"notes,omitempty"`
	Due   *time.Time `json:"due,omitempty"`
}

// ListOptions bound a read. Zero values mean "unbounded" except
// MaxResults, where zero means no truncation.
type ListOptions struct {
	TimeMin    *time.Time
	TimeMax    *time.Time
	MaxResults int
	Query      string
}
