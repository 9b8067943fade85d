package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/llms"
)

const defaultEventDuration = 30 * time.Minute

// ActionPreview is the unconfirmed, fully-resolved description of a
// pending mutation. It is never stored server-side: the caller receives
// it, may edit it, and echoes it back on the execute call.
type ActionPreview struct {
	Type            ActionType           `json:"type"`
	Target          calendar.ProviderTag `json:"target,omitempty"`
	Title           string               `json:"title,omitempty"`
	Description     string               `json:"description,omitempty"`
	StartTime       string               `json:"startTime,omitempty"`
	EndTime         string               `json:"endTime,omitempty"`
	DurationMinutes int                  `json:"durationMinutes,omitempty"`
	Attendees       []string             `json:"attendees,omitempty"`
	EventID         string               `json:"eventId,omitempty"`
	TaskID          string               `json:"taskId,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Due             string               `json:"due,omitempty"`

	EventDetails        *calendar.Event `json:"eventDetails,omitempty"`
	TaskDetails         *calendar.Task  `json:"taskDetails,omitempty"`
	Conflict            *calendar.Event `json:"conflict,omitempty"`
	ConfirmationMessage string          `json:"confirmationMessage,omitempty"`
}

// buildPreview resolves a mutating tool call into a confirmable preview.
// A non-empty second return value is a clarifying question for the user;
// no preview is produced in that case.
func (o *Orchestrator) buildPreview(ctx context.Context, service *calendar.Service, call llms.ToolCall, now time.Time, loc *time.Location) (*ActionPreview, string) {
	ctx, span := tracer.Start(ctx, "build action preview")
	defer span.End()

	preview, err := decodeMutation(call)
	if err != nil {
		logger.WarnContext(ctx, "undecodable tool call arguments",
			"tool", call.Name, "error", err)
		return nil, "I couldn't work out the details of that action. Could you rephrase your request?"
	}
	if problem := validateAction(preview); problem != "" {
		return nil, problem
	}
	applyDefaults(preview, now)

	// Detail fetches are best-effort: a miss never blocks confirmation.
	switch preview.Type {
	case ActionUpdateEvent, ActionDeleteEvent:
		if event, err := service.GetEvent(ctx, preview.Target, preview.EventID); err != nil {
			logger.WarnContext(ctx, "event detail fetch failed, previewing without details",
				"eventID", preview.EventID, "error", err)
		} else {
			preview.EventDetails = event
		}
	case ActionUpdateTask, ActionDeleteTask:
		if task, err := service.GetTask(ctx, preview.Target, preview.TaskID); err != nil {
			logger.WarnContext(ctx, "task detail fetch failed, previewing without details",
				"taskID", preview.TaskID, "error", err)
		} else {
			preview.TaskDetails = task
		}
	}

	if start, end, ok := preview.window(); ok {
		preview.Conflict = service.CheckConflict(ctx, preview.Target, start, end, preview.EventID)
	}

	preview.ConfirmationMessage = composeConfirmation(preview, loc)
	return preview, ""
}

// validateAction checks the per-type required fields. It runs both when
// the preview is built and again on execute, because the caller may have
// edited the echoed preview in between. The returned string is a
// clarifying question, empty when the action is valid.
func validateAction(preview *ActionPreview) string {
	if preview.Target == calendar.ProviderCombined {
		return "Which calendar should this change apply to?"
	}
	if problem := validateTimes(preview); problem != "" {
		return problem
	}

	switch preview.Type {
	case ActionCreateEvent:
		if strings.TrimSpace(preview.Title) == "" {
			return "What should the event be called?"
		}
		if len(preview.Attendees) == 0 {
			return "Who should be invited? I need at least one attendee email address."
		}
		return validateAttendees(preview.Attendees)
	case ActionUpdateEvent:
		if preview.EventID == "" {
			return "Which event should I update? I couldn't pin down its id."
		}
		return validateAttendees(preview.Attendees)
	case ActionDeleteEvent:
		if preview.EventID == "" {
			return "Which event should I delete? I couldn't pin down its id."
		}
	case ActionCreateTask:
		if strings.TrimSpace(preview.Title) == "" {
			return "What should the task be called?"
		}
	case ActionUpdateTask:
		if preview.TaskID == "" {
			return "Which task should I update? I couldn't pin down its id."
		}
	case ActionDeleteTask:
		if preview.TaskID == "" {
			return "Which task should I delete? I couldn't pin down its id."
		}
	default:
		return "I don't know how to do that yet. Could you try describing it differently?"
	}
	return ""
}

func validateTimes(preview *ActionPreview) string {
	for _, value := range []string{preview.StartTime, preview.EndTime} {
		if value == "" {
			continue
		}
		if _, err := calendar.ParseEventTime(value); err != nil {
			return fmt.Sprintf("I couldn't understand the time %q. Could you restate it?", value)
		}
	}
	if preview.Due != "" {
		if _, err := calendar.ParseEventTime(preview.Due); err != nil {
			return fmt.Sprintf("I couldn't understand the due date %q. Could you restate it?", preview.Due)
		}
	}
	return ""
}

// validateAttendees applies the minimal syntactic email check.
func validateAttendees(attendees []string) string {
	for _, email := range attendees {
		if !validEmail(email) {
			return fmt.Sprintf("%q doesn't look like a valid email address. Could you double-check it?", email)
		}
	}
	return ""
}

func validEmail(email string) bool {
	return len(email) >= 5 && strings.Contains(email, "@") && strings.Contains(email, ".")
}

// applyDefaults fills the smart defaults for event creation: a missing
// start becomes the next full hour, a missing end becomes start plus the
// declared duration or 30 minutes.
func applyDefaults(preview *ActionPreview, now time.Time) {
	if preview.Type != ActionCreateEvent {
		return
	}
	if preview.StartTime == "" {
		preview.StartTime = now.UTC().Truncate(time.Hour).Add(time.Hour).Format(time.RFC3339)
	}
	if preview.EndTime != "" {
		return
	}
	start, err := calendar.ParseEventTime(preview.StartTime)
	if err != nil {
		return
	}
	if start.IsDateOnly() {
		preview.EndTime = preview.StartTime
		return
	}
	duration := defaultEventDuration
	if preview.DurationMinutes > 0 {
		duration = time.Duration(preview.DurationMinutes) * time.Minute
	}
	preview.EndTime = start.Instant().Add(duration).Format(time.RFC3339)
}

// window returns the concrete time window a preview proposes, when one is
// being set. Updates that only touch one edge borrow the other from the
// fetched details; without both edges no conflict check runs.
func (p *ActionPreview) window() (time.Time, time.Time, bool) {
	switch p.Type {
	case ActionCreateEvent:
	case ActionUpdateEvent:
		if p.StartTime == "" && p.EndTime == "" {
			return time.Time{}, time.Time{}, false
		}
	default:
		return time.Time{}, time.Time{}, false
	}

	start, end := p.StartTime, p.EndTime
	if p.Type == ActionUpdateEvent && p.EventDetails != nil {
		if start == "" {
			start = p.EventDetails.Start.String()
		}
		if end == "" {
			end = p.EventDetails.End.String()
		}
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, false
	}

	startTime, err := calendar.ParseEventTime(start)
	if err != nil || startTime.IsDateOnly() {
		return time.Time{}, time.Time{}, false
	}
	endTime, err := calendar.ParseEventTime(end)
	if err != nil || endTime.IsDateOnly() {
		return time.Time{}, time.Time{}, false
	}
	return startTime.Instant(), endTime.Instant(), true
}

// composeConfirmation phrases the pending action in the caller's local
// clock time.
func composeConfirmation(preview *ActionPreview, loc *time.Location) string {
	var sentence string
	switch preview.Type {
	case ActionCreateEvent:
		sentence = fmt.Sprintf("Create %q on %s from %s to %s with %s?",
			preview.Title,
			formatProvider(preview.Target),
			formatLocalTime(preview.StartTime, loc),
			formatLocalTime(preview.EndTime, loc),
			strings.Join(preview.Attendees, ", "))
	case ActionUpdateEvent:
		sentence = fmt.Sprintf("Update %s on %s", describeEvent(preview), formatProvider(preview.Target))
		if changes := describeEventChanges(preview, loc); changes != "" {
			sentence += ", setting " + changes
		}
		sentence += "?"
	case ActionDeleteEvent:
		sentence = fmt.Sprintf("Delete %s from %s?", describeEvent(preview), formatProvider(preview.Target))
	case ActionCreateTask:
		sentence = fmt.Sprintf("Create the task %q on %s", preview.Title, formatProvider(preview.Target))
		if preview.Due != "" {
			sentence += ", due " + preview.Due
		}
		sentence += "?"
	case ActionUpdateTask:
		sentence = fmt.Sprintf("Update %s on %s?", describeTask(preview), formatProvider(preview.Target))
	case ActionDeleteTask:
		sentence = fmt.Sprintf("Delete %s from %s?", describeTask(preview), formatProvider(preview.Target))
	}

	if preview.Conflict != nil {
		sentence += fmt.Sprintf(" Heads up: this overlaps %q starting %s.",
			preview.Conflict.Title,
			formatLocalTime(preview.Conflict.Start.String(), loc))
	}
	return sentence
}

func describeEvent(preview *ActionPreview) string {
	if preview.EventDetails != nil && preview.EventDetails.Title != "" {
		return fmt.Sprintf("%q", preview.EventDetails.Title)
	}
	return fmt.Sprintf("the event %s", preview.EventID)
}

func describeTask(preview *ActionPreview) string {
	if preview.TaskDetails != nil && preview.TaskDetails.Title != "" {
		return fmt.Sprintf("%q", preview.TaskDetails.Title)
	}
	return fmt.Sprintf("the task %s", preview.TaskID)
}

func describeEventChanges(preview *ActionPreview, loc *time.Location) string {
	changes := []string{}
	if preview.Title != "" {
		changes = append(changes, fmt.Sprintf("the title to %q", preview.Title))
	}
	if preview.StartTime != "" {
		changes = append(changes, "the start to "+formatLocalTime(preview.StartTime, loc))
	}
	if preview.EndTime != "" {
		changes = append(changes, "the end to "+formatLocalTime(preview.EndTime, loc))
	}
	if len(preview.Attendees) > 0 {
		changes = append(changes, "the attendees to "+strings.Join(preview.Attendees, ", "))
	}
	return strings.Join(changes, " and ")
}

func formatProvider(tag calendar.ProviderTag) string {
	switch tag {
	case calendar.ProviderGoogle:
		return "Google Calendar"
	case calendar.ProviderCalDAV:
		return "your CalDAV calendar"
	}
	return "your calendar"
}

// formatLocalTime renders a wire timestamp in the caller's local clock
// time, never as a UTC offset.
func formatLocalTime(value string, loc *time.Location) string {
	eventTime, err := calendar.ParseEventTime(value)
	if err != nil || eventTime.IsZero() {
		return value
	}
	if eventTime.IsDateOnly() {
		day, _ := time.Parse("2006-01-02", eventTime.Date)
		return day.Format("Monday, January 2")
	}
	return eventTime.Instant().In(loc).Format("Monday, January 2 at 3:04 PM")
}
