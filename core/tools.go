package orchestration

import (
	"encoding/json"
	"fmt"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/llms"
)

// ActionType names one supported calendar action. The set doubles as the
// toolset declared to the resolver.
type ActionType string

const (
	ActionListEvents  ActionType = "list_events"
	ActionListTasks   ActionType = "list_tasks"
	ActionCreateEvent ActionType = "create_event"
	ActionUpdateEvent ActionType = "update_event"
	ActionDeleteEvent ActionType = "delete_event"
	ActionCreateTask  ActionType = "create_task"
	ActionUpdateTask  ActionType = "update_task"
	ActionDeleteTask  ActionType = "delete_task"
)

// Mutating reports whether the action writes to a provider. Mutating
// actions always go through the confirmation step first.
func (t ActionType) Mutating() bool {
	switch t {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent,
		ActionCreateTask, ActionUpdateTask, ActionDeleteTask:
		return true
	}
	return false
}

// Tool argument structs double as the declared parameter schemas: fields
// without omitempty are required, which is how every mutating tool pins
// its provider-target selector.

type listEventsArgs struct {
	Target     string `json:"target,omitempty" jsonschema:"enum=google,enum=caldav,enum=combined,description=Provider to read from; omit for all configured providers"`
	TimeMin    string `json:"timeMin,omitempty" jsonschema:"description=Window start as RFC 3339 timestamp or YYYY-MM-DD date"`
	TimeMax    string `json:"timeMax,omitempty" jsonschema:"description=Window end as RFC 3339 timestamp or YYYY-MM-DD date"`
	Query      string `json:"query,omitempty" jsonschema:"description=Free-text filter over titles and descriptions"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type listTasksArgs struct {
	Target     string `json:"target,omitempty" jsonschema:"enum=google,enum=caldav,enum=combined,description=Provider to read from; omit for all configured providers"`
	TimeMin    string `json:"timeMin,omitempty" jsonschema:"description=Earliest due date as YYYY-MM-DD"`
	TimeMax    string `json:"timeMax,omitempty" jsonschema:"description=Latest due date as YYYY-MM-DD"`
	Query      string `json:"query,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type createEventArgs struct {
	Target          string   `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider the event is created on"`
	Title           string   `json:"title"`
	Attendees       []string `json:"attendees" jsonschema:"description=Attendee email addresses; at least one is required"`
	StartTime       string   `json:"startTime,omitempty" jsonschema:"description=RFC 3339 timestamp; omit for the next full hour"`
	EndTime         string   `json:"endTime,omitempty" jsonschema:"description=RFC 3339 timestamp; omit to derive from durationMinutes"`
	DurationMinutes int      `json:"durationMinutes,omitempty" jsonschema:"description=Event length in minutes when endTime is omitted"`
	Description     string   `json:"description,omitempty"`
}

type updateEventArgs struct {
	Target      string   `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider that owns the event"`
	EventID     string   `json:"eventId"`
	Title       string   `json:"title,omitempty"`
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
	Description string   `json:"description,omitempty"`
}

type deleteEventArgs struct {
	Target  string `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider that owns the event"`
	EventID string `json:"eventId"`
}

type createTaskArgs struct {
	Target string `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider the task is created on"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Due    string `json:"due,omitempty" jsonschema:"description=Due date as YYYY-MM-DD"`
}

type updateTaskArgs struct {
	Target string `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider that owns the task"`
	TaskID string `json:"taskId"`
	Title  string `json:"title,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Due    string `json:"due,omitempty" jsonschema:"description=Due date as YYYY-MM-DD"`
}

type deleteTaskArgs struct {
	Target string `json:"target" jsonschema:"enum=google,enum=caldav,description=Provider that owns the task"`
	TaskID string `json:"taskId"`
}

func toolset() []llms.Tool {
	return []llms.Tool{
		llms.NewTool[listEventsArgs](string(ActionListEvents), "List calendar events (tasks included as all-day entries) in a time window."),
		llms.NewTool[listTasksArgs](string(ActionListTasks), "List open tasks, optionally bounded by due date."),
		llms.NewTool[createEventArgs](string(ActionCreateEvent), "Schedule a new calendar event with attendees."),
		llms.NewTool[updateEventArgs](string(ActionUpdateEvent), "Change fields of an existing calendar event."),
		llms.NewTool[deleteEventArgs](string(ActionDeleteEvent), "Remove an existing calendar event."),
		llms.NewTool[createTaskArgs](string(ActionCreateTask), "Create a new task."),
		llms.NewTool[updateTaskArgs](string(ActionUpdateTask), "Change fields of an existing task."),
		llms.NewTool[deleteTaskArgs](string(ActionDeleteTask), "Remove an existing task."),
	}
}

// decodeMutation turns a mutating tool call into the flattened preview
// the caller sees and echoes back on execute.
func decodeMutation(call llms.ToolCall) (*ActionPreview, error) {
	switch ActionType(call.Name) {
	case ActionCreateEvent:
		args := createEventArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:            ActionCreateEvent,
			Target:          calendar.ProviderTag(args.Target),
			Title:           args.Title,
			Attendees:       args.Attendees,
			StartTime:       args.StartTime,
			EndTime:         args.EndTime,
			DurationMinutes: args.DurationMinutes,
			Description:     args.Description,
		}, nil
	case ActionUpdateEvent:
		args := updateEventArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:        ActionUpdateEvent,
			Target:      calendar.ProviderTag(args.Target),
			EventID:     args.EventID,
			Title:       args.Title,
			StartTime:   args.StartTime,
			EndTime:     args.EndTime,
			Attendees:   args.Attendees,
			Description: args.Description,
		}, nil
	case ActionDeleteEvent:
		args := deleteEventArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:    ActionDeleteEvent,
			Target:  calendar.ProviderTag(args.Target),
			EventID: args.EventID,
		}, nil
	case ActionCreateTask:
		args := createTaskArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:   ActionCreateTask,
			Target: calendar.ProviderTag(args.Target),
			Title:  args.Title,
			Notes:  args.Notes,
			Due:    args.Due,
		}, nil
	case ActionUpdateTask:
		args := updateTaskArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:   ActionUpdateTask,
			Target: calendar.ProviderTag(args.Target),
			TaskID: args.TaskID,
			Title:  args.Title,
			Notes:  args.Notes,
			Due:    args.Due,
		}, nil
	case ActionDeleteTask:
		args := deleteTaskArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		return &ActionPreview{
			Type:   ActionDeleteTask,
			Target: calendar.ProviderTag(args.Target),
			TaskID: args.TaskID,
		}, nil
	default:
		return nil, fmt.Errorf("unknown mutating tool %q", call.Name)
	}
}
