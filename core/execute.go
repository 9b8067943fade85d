package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Execute applies or cancels a previously previewed action. It is a pure
// command: no conversation history, no resolver involvement. The action
// is re-validated because the caller may have edited the echoed preview.
// Repeated confirmed calls apply the mutation again each time; there is
// no deduplication token.
func (o *Orchestrator) Execute(ctx context.Context, req ExecuteRequest) (*Result, error) {
	ctx, span := tracer.Start(ctx, "execute confirmed action")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.action", string(req.Action.Type)),
		attribute.Bool("request.confirmed", req.Confirmed),
	)

	if !req.Confirmed {
		return &Result{Success: true, Cancelled: true}, nil
	}

	action := req.Action
	if problem := validateAction(&action); problem != "" {
		return &Result{Success: false, Error: problem}, nil
	}
	applyDefaults(&action, o.now())

	service, err := o.providers(ctx, req.Credentials)
	if err != nil {
		err = fmt.Errorf("configure calendar providers: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &Result{Success: false, Error: err.Error()}, nil
	}

	result, err := o.dispatch(ctx, service, &action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &Result{Success: false, Error: err.Error(), Action: &action}, nil
	}
	result.Action = &action
	o.recordInteraction(ctx, req.Credentials.UserEmail, action.Type, action.Target, &action)
	return result, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, service *calendar.Service, action *ActionPreview) (*Result, error) {
	switch action.Type {
	case ActionCreateEvent:
		event, err := eventFromPreview(action)
		if err != nil {
			return nil, err
		}
		created, err := service.CreateEvent(ctx, action.Target, event)
		if err != nil {
			return nil, err
		}
		return executed(fmt.Sprintf("Created %q.", created.Title), created, nil), nil
	case ActionUpdateEvent:
		patch, err := eventPatchFromPreview(action)
		if err != nil {
			return nil, err
		}
		updated, err := service.UpdateEvent(ctx, action.Target, action.EventID, patch)
		if err != nil {
			return nil, err
		}
		return executed(fmt.Sprintf("Updated %q.", updated.Title), updated, nil), nil
	case ActionDeleteEvent:
		deleted, err := service.DeleteEvent(ctx, action.Target, action.EventID)
		if err != nil {
			return nil, err
		}
		message := "Deleted the event."
		if deleted != nil && deleted.Title != "" {
			message = fmt.Sprintf("Deleted %q.", deleted.Title)
		}
		return executed(message, deleted, nil), nil
	case ActionCreateTask:
		task, err := taskFromPreview(action)
		if err != nil {
			return nil, err
		}
		created, err := service.CreateTask(ctx, action.Target, task)
		if err != nil {
			return nil, err
		}
		return executed(fmt.Sprintf("Created the task %q.", created.Title), nil, created), nil
	case ActionUpdateTask:
		patch, err := taskPatchFromPreview(action)
		if err != nil {
			return nil, err
		}
		updated, err := service.UpdateTask(ctx, action.Target, action.TaskID, patch)
		if err != nil {
			return nil, err
		}
		return executed(fmt.Sprintf("Updated the task %q.", updated.Title), nil, updated), nil
	case ActionDeleteTask:
		deleted, err := service.DeleteTask(ctx, action.Target, action.TaskID)
		if err != nil {
			return nil, err
		}
		message := "Deleted the task."
		if deleted != nil && deleted.Title != "" {
			message = fmt.Sprintf("Deleted the task %q.", deleted.Title)
		}
		return executed(message, nil, deleted), nil
	default:
		return nil, &calendar.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown action type %q", action.Type)}
	}
}

func executed(message string, event *calendar.Event, task *calendar.Task) *Result {
	return &Result{
		Success:  true,
		Executed: true,
		Message:  message,
		Event:    event,
		Task:     task,
	}
}

func eventFromPreview(action *ActionPreview) (calendar.Event, error) {
	start, err := calendar.ParseEventTime(action.StartTime)
	if err != nil {
		return calendar.Event{}, &calendar.ValidationError{Field: "startTime", Reason: err.Error()}
	}
	end, err := calendar.ParseEventTime(action.EndTime)
	if err != nil {
		return calendar.Event{}, &calendar.ValidationError{Field: "endTime", Reason: err.Error()}
	}
	return calendar.Event{
		Title:       action.Title,
		Description: action.Description,
		Start:       start,
		End:         end,
		Attendees:   attendeesFromEmails(action.Attendees),
	}, nil
}

func eventPatchFromPreview(action *ActionPreview) (calendar.EventPatch, error) {
	patch := calendar.EventPatch{}
	if action.Title != "" {
		patch.Title = utils.Ptr(action.Title)
	}
	if action.Description != "" {
		patch.Description = utils.Ptr(action.Description)
	}
	if action.StartTime != "" {
		start, err := calendar.ParseEventTime(action.StartTime)
		if err != nil {
			return patch, &calendar.ValidationError{Field: "startTime", Reason: err.Error()}
		}
		patch.Start = &start
	}
	if action.EndTime != "" {
		end, err := calendar.ParseEventTime(action.EndTime)
		if err != nil {
			return patch, &calendar.ValidationError{Field: "endTime", Reason: err.Error()}
		}
		patch.End = &end
	}
	if len(action.Attendees) > 0 {
		patch.Attendees = utils.Ptr(attendeesFromEmails(action.Attendees))
	}
	return patch, nil
}

func taskFromPreview(action *ActionPreview) (calendar.Task, error) {
	task := calendar.Task{
		Title:  action.Title,
		Notes:  action.Notes,
		IsTask: true,
	}
	if action.Due != "" {
		due, err := parseDueDate(action.Due)
		if err != nil {
			return task, err
		}
		task.Due = &due
	}
	return task, nil
}

func taskPatchFromPreview(action *ActionPreview) (calendar.TaskPatch, error) {
	patch := calendar.TaskPatch{}
	if action.Title != "" {
		patch.Title = utils.Ptr(action.Title)
	}
	if action.Notes != "" {
		patch.Notes = utils.Ptr(action.Notes)
	}
	if action.Due != "" {
		due, err := parseDueDate(action.Due)
		if err != nil {
			return patch, err
		}
		patch.Due = &due
	}
	return patch, nil
}

func parseDueDate(value string) (time.Time, error) {
	eventTime, err := calendar.ParseEventTime(value)
	if err != nil {
		return time.Time{}, &calendar.ValidationError{Field: "due", Reason: err.Error()}
	}
	instant := eventTime.Instant()
	return time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, time.UTC), nil
}

func attendeesFromEmails(emails []string) []calendar.Attendee {
	attendees := make([]calendar.Attendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, calendar.Attendee{Email: email})
	}
	return attendees
}
