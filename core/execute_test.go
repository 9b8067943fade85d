package orchestration

import (
	"context"
	"testing"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/interactionlog"
)

type recordingLog struct {
	entries []interactionlog.Entry
}

func (r *recordingLog) Record(_ context.Context, entry interactionlog.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func TestExecuteCancelledMakesNoCalls(t *testing.T) {
	factoryCalls := 0
	orchestrator := NewOrchestrator(
		WithCalendarProviders(func(_ context.Context, _ Credentials) (*calendar.Service, error) {
			factoryCalls++
			return calendar.NewService(), nil
		}),
	)

	result, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action:    ActionPreview{Type: ActionDeleteEvent, Target: calendar.ProviderGoogle, EventID: "evt-1"},
		Confirmed: false,
	})
	if err != nil {
		t.Fatalf("expected execute to succeed, got %v", err)
	}
	if !result.Success || !result.Cancelled {
		t.Fatalf("expected a cancelled result, got %+v", result)
	}
	if result.Executed || result.Error != "" {
		t.Fatalf("expected no execution, got %+v", result)
	}
	if factoryCalls != 0 {
		t.Fatalf("expected no provider construction on cancel, got %d", factoryCalls)
	}
}

func TestExecuteRevalidatesEditedAction(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider)

	// The caller edited the echoed preview and broke an attendee address.
	result, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action: ActionPreview{
			Type:      ActionCreateEvent,
			Target:    calendar.ProviderGoogle,
			Title:     "Meeting",
			Attendees: []string{"broken"},
			StartTime: "2026-03-11T15:00:00Z",
			EndTime:   "2026-03-11T15:30:00Z",
		},
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("expected execute to return a result, got %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("expected a validation failure, got %+v", result)
	}
	if provider.mutationCalls() != 0 {
		t.Fatalf("expected no mutations for an invalid action, got %d", provider.mutationCalls())
	}
}

func TestExecuteDispatchesCreateEvent(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	recorder := &recordingLog{}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider, WithInteractionRecorder(recorder))

	action := ActionPreview{
		Type:      ActionCreateEvent,
		Target:    calendar.ProviderGoogle,
		Title:     "Meeting",
		Attendees: []string{"a@x.com"},
		StartTime: "2026-03-11T15:00:00Z",
		EndTime:   "2026-03-11T15:30:00Z",
	}
	result, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action:      action,
		Confirmed:   true,
		Credentials: Credentials{UserEmail: "user@x.com"},
	})
	if err != nil {
		t.Fatalf("expected execute to succeed, got %v", err)
	}
	if !result.Success || !result.Executed {
		t.Fatalf("expected an executed result, got %+v", result)
	}
	if provider.createdEvents != 1 {
		t.Fatalf("expected one create call, got %d", provider.createdEvents)
	}
	if result.Event == nil || result.Event.ID != "created-event" {
		t.Fatalf("expected the created event on the result, got %+v", result.Event)
	}
	if result.Action == nil || result.Action.Title != action.Title {
		t.Fatalf("expected the action echoed back, got %+v", result.Action)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].UserEmail != "user@x.com" {
		t.Fatalf("expected one recorded interaction for the user, got %+v", recorder.entries)
	}
	if recorder.entries[0].ActionType != string(ActionCreateEvent) {
		t.Fatalf("unexpected recorded action type %q", recorder.entries[0].ActionType)
	}
}

func TestExecuteAppliesDefaultsBeforeDispatch(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider)

	result, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action: ActionPreview{
			Type:      ActionCreateEvent,
			Target:    calendar.ProviderGoogle,
			Title:     "Meeting",
			Attendees: []string{"a@x.com"},
		},
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("expected execute to succeed, got %v", err)
	}
	if result.Action.StartTime != "2026-03-10T15:00:00Z" || result.Action.EndTime != "2026-03-10T15:30:00Z" {
		t.Fatalf("expected defaulted window on the echoed action, got start %q end %q",
			result.Action.StartTime, result.Action.EndTime)
	}
}

func TestExecuteRepeatsWithoutDeduplication(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider)

	request := ExecuteRequest{
		Action: ActionPreview{
			Type:      ActionCreateEvent,
			Target:    calendar.ProviderGoogle,
			Title:     "Meeting",
			Attendees: []string{"a@x.com"},
			StartTime: "2026-03-11T15:00:00Z",
			EndTime:   "2026-03-11T15:30:00Z",
		},
		Confirmed: true,
	}
	for range 2 {
		if _, err := orchestrator.Execute(context.Background(), request); err != nil {
			t.Fatalf("expected execute to succeed, got %v", err)
		}
	}
	if provider.createdEvents != 2 {
		t.Fatalf("expected two identical confirmations to create twice, got %d", provider.createdEvents)
	}
}

func TestExecuteDispatchesTaskMutations(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider)

	create, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action:    ActionPreview{Type: ActionCreateTask, Target: calendar.ProviderGoogle, Title: "Buy milk", Due: "2026-03-12"},
		Confirmed: true,
	})
	if err != nil || !create.Executed {
		t.Fatalf("expected the task creation to execute, got %+v (%v)", create, err)
	}
	remove, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action:    ActionPreview{Type: ActionDeleteTask, Target: calendar.ProviderGoogle, TaskID: "task-1"},
		Confirmed: true,
	})
	if err != nil || !remove.Executed {
		t.Fatalf("expected the task deletion to execute, got %+v (%v)", remove, err)
	}
	if provider.createdTasks != 1 || provider.deletedTasks != 1 {
		t.Fatalf("unexpected task call counts: created %d deleted %d", provider.createdTasks, provider.deletedTasks)
	}
}

func TestExecuteRejectsCombinedTarget(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	orchestrator := newTestOrchestrator(&stubLLM{}, provider)

	result, err := orchestrator.Execute(context.Background(), ExecuteRequest{
		Action:    ActionPreview{Type: ActionDeleteEvent, Target: calendar.ProviderCombined, EventID: "evt-1"},
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("expected execute to return a result, got %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("expected the combined target to be rejected, got %+v", result)
	}
	if provider.mutationCalls() != 0 {
		t.Fatalf("expected no mutations, got %d", provider.mutationCalls())
	}
}
