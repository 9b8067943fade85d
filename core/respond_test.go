package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/llms"
	"github.com/vbracun/aria-core/core/speechtotext"
)

// stubProvider implements calendar.Provider in-memory and counts every
// mutation so tests can assert none slipped past confirmation.
type stubProvider struct {
	tag    calendar.ProviderTag
	events []calendar.Event
	tasks  []calendar.Task

	createdEvents int
	updatedEvents int
	deletedEvents int
	createdTasks  int
	updatedTasks  int
	deletedTasks  int
}

func (s *stubProvider) mutationCalls() int {
	return s.createdEvents + s.updatedEvents + s.deletedEvents +
		s.createdTasks + s.updatedTasks + s.deletedTasks
}

func (s *stubProvider) GetEvent(_ context.Context, id string) (*calendar.Event, error) {
	for _, event := range s.events {
		if event.ID == id {
			return &event, nil
		}
	}
	return nil, &calendar.NotFoundError{Kind: "event", ID: id}
}

func (s *stubProvider) CreateEvent(_ context.Context, event calendar.Event) (*calendar.Event, error) {
	s.createdEvents++
	event.ID = "created-event"
	event.Source = s.tag
	return &event, nil
}

func (s *stubProvider) UpdateEvent(_ context.Context, id string, _ calendar.EventPatch) (*calendar.Event, error) {
	s.updatedEvents++
	return &calendar.Event{ID: id, Title: "updated", Source: s.tag}, nil
}

func (s *stubProvider) DeleteEvent(_ context.Context, id string) (*calendar.Event, error) {
	s.deletedEvents++
	return &calendar.Event{ID: id, Title: "deleted", Source: s.tag}, nil
}

func (s *stubProvider) ListEvents(_ context.Context, _ calendar.ListOptions) ([]calendar.Event, error) {
	return s.events, nil
}

func (s *stubProvider) GetTask(_ context.Context, id string) (*calendar.Task, error) {
	for _, task := range s.tasks {
		if task.ID == id {
			return &task, nil
		}
	}
	return nil, &calendar.NotFoundError{Kind: "task", ID: id}
}

func (s *stubProvider) CreateTask(_ context.Context, task calendar.Task) (*calendar.Task, error) {
	s.createdTasks++
	task.ID = "created-task"
	task.Source = s.tag
	return &task, nil
}

func (s *stubProvider) UpdateTask(_ context.Context, id string, _ calendar.TaskPatch) (*calendar.Task, error) {
	s.updatedTasks++
	return &calendar.Task{ID: id, Title: "updated", Source: s.tag, IsTask: true}, nil
}

func (s *stubProvider) DeleteTask(_ context.Context, id string) (*calendar.Task, error) {
	s.deletedTasks++
	return &calendar.Task{ID: id, Title: "deleted", Source: s.tag, IsTask: true}, nil
}

func (s *stubProvider) ListTasks(_ context.Context, _ calendar.ListOptions) ([]calendar.Task, error) {
	return s.tasks, nil
}

// stubLLM replays scripted responses and records every prompt it saw.
type stubLLM struct {
	responses []*llms.Response
	prompts   []llms.PromptOptions
	err       error
}

func (s *stubLLM) Prompt(_ context.Context, _ string, opts ...llms.PromptOption) (*llms.Response, error) {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.prompts = append(s.prompts, options)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &llms.Response{Content: "done"}, nil
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

type stubSpeechToText struct {
	transcript string
	err        error
	calls      int
}

func (s *stubSpeechToText) Transcribe(_ context.Context, _ []byte, _ ...speechtotext.TranscriptionOption) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.transcript, nil
}

func testProviders(provider *stubProvider) CalendarProviders {
	return func(_ context.Context, _ Credentials) (*calendar.Service, error) {
		service := calendar.NewService()
		service.Register(provider.tag, provider)
		return service, nil
	}
}

var testClock = func() time.Time {
	return time.Date(2026, 3, 10, 14, 25, 0, 0, time.UTC)
}

func newTestOrchestrator(llm *stubLLM, provider *stubProvider, opts ...OrchestratorOption) *Orchestrator {
	base := []OrchestratorOption{
		WithLLMClient(llm),
		WithCalendarProviders(testProviders(provider)),
		WithClock(testClock),
	}
	return NewOrchestrator(append(base, opts...)...)
}

func toolCall(id string, action ActionType, arguments string) llms.ToolCall {
	return llms.ToolCall{ID: id, Name: string(action), Arguments: arguments}
}

func TestRespondClarifiesWithoutToolCall(t *testing.T) {
	llm := &stubLLM{responses: []*llms.Response{
		{Content: "Which day did you mean?"},
	}}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "move my meeting"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.Success || !result.NeedsClarification {
		t.Fatalf("expected a clarification, got %+v", result)
	}
	if result.Message != "Which day did you mean?" {
		t.Fatalf("unexpected clarification message %q", result.Message)
	}
	last := result.History[len(result.History)-1]
	if last.Role != llms.RoleAssistant || last.Content != result.Message {
		t.Fatalf("expected the clarification appended to history, got %+v", last)
	}
}

func TestRespondActsOnFirstToolCallOnly(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{
			toolCall("call-1", ActionDeleteEvent, `{"target":"google","eventId":"evt-1"}`),
			toolCall("call-2", ActionDeleteEvent, `{"target":"google","eventId":"evt-2"}`),
		}},
	}}
	orchestrator := newTestOrchestrator(llm, provider)

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "delete both meetings"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.NeedsConfirmation || result.Action == nil {
		t.Fatalf("expected a confirmation preview, got %+v", result)
	}
	if result.Action.EventID != "evt-1" {
		t.Fatalf("expected only the first tool call to be acted on, got event %q", result.Action.EventID)
	}
	if provider.mutationCalls() != 0 {
		t.Fatalf("expected no mutations before confirmation, got %d", provider.mutationCalls())
	}
}

func TestRespondExecutesReadAndSummarizes(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	provider := &stubProvider{tag: calendar.ProviderGoogle, events: []calendar.Event{{
		ID:    "evt-1",
		Title: "Standup",
		Start: calendar.NewDateTime(start),
		End:   calendar.NewDateTime(start.Add(30 * time.Minute)),
	}}}
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionListEvents, `{}`)}},
		{Content: "You have one meeting today: Standup at 9:00 AM."},
	}}
	orchestrator := newTestOrchestrator(llm, provider)

	history := []llms.Turn{llms.UserTurn("hi"), llms.AssistantTurn("Hello!")}
	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "what's on today?", History: history})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.Success || !result.Executed {
		t.Fatalf("expected an executed read, got %+v", result)
	}
	if len(result.Events) != 1 || result.Events[0].Title != "Standup" {
		t.Fatalf("expected the listing on the result, got %+v", result.Events)
	}
	if result.Message != "You have one meeting today: Standup at 9:00 AM." {
		t.Fatalf("unexpected summary %q", result.Message)
	}
	// user turn, assistant tool call, tool result, assistant summary
	if len(result.History) != len(history)+4 {
		t.Fatalf("expected %d history turns, got %d", len(history)+4, len(result.History))
	}
	if result.History[len(result.History)-2].Role != llms.RoleTool {
		t.Fatalf("expected a tool-result turn in history, got %+v", result.History[len(result.History)-2])
	}
}

func TestRespondChainsListIntoMutation(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle, events: []calendar.Event{{
		ID:    "evt-1",
		Title: "Dentist",
		Start: calendar.NewDateTime(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		End:   calendar.NewDateTime(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)),
	}}}
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionListEvents, `{"query":"dentist"}`)}},
		{ToolCalls: []llms.ToolCall{toolCall("call-2", ActionDeleteEvent, `{"target":"google","eventId":"evt-1"}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, provider)

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "cancel my dentist appointment"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.NeedsConfirmation || result.Action == nil {
		t.Fatalf("expected the chained mutation to reach confirmation, got %+v", result)
	}
	if result.Action.Type != ActionDeleteEvent || result.Action.EventID != "evt-1" {
		t.Fatalf("unexpected chained action %+v", result.Action)
	}
	if result.Executed || len(result.Events) != 0 {
		t.Fatalf("expected the intermediate listing not to surface, got %+v", result)
	}
	if provider.mutationCalls() != 0 {
		t.Fatalf("expected no mutations before confirmation, got %d", provider.mutationCalls())
	}
	if result.Action.EventDetails == nil || result.Action.EventDetails.Title != "Dentist" {
		t.Fatalf("expected fetched details on the preview, got %+v", result.Action.EventDetails)
	}
}

func TestRespondNeverMutatesBeforeConfirmation(t *testing.T) {
	cases := []struct {
		action    ActionType
		arguments string
	}{
		{ActionCreateEvent, `{"target":"google","title":"Sync","attendees":["a@x.com"],"startTime":"2026-03-11T15:00:00Z"}`},
		{ActionUpdateEvent, `{"target":"google","eventId":"evt-1","title":"Renamed"}`},
		{ActionDeleteEvent, `{"target":"google","eventId":"evt-1"}`},
		{ActionCreateTask, `{"target":"google","title":"Buy milk"}`},
		{ActionUpdateTask, `{"target":"google","taskId":"task-1","title":"Buy oat milk"}`},
		{ActionDeleteTask, `{"target":"google","taskId":"task-1"}`},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			provider := &stubProvider{tag: calendar.ProviderGoogle}
			llm := &stubLLM{responses: []*llms.Response{
				{ToolCalls: []llms.ToolCall{toolCall("call-1", tc.action, tc.arguments)}},
			}}
			orchestrator := newTestOrchestrator(llm, provider)

			result, err := orchestrator.Respond(context.Background(), Request{Prompt: "do it"})
			if err != nil {
				t.Fatalf("expected respond to succeed, got %v", err)
			}
			if !result.NeedsConfirmation {
				t.Fatalf("expected %s to require confirmation, got %+v", tc.action, result)
			}
			if provider.mutationCalls() != 0 {
				t.Fatalf("%s mutated before confirmation (%d calls)", tc.action, provider.mutationCalls())
			}
		})
	}
}

func TestRespondDefaultsEndTimeToThirtyMinutes(t *testing.T) {
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionCreateEvent,
			`{"target":"google","title":"Meeting","attendees":["a@x.com"],"startTime":"2026-03-11T15:00:00Z"}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "schedule a meeting with a@x.com tomorrow 3pm"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if result.Action == nil {
		t.Fatalf("expected a preview, got %+v", result)
	}
	if result.Action.EndTime != "2026-03-11T15:30:00Z" {
		t.Fatalf("expected the end to default to start+30min, got %q", result.Action.EndTime)
	}
}

func TestRespondDefaultsStartToNextFullHour(t *testing.T) {
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionCreateEvent,
			`{"target":"google","title":"Catch-up","attendees":["a@x.com"],"durationMinutes":45}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "set up a catch-up with a@x.com"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if result.Action == nil {
		t.Fatalf("expected a preview, got %+v", result)
	}
	if result.Action.StartTime != "2026-03-10T15:00:00Z" {
		t.Fatalf("expected the start to default to the next full hour, got %q", result.Action.StartTime)
	}
	if result.Action.EndTime != "2026-03-10T15:45:00Z" {
		t.Fatalf("expected the declared duration to set the end, got %q", result.Action.EndTime)
	}
}

func TestRespondRejectsBadAttendeeEmail(t *testing.T) {
	provider := &stubProvider{tag: calendar.ProviderGoogle}
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionCreateEvent,
			`{"target":"google","title":"Meeting","attendees":["not-an-email"],"startTime":"2026-03-11T15:00:00Z"}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, provider)

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "schedule a meeting with not-an-email"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.NeedsClarification || result.Action != nil {
		t.Fatalf("expected a clarification without a preview, got %+v", result)
	}
	if !strings.Contains(result.Message, "not-an-email") {
		t.Fatalf("expected the bad address in the clarification, got %q", result.Message)
	}
	if provider.mutationCalls() != 0 {
		t.Fatalf("expected no mutations, got %d", provider.mutationCalls())
	}
}

func TestRespondFlagsConflictOnPreview(t *testing.T) {
	existingStart := time.Date(2026, 3, 11, 15, 15, 0, 0, time.UTC)
	provider := &stubProvider{tag: calendar.ProviderGoogle, events: []calendar.Event{{
		ID:    "evt-busy",
		Title: "Standup",
		Start: calendar.NewDateTime(existingStart),
		End:   calendar.NewDateTime(existingStart.Add(15 * time.Minute)),
	}}}
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionCreateEvent,
			`{"target":"google","title":"Meeting","attendees":["a@x.com"],"startTime":"2026-03-11T15:00:00Z","endTime":"2026-03-11T16:00:00Z"}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, provider)

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "schedule a meeting tomorrow 3pm"})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if result.Action == nil || result.Action.Conflict == nil {
		t.Fatalf("expected the overlap on the preview, got %+v", result.Action)
	}
	if result.Action.Conflict.Title != "Standup" {
		t.Fatalf("unexpected conflict %+v", result.Action.Conflict)
	}
	if !result.NeedsConfirmation {
		t.Fatalf("a conflict must not block confirmation, got %+v", result)
	}
}

func TestRespondResolutionFailurePreservesHistory(t *testing.T) {
	llm := &stubLLM{err: errors.New("model unavailable")}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	_, err := orchestrator.Respond(context.Background(), Request{Prompt: "hello"})
	if err == nil {
		t.Fatalf("expected a resolution error")
	}
	var resolutionErr *ResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("expected a ResolutionError, got %T: %v", err, err)
	}
}

func TestRespondEmptyPromptAsksForInput(t *testing.T) {
	llm := &stubLLM{}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	result, err := orchestrator.Respond(context.Background(), Request{Prompt: "   "})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.NeedsClarification {
		t.Fatalf("expected a clarification, got %+v", result)
	}
	if len(llm.prompts) != 0 {
		t.Fatalf("expected no resolver call for an empty prompt, got %d", len(llm.prompts))
	}
}

func TestRespondSystemPromptCarriesSituation(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	provider := &stubProvider{tag: calendar.ProviderGoogle, events: []calendar.Event{{
		ID:        "evt-1",
		Title:     "Standup",
		Start:     calendar.NewDateTime(start),
		End:       calendar.NewDateTime(start.Add(30 * time.Minute)),
		Attendees: []calendar.Attendee{{Email: "a@x.com"}},
	}}}
	llm := &stubLLM{responses: []*llms.Response{{Content: "Hi!"}}}
	orchestrator := newTestOrchestrator(llm, provider)

	if _, err := orchestrator.Respond(context.Background(), Request{Prompt: "hello"}); err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("expected one resolver call, got %d", len(llm.prompts))
	}
	instructions := llm.prompts[0].Instructions
	for _, want := range []string{"Standup", "a@x.com", "google"} {
		if !strings.Contains(instructions, want) {
			t.Fatalf("expected %q in the system prompt, got:\n%s", want, instructions)
		}
	}
	if len(llm.prompts[0].Tools) != 8 {
		t.Fatalf("expected the full toolset declared, got %d tools", len(llm.prompts[0].Tools))
	}
}

func TestRespondConfirmationUsesLocalClock(t *testing.T) {
	llm := &stubLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", ActionCreateEvent,
			`{"target":"google","title":"Meeting","attendees":["a@x.com"],"startTime":"2026-03-11T15:00:00Z","endTime":"2026-03-11T16:00:00Z"}`)}},
	}}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle})

	result, err := orchestrator.Respond(context.Background(), Request{
		Prompt:                "schedule a meeting tomorrow",
		TimezoneOffsetMinutes: 120,
	})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !strings.Contains(result.Message, "5:00 PM") {
		t.Fatalf("expected the confirmation in local time, got %q", result.Message)
	}
	if strings.Contains(result.Message, "UTC") {
		t.Fatalf("confirmation must not mention UTC offsets, got %q", result.Message)
	}
}

func TestFrequentCorrespondentsRanksByCount(t *testing.T) {
	meeting := func(emails ...string) calendar.Event {
		event := calendar.Event{}
		for _, email := range emails {
			event.Attendees = append(event.Attendees, calendar.Attendee{Email: email})
		}
		return event
	}
	correspondents := frequentCorrespondents([]calendar.Event{
		meeting("b@x.com", "a@x.com"),
		meeting("b@x.com"),
		meeting("c@x.com", "b@x.com"),
		meeting("a@x.com"),
	}, 2)
	if len(correspondents) != 2 || correspondents[0] != "b@x.com" || correspondents[1] != "a@x.com" {
		t.Fatalf("unexpected ranking %v", correspondents)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@example.org"}
	invalid := []string{"not-an-email", "a@b", "x.y", "@.", ""}
	for _, email := range valid {
		if !validEmail(email) {
			t.Fatalf("expected %q to pass", email)
		}
	}
	for _, email := range invalid {
		if validEmail(email) {
			t.Fatalf("expected %q to fail", email)
		}
	}
}

func TestRespondOversizedAudioShortCircuits(t *testing.T) {
	speech := &stubSpeechToText{transcript: "should not be used"}
	llm := &stubLLM{}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle},
		WithSpeechToTextClient(speech),
		WithMaxAudioBytes(16),
	)

	result, err := orchestrator.Respond(context.Background(), Request{
		Audio:     make([]byte, 64),
		AudioMIME: "audio/webm",
	})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if !result.NeedsClarification || result.Message != longAudioMessage {
		t.Fatalf("expected the canned summarize message, got %+v", result)
	}
	if speech.calls != 0 {
		t.Fatalf("expected the transcription collaborator to be skipped, got %d calls", speech.calls)
	}
	if len(llm.prompts) != 0 {
		t.Fatalf("expected no resolver call, got %d", len(llm.prompts))
	}
}

func TestRespondTranscribesAudio(t *testing.T) {
	speech := &stubSpeechToText{transcript: "what's on my calendar today"}
	llm := &stubLLM{responses: []*llms.Response{{Content: "Nothing today."}}}
	orchestrator := newTestOrchestrator(llm, &stubProvider{tag: calendar.ProviderGoogle},
		WithSpeechToTextClient(speech),
	)

	result, err := orchestrator.Respond(context.Background(), Request{
		Audio:     []byte("tiny"),
		AudioMIME: "audio/webm",
	})
	if err != nil {
		t.Fatalf("expected respond to succeed, got %v", err)
	}
	if speech.calls != 1 {
		t.Fatalf("expected one transcription call, got %d", speech.calls)
	}
	if result.Transcript != "what's on my calendar today" {
		t.Fatalf("expected the transcript on the result, got %q", result.Transcript)
	}
	userTurn := result.History[0]
	if userTurn.Role != llms.RoleUser || userTurn.Content != "what's on my calendar today" {
		t.Fatalf("expected the transcript as the user turn, got %+v", userTurn)
	}
}
