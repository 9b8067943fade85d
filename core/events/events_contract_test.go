package events

import "testing"

func TestEventKinds(t *testing.T) {
	cases := []struct {
		event Event
		kind  Kind
	}{
		{NewTranscriptionFinal("hello"), KindTranscriptionFinal},
		{NewIntentResolved("list_events"), KindIntentResolved},
		{NewToolCallStarted("id", "list_events", "{}"), KindToolCallStarted},
		{NewToolCallCompleted("id", "list_events", "[]"), KindToolCallCompleted},
		{NewToolCallFailed("id", "list_events", "boom"), KindToolCallFailed},
		{NewResponseClarification("who?"), KindResponseClarification},
		{NewResponseConfirmationRequired("create_event", "Create?"), KindResponseConfirmationRequired},
		{NewResponseExecuted("list_events", "done"), KindResponseExecuted},
		{NewPipelineFailed("boom"), KindPipelineFailed},
	}

	for _, c := range cases {
		if c.event.Kind() != c.kind {
			t.Fatalf("expected kind %q, got %q", c.kind, c.event.Kind())
		}
		if c.event.Timestamp().IsZero() {
			t.Fatalf("expected %q to carry a timestamp", c.kind)
		}
	}
}
