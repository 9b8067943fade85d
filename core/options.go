package orchestration

import (
	"context"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/events"
	"github.com/vbracun/aria-core/core/interactionlog"
	"github.com/vbracun/aria-core/core/llms"
	"github.com/vbracun/aria-core/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

// LLM resolves conversation turns into a natural-language reply and/or
// tool calls. Tool calls come back undecoded and unexecuted; acting on
// them is the orchestrator's job.
type LLM interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error)
}

func WithLLMClient(client LLM) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm = client
	}
}

// SpeechToText transcribes one complete audio payload in a single shot.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (string, error)
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText = client
	}
}

// CalendarProviders builds the per-request aggregator from the request's
// credentials. The default wires the Google and CalDAV adapters for
// whichever tokens are present.
type CalendarProviders func(ctx context.Context, credentials Credentials) (*calendar.Service, error)

func WithCalendarProviders(providers CalendarProviders) OrchestratorOption {
	return func(o *Orchestrator) {
		if providers == nil {
			o.providers = o.defaultProviders
			return
		}
		o.providers = providers
	}
}

// WithCalDAVEndpoint sets the collection-discovery URL the default
// provider factory dials when a CalDAV token is supplied.
func WithCalDAVEndpoint(endpoint string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.caldavEndpoint = endpoint
	}
}

func WithInteractionRecorder(recorder interactionlog.Recorder) OrchestratorOption {
	return func(o *Orchestrator) {
		if recorder == nil {
			o.recorder = interactionlog.Noop{}
			return
		}
		o.recorder = recorder
	}
}

// WithMaxAudioBytes overrides the size threshold above which audio input
// is rejected with a canned summarize request instead of transcribed.
func WithMaxAudioBytes(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxAudioBytes = limit
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

type RespondOptions struct {
	onTranscription func(transcript string)
	onToolCall      func(name string)
	onEvent         func(event events.Event)
}

type RespondOption func(*RespondOptions)

// WithTranscriptionCallback registers a callback for the final transcript
// of submitted audio. Typed prompts do not trigger it.
func WithTranscriptionCallback(callback func(transcript string)) RespondOption {
	return func(o *RespondOptions) {
		o.onTranscription = callback
	}
}

// WithToolCallCallback registers a callback fired when a read tool starts
// executing. Mutating tools never execute during Respond, so they never
// trigger it.
func WithToolCallCallback(callback func(name string)) RespondOption {
	return func(o *RespondOptions) {
		o.onToolCall = callback
	}
}

// WithEventCallback registers a callback for every pipeline event,
// including the ones the narrower callbacks already cover.
func WithEventCallback(callback func(event events.Event)) RespondOption {
	return func(o *RespondOptions) {
		o.onEvent = callback
	}
}
