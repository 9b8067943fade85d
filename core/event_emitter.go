package orchestration

import "github.com/vbracun/aria-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts RespondOptions) eventEmitter {
	if opts.onEvent == nil && opts.onTranscription == nil && opts.onToolCall == nil {
		return noopEventEmitter
	}
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}
		switch typedEvent := event.(type) {
		case events.TranscriptionFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.ToolCallStarted:
			if opts.onToolCall != nil {
				opts.onToolCall(typedEvent.Name)
			}
		}
	}
}
