package events

const (
	// KindTranscriptionFinal identifies the terminal transcript for the
	// submitted audio.
	KindTranscriptionFinal Kind = "transcription.final"
	// KindIntentResolved identifies the resolver's decision for a turn.
	KindIntentResolved Kind = "intent.resolved"
	// KindPipelineFailed identifies a terminal pipeline failure.
	KindPipelineFailed Kind = "pipeline.failed"
)

// TranscriptionFinal carries the transcript the rest of the pipeline runs
// on.
type TranscriptionFinal struct {
	Base
	Transcript string
}

func NewTranscriptionFinal(transcript string) TranscriptionFinal {
	return TranscriptionFinal{Base: NewBase(KindTranscriptionFinal), Transcript: transcript}
}

// IntentResolved marks the resolver's output: either a plain message
// (Tool empty) or the single tool call acted on.
type IntentResolved struct {
	Base
	Tool string
}

func NewIntentResolved(tool string) IntentResolved {
	return IntentResolved{Base: NewBase(KindIntentResolved), Tool: tool}
}

// PipelineFailed is the terminal failure event.
type PipelineFailed struct {
	Base
	Error string
}

func NewPipelineFailed(err string) PipelineFailed {
	return PipelineFailed{Base: NewBase(KindPipelineFailed), Error: err}
}
