package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vbracun/aria-core/core/events"
)

type sseFrame struct {
	Type       string  `json:"type"`
	Transcript string  `json:"transcript,omitempty"`
	Error      string  `json:"error,omitempty"`
	Response   *Result `json:"response,omitempty"`
}

// SSEEmitter writes the pipeline's progress as Server-Sent-Events frames:
// a transcription frame when audio was submitted, then exactly one
// terminal response or error frame. Writes after the terminal frame are
// dropped.
type SSEEmitter struct {
	writer   io.Writer
	terminal bool
}

func NewSSEEmitter(w io.Writer) *SSEEmitter {
	return &SSEEmitter{writer: w}
}

// Handle forwards pipeline events as progress frames. Only transcription
// surfaces as its own frame; everything else folds into the terminal one.
func (e *SSEEmitter) Handle(event events.Event) {
	if typedEvent, ok := event.(events.TranscriptionFinal); ok {
		if err := e.write(sseFrame{Type: "transcription", Transcript: typedEvent.Transcript}); err != nil {
			logger.Warn("transcription frame write failed", "error", err)
		}
	}
}

// EmitResponse writes the terminal response frame.
func (e *SSEEmitter) EmitResponse(result *Result) error {
	return e.writeTerminal(sseFrame{Type: "response", Response: result})
}

// EmitError writes the terminal error frame.
func (e *SSEEmitter) EmitError(err error) error {
	return e.writeTerminal(sseFrame{Type: "error", Error: err.Error()})
}

func (e *SSEEmitter) writeTerminal(frame sseFrame) error {
	if e.terminal {
		return nil
	}
	e.terminal = true
	return e.write(frame)
}

func (e *SSEEmitter) write(frame sseFrame) error {
	encoded, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(e.writer, "data: %s\n\n", encoded); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if flusher, ok := e.writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// RespondStream runs Respond and streams its progress to w as SSE frames.
// The caller closes the connection once this returns; exactly one
// terminal frame has been written by then.
func (o *Orchestrator) RespondStream(ctx context.Context, req Request, w io.Writer) error {
	emitter := NewSSEEmitter(w)
	result, err := o.Respond(ctx, req, WithEventCallback(emitter.Handle))
	if err != nil {
		return emitter.EmitError(err)
	}
	return emitter.EmitResponse(result)
}
