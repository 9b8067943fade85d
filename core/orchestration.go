package orchestration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	caldavp "github.com/vbracun/aria-core/core/calendar/caldav"
	"github.com/vbracun/aria-core/core/calendar/google"
	"github.com/vbracun/aria-core/core/interactionlog"
	"github.com/vbracun/aria-core/core/llms"
)

const defaultMaxAudioBytes = 1 << 20

// Orchestrator turns one natural-language instruction into a clarifying
// question, an executed read, or a mutation preview awaiting explicit
// confirmation. It holds no per-request state: conversation history is
// owned by the caller and round-tripped through every request.
type Orchestrator struct {
	llm          LLM
	speechToText SpeechToText
	providers    CalendarProviders
	recorder     interactionlog.Recorder

	caldavEndpoint string
	maxAudioBytes  int
	now            func() time.Time
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		recorder:      interactionlog.Noop{},
		maxAudioBytes: defaultMaxAudioBytes,
		now:           time.Now,
	}
	o.providers = o.defaultProviders

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Credentials carry the caller's identity and opaque provider bearer
// tokens for one request. They are never persisted beyond the request.
type Credentials struct {
	UserEmail   string `json:"userEmail,omitempty"`
	GoogleToken string `json:"googleToken,omitempty"`
	CalDAVToken string `json:"caldavToken,omitempty"`
}

// Request is one conversational turn submitted by the caller: a typed
// prompt or raw audio, plus the full history of earlier turns.
type Request struct {
	Prompt      string
	Audio       []byte
	AudioMIME   string
	History     []llms.Turn
	Credentials Credentials

	// TimezoneOffsetMinutes is the caller's UTC offset, used to phrase
	// confirmation sentences in their local clock time.
	TimezoneOffsetMinutes int
}

func (r Request) location() *time.Location {
	if r.TimezoneOffsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone("local", r.TimezoneOffsetMinutes*60)
}

// ExecuteRequest is the follow-up command confirming or cancelling a
// previously previewed action. It carries no conversation history.
type ExecuteRequest struct {
	Action      ActionPreview `json:"action"`
	Confirmed   bool          `json:"confirmed"`
	Credentials Credentials   `json:"-"`
}

// Result is the terminal outcome of a Respond or Execute call. Exactly
// one of NeedsClarification, NeedsConfirmation, Executed, or Cancelled is
// set on success; Error distinguishes "ask the user something different"
// from "try again" on failure.
type Result struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message,omitempty"`
	Transcript         string           `json:"transcript,omitempty"`
	NeedsClarification bool             `json:"needsClarification,omitempty"`
	NeedsConfirmation  bool             `json:"needsConfirmation,omitempty"`
	Executed           bool             `json:"executed,omitempty"`
	Cancelled          bool             `json:"cancelled,omitempty"`
	Action             *ActionPreview   `json:"action,omitempty"`
	Events             []calendar.Event `json:"events,omitempty"`
	Tasks              []calendar.Task  `json:"tasks,omitempty"`
	Event              *calendar.Event  `json:"event,omitempty"`
	Task               *calendar.Task   `json:"task,omitempty"`
	History            []llms.Turn      `json:"history,omitempty"`
	Error              string           `json:"error,omitempty"`
}

// defaultProviders builds a per-request aggregator from whichever bearer
// tokens the request carries.
func (o *Orchestrator) defaultProviders(ctx context.Context, credentials Credentials) (*calendar.Service, error) {
	service := calendar.NewService()
	if credentials.GoogleToken != "" {
		client, err := google.NewClient(ctx, credentials.GoogleToken)
		if err != nil {
			return nil, err
		}
		service.Register(calendar.ProviderGoogle, client)
	}
	if credentials.CalDAVToken != "" && o.caldavEndpoint != "" {
		client, err := caldavp.NewClient(ctx, o.caldavEndpoint, credentials.CalDAVToken)
		if err != nil {
			return nil, err
		}
		service.Register(calendar.ProviderCalDAV, client)
	}
	if len(service.Configured()) == 0 {
		return nil, &calendar.CredentialError{Provider: calendar.ProviderCombined, Reason: "no provider credentials supplied"}
	}
	return service, nil
}

// recordInteraction is fire-and-forget: a failing recorder can never fail
// the primary response.
func (o *Orchestrator) recordInteraction(ctx context.Context, userEmail string, actionType ActionType, provider calendar.ProviderTag, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "interaction payload encoding failed", "error", err)
		encoded = nil
	}
	if err := o.recorder.Record(ctx, interactionlog.Entry{
		UserEmail:  userEmail,
		ActionType: string(actionType),
		Provider:   string(provider),
		Payload:    string(encoded),
	}); err != nil {
		logger.WarnContext(ctx, "interaction recording failed", "error", err)
	}
}
