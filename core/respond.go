package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/events"
	"github.com/vbracun/aria-core/core/llms"
	"github.com/vbracun/aria-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	longAudioMessage   = "That recording is too long for me to process. Please summarize your request in a sentence or two."
	emptyPromptMessage = "I didn't catch that. What would you like to do with your calendar?"
)

// Respond handles one conversational turn: transcribe audio if present,
// resolve the instruction against the caller-carried history, then either
// ask a clarifying question, execute a read immediately, or stage a
// mutation behind a confirmation preview. Mutations are never applied
// here; they wait for an explicit Execute call.
func (o *Orchestrator) Respond(ctx context.Context, req Request, opts ...RespondOption) (*Result, error) {
	ctx, span := tracer.Start(ctx, "respond to instruction")
	defer span.End()

	options := RespondOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	emit := newCallbackEventEmitter(options)

	result := &Result{History: req.History}
	prompt := strings.TrimSpace(req.Prompt)

	if len(req.Audio) > 0 {
		if len(req.Audio) > o.maxAudioBytes {
			return o.clarify(result, req.History, longAudioMessage, emit), nil
		}
		if o.speechToText == nil {
			err := fmt.Errorf("audio submitted but no speech-to-text client is configured")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		transcript, err := o.speechToText.Transcribe(ctx, req.Audio, speechtotext.WithMIMEType(req.AudioMIME))
		if err != nil {
			err = fmt.Errorf("transcribe audio: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		emit(events.NewTranscriptionFinal(transcript))
		result.Transcript = transcript
		prompt = strings.TrimSpace(transcript)
	}
	if prompt == "" {
		return o.clarify(result, req.History, emptyPromptMessage, emit), nil
	}
	span.SetAttributes(attribute.Int("request.history_turns", len(req.History)))

	service, err := o.providers(ctx, req.Credentials)
	if err != nil {
		err = fmt.Errorf("configure calendar providers: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := o.now()
	loc := req.location()
	situation := o.gatherSituation(ctx, service, now)

	history := append(slices.Clone(req.History), llms.UserTurn(prompt))
	response, err := o.resolve(ctx, history, situation, now, loc, service.Configured())
	if err != nil {
		resolutionErr := &ResolutionError{Err: err}
		span.RecordError(resolutionErr)
		span.SetStatus(codes.Error, resolutionErr.Error())
		emit(events.NewPipelineFailed(resolutionErr.Error()))
		return nil, resolutionErr
	}

	call := firstToolCall(response)
	content := response.Content
	if call == nil {
		emit(events.NewIntentResolved(""))
		if content == "" {
			content = emptyPromptMessage
		}
		return o.clarify(result, history, content, emit), nil
	}
	emit(events.NewIntentResolved(call.Name))
	span.SetAttributes(attribute.String("response.tool", call.Name))

	if !ActionType(call.Name).Mutating() {
		emit(events.NewToolCallStarted(call.ID, call.Name, call.Arguments))
		toolResult, listedEvents, listedTasks, err := o.executeRead(ctx, service, *call)
		if err != nil {
			emit(events.NewToolCallFailed(call.ID, call.Name, err.Error()))
			result.Success = false
			result.Error = err.Error()
			result.History = history
			emit(events.NewPipelineFailed(err.Error()))
			return result, nil
		}
		emit(events.NewToolCallCompleted(call.ID, call.Name, toolResult))
		history = append(history,
			llms.AssistantTurn(content, *call),
			llms.ToolResultTurn(call.ID, toolResult),
		)

		followup, err := o.resolve(ctx, history, situation, now, loc, service.Configured())
		if err != nil {
			resolutionErr := &ResolutionError{Err: err}
			span.RecordError(resolutionErr)
			span.SetStatus(codes.Error, resolutionErr.Error())
			emit(events.NewPipelineFailed(resolutionErr.Error()))
			return nil, resolutionErr
		}

		chained := firstToolCall(followup)
		if chained == nil || !ActionType(chained.Name).Mutating() {
			history = append(history, llms.AssistantTurn(followup.Content))
			result.Success = true
			result.Executed = true
			result.Message = followup.Content
			result.Events = listedEvents
			result.Tasks = listedTasks
			result.History = history
			emit(events.NewResponseExecuted(call.Name, followup.Content))
			o.recordInteraction(ctx, req.Credentials.UserEmail, ActionType(call.Name), calendar.ProviderCombined, result.Message)
			return result, nil
		}

		// The listing was only disambiguation for a mutation the model now
		// wants to make; skip surfacing it and confirm the mutation instead.
		emit(events.NewIntentResolved(chained.Name))
		call = chained
		content = followup.Content
	}

	preview, clarification := o.buildPreview(ctx, service, *call, now, loc)
	if clarification != "" {
		return o.clarify(result, history, clarification, emit), nil
	}

	history = append(history, llms.AssistantTurn(content, *call))
	result.Success = true
	result.NeedsConfirmation = true
	result.Action = preview
	result.Message = preview.ConfirmationMessage
	result.History = history
	emit(events.NewResponseConfirmationRequired(string(preview.Type), preview.ConfirmationMessage))
	o.recordInteraction(ctx, req.Credentials.UserEmail, preview.Type, preview.Target, preview)
	return result, nil
}

func (o *Orchestrator) clarify(result *Result, history []llms.Turn, message string, emit eventEmitter) *Result {
	result.Success = true
	result.NeedsClarification = true
	result.Message = message
	result.History = append(slices.Clone(history), llms.AssistantTurn(message))
	emit(events.NewResponseClarification(message))
	return result
}

// firstToolCall enforces the single-action rule: only the first tool call
// a resolution returns is ever acted on.
func firstToolCall(response *llms.Response) *llms.ToolCall {
	if len(response.ToolCalls) == 0 {
		return nil
	}
	if len(response.ToolCalls) > 1 {
		log.Println("Warning: resolver returned multiple tool calls, acting on the first only")
	}
	return &response.ToolCalls[0]
}

// executeRead runs a list tool against the aggregator and returns the
// serialized listing for the tool-result turn.
func (o *Orchestrator) executeRead(ctx context.Context, service *calendar.Service, call llms.ToolCall) (string, []calendar.Event, []calendar.Task, error) {
	ctx, span := tracer.Start(ctx, "execute read tool")
	defer span.End()
	span.SetAttributes(attribute.String("request.tool", call.Name))

	switch ActionType(call.Name) {
	case ActionListEvents:
		args := listEventsArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", nil, nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		opts, err := listOptions(args.TimeMin, args.TimeMax, args.Query, args.MaxResults)
		if err != nil {
			return "", nil, nil, err
		}
		listed, err := service.GetEvents(ctx, calendar.ProviderTag(args.Target), opts)
		if err != nil {
			return "", nil, nil, err
		}
		encoded, err := json.Marshal(listed)
		if err != nil {
			return "", nil, nil, fmt.Errorf("encode event listing: %w", err)
		}
		return string(encoded), listed, nil, nil
	case ActionListTasks:
		args := listTasksArgs{}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", nil, nil, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		opts, err := listOptions(args.TimeMin, args.TimeMax, args.Query, args.MaxResults)
		if err != nil {
			return "", nil, nil, err
		}
		listed, err := service.GetTasks(ctx, calendar.ProviderTag(args.Target), opts)
		if err != nil {
			return "", nil, nil, err
		}
		encoded, err := json.Marshal(listed)
		if err != nil {
			return "", nil, nil, fmt.Errorf("encode task listing: %w", err)
		}
		return string(encoded), nil, listed, nil
	default:
		return "", nil, nil, fmt.Errorf("unknown read tool %q", call.Name)
	}
}

func listOptions(timeMin, timeMax, query string, maxResults int) (calendar.ListOptions, error) {
	opts := calendar.ListOptions{Query: query, MaxResults: maxResults}
	if timeMin != "" {
		parsed, err := calendar.ParseEventTime(timeMin)
		if err != nil {
			return opts, fmt.Errorf("parse timeMin: %w", err)
		}
		instant := parsed.Instant()
		opts.TimeMin = &instant
	}
	if timeMax != "" {
		parsed, err := calendar.ParseEventTime(timeMax)
		if err != nil {
			return opts, fmt.Errorf("parse timeMax: %w", err)
		}
		instant := parsed.Instant()
		opts.TimeMax = &instant
	}
	return opts, nil
}
