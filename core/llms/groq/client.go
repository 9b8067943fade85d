package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/jinzhu/copier"
	"github.com/vbracun/aria-core/core/llms"
	"github.com/vbracun/aria-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	url = "https://api.groq.com/openai/v1/chat/completions"

	defaultModel = "llama-3.3-70b-versatile"
)

// Client talks to the Groq chat-completions API. It issues bounded
// single-shot requests: no internal retry, no backoff; any timeout policy
// belongs to the passed context.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithModel overrides the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Prompt sends the conversation plus one new user prompt and returns the
// model's response. Tool calls are returned to the caller undecoded and
// unexecuted; acting on them is the orchestrator's job.
func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := toMessages(options.Instructions, options.Turns)
	if prompt != "" {
		messages = append(messages, message{
			Role:    messageRoleUser,
			Content: prompt,
		})
	}

	var toolChoice *string
	var tools []Tool
	if options.Tools != nil {
		toolChoice = utils.Ptr("auto")
		if options.ForcedToolCall {
			toolChoice = utils.Ptr("required")
		}
		copier.Copy(&tools, options.Tools)

		var toolNames []string
		for _, tool := range slices.Clone(options.Tools) {
			toolNames = append(toolNames, tool.Function.Name)
		}
		span.SetAttributes(attribute.StringSlice("request.available_tools", toolNames))
	}

	reqBody := requestBody{
		Model:      c.model,
		Messages:   messages,
		Tools:      tools,
		ToolChoice: toolChoice,
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var responseBody responseBody
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(responseBody.Choices) == 0 {
		logger.WarnContext(ctx, "no choices returned for prompt")
		return &llms.Response{}, nil
	}

	choice := responseBody.Choices[0].Message
	response := &llms.Response{Content: choice.Content}
	for _, tCall := range choice.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, llms.ToolCall{
			ID:        tCall.ID,
			Name:      tCall.Function.Name,
			Arguments: tCall.Function.Arguments,
		})
	}
	span.SetAttributes(attribute.Int("response.tool_calls", len(response.ToolCalls)))
	return response, nil
}

// Tool is the wire form of a tool declaration. Kept structurally
// compatible with llms.Tool so copier can map between them.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type requestBody struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	ToolChoice *string   `json:"tool_choice,omitempty"`
	Tools      []Tool    `json:"tools,omitempty"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
