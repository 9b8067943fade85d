package llms

// PromptOptions collects everything a single model call needs besides the
// prompt itself.
type PromptOptions struct {
	Instructions   string
	Turns          []Turn
	Tools          []Tool
	ForcedToolCall bool
}

// PromptOption mutates the options for one prompt.
type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt. Repeating this option
// overwrites the previous value.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTurns appends conversation turns. Repeating this option sequentially
// adds more turns.
func WithTurns(turns ...Turn) PromptOption {
	return func(opts *PromptOptions) {
		opts.Turns = append(opts.Turns, turns...)
	}
}

// WithTools adds tools the model may call.
func WithTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithForcedToolCall requires the model to call some available tool
// instead of answering in prose.
func WithForcedToolCall() PromptOption {
	return func(opts *PromptOptions) {
		opts.ForcedToolCall = true
	}
}
