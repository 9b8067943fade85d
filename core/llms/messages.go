package llms

// Role describes who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is a single entry in the caller-carried conversation history. The
// server keeps no copy between requests: the full ordered sequence travels
// in every request payload and is appended to by both sides.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

// UserTurn builds a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn, optionally carrying tool calls.
func AssistantTurn(content string, toolCalls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolResultTurn builds the tool-role turn answering a tool call.
func ToolResultTurn(toolCallID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// ToolCall is a structured action request emitted by the model. Arguments
// is the raw JSON string as returned on the wire; the orchestrator decodes
// it against the declared schema for the named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is a single model response: a natural-language message, one or
// more tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}
