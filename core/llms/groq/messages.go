package groq

import (
	"github.com/vbracun/aria-core/core/llms"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func toMessages(instructions string, turns []llms.Turn) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range turns {
		switch turn.Role {
		case llms.RoleUser:
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: turn.Content,
			})

		case llms.RoleAssistant:
			msg := message{Role: messageRoleAssistant, Content: turn.Content}
			for _, tCall := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:   tCall.ID,
					Type: "function",
					Function: toolCallFunction{
						Name:      tCall.Name,
						Arguments: tCall.Arguments,
					},
				})
			}
			messages = append(messages, msg)

		case llms.RoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
			})
		}
	}
	return messages
}
