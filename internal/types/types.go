// Package types provides shared type definitions used across concierge packages.
// This package exists to break import cycles between dialog, assistant, graph,
// and session. Types in this package should be foundational data structures
// with no complex dependencies.
package types

import "strings"

// AssistantID identifies an assistant in the dialog system.
// The dispatcher is active whenever the dialog stack is empty.
type AssistantID string

const (
	// AssistantDispatcher is the primary assistant that routes work.
	AssistantDispatcher AssistantID = "assistant"

	// AssistantFlight handles flight updates and cancellations.
	AssistantFlight AssistantID = "update_flight"

	// AssistantCarRental handles car rental bookings.
	AssistantCarRental AssistantID = "book_car_rental"

	// AssistantHotel handles hotel bookings.
	AssistantHotel AssistantID = "book_hotel"

	// AssistantExcursion handles trip recommendations and excursion bookings.
	AssistantExcursion AssistantID = "book_excursion"
)

// Role tags the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolDefinition describes a tool that the LLM can invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID   string         `json:"id"`   // Unique ID for this tool use
	Name string         `json:"name"` // Tool name to invoke
	Args map[string]any `json:"args"` // Tool arguments
}

// Message is a role-tagged entry in the conversation history.
//
// Content carries the flattened text of the message. Parts, when present,
// preserves the per-block text of a structured model response so that
// validity checks can inspect the first block independently.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Parts     []string   `json:"parts,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID correlates a tool-result message with the tool call
	// that produced it. Only set when Role == RoleTool.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Name is the tool name for tool-result messages.
	Name string `json:"name,omitempty"`
}

// UserMessage builds a plain user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ToolMessage builds a tool-result message correlated to a tool call.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// IsEmpty reports whether the message carries no usable output:
// no tool calls and no text, or a structured part list whose first
// block has no text. A message with tool calls is never empty.
func (m Message) IsEmpty() bool {
	if m.HasToolCalls() {
		return false
	}
	if len(m.Parts) > 0 {
		return strings.TrimSpace(m.Parts[0]) == ""
	}
	return strings.TrimSpace(m.Content) == ""
}

// State is the per-session graph state: the full conversation, the
// cached passenger summary, and the dialog stack identifying which
// assistant is active. Messages grow append-only within a turn.
type State struct {
	Messages    []Message     `json:"messages"`
	UserInfo    string        `json:"user_info"`
	DialogStack []AssistantID `json:"dialog_stack"`
}

// Append returns a copy of the message slice with msgs added. The
// input's backing array is never shared with the result, so callers
// holding the original slice are unaffected by later growth.
func Append(messages []Message, msgs ...Message) []Message {
	out := make([]Message, 0, len(messages)+len(msgs))
	out = append(out, messages...)
	return append(out, msgs...)
}

// LastN returns a bounded view of the last n messages without mutating
// the input. n <= 0 or n >= len(messages) returns the input unchanged.
func LastN(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// ActiveAssistant returns the top of the dialog stack, or the
// dispatcher when the stack is empty.
func (s *State) ActiveAssistant() AssistantID {
	if len(s.DialogStack) == 0 {
		return AssistantDispatcher
	}
	return s.DialogStack[len(s.DialogStack)-1]
}
