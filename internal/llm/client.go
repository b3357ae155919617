// Package llm provides the chat-completion client used by the
// assistants. The Gemini backend talks to the REST API directly; the
// Client interface keeps the orchestration layers testable with fakes.
package llm

import (
	"context"

	"concierge/internal/types"
)

// ChatRequest is one model invocation: a system prompt, the windowed
// conversation, and the tool declarations the model may call.
type ChatRequest struct {
	System   string
	Messages []types.Message
	Tools    []types.ToolDefinition
}

// Client defines the interface for chat-completion providers.
// Implementations must treat the request as read-only.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (types.Message, error)
}
