// Package assistant wraps a single model invocation with context
// windowing, output-validity checking, and retry with fixed backoff.
// Every assistant in the dialog system (the dispatcher and each
// specialized skill) runs through this wrapper.
package assistant

import (
	"context"
	"time"

	"concierge/internal/llm"
	"concierge/internal/logging"
	"concierge/internal/types"
)

const (
	// DefaultContextWindow is the number of trailing messages sent to
	// the model per call.
	DefaultContextWindow = 20

	// DefaultMaxRetries bounds total underlying call attempts. The
	// budget is shared between invalid-output retries and transient
	// failures.
	DefaultMaxRetries = 10

	// DefaultBackoff is the fixed sleep between transient failures.
	// No exponential growth, no jitter: sessions are independent and
	// a stalled one only blocks itself.
	DefaultBackoff = 5 * time.Second

	// correctiveInstruction is appended when the model returns a
	// degenerate (empty, tool-free) response.
	correctiveInstruction = "Respond with a real output."

	// FallbackContent is the terminal reply after the retry budget is
	// exhausted.
	FallbackContent = "Sorry, I couldn't get a valid response from the assistant."
)

// Assistant binds an identity, a system prompt, and a tool surface to
// a resilient invocation loop over an llm.Client.
type Assistant struct {
	id     types.AssistantID
	client llm.Client
	prompt *Prompt
	tools  []types.ToolDefinition

	contextWindow int
	maxRetries    int
	backoff       time.Duration
	sleep         func(time.Duration)
}

// Option customizes an Assistant.
type Option func(*Assistant)

// WithContextWindow overrides the trailing-message window size.
func WithContextWindow(n int) Option {
	return func(a *Assistant) { a.contextWindow = n }
}

// WithMaxRetries overrides the shared retry budget.
func WithMaxRetries(n int) Option {
	return func(a *Assistant) { a.maxRetries = n }
}

// WithBackoff overrides the fixed transient-failure backoff.
func WithBackoff(d time.Duration) Option {
	return func(a *Assistant) { a.backoff = d }
}

// WithSleep replaces the sleep function. Tests use this to avoid
// real delays.
func WithSleep(f func(time.Duration)) Option {
	return func(a *Assistant) { a.sleep = f }
}

// New creates an assistant with the given identity, prompt, and tools.
func New(id types.AssistantID, client llm.Client, prompt *Prompt, tools []types.ToolDefinition, opts ...Option) *Assistant {
	a := &Assistant{
		id:            id,
		client:        client,
		prompt:        prompt,
		tools:         tools,
		contextWindow: DefaultContextWindow,
		maxRetries:    DefaultMaxRetries,
		backoff:       DefaultBackoff,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the assistant's identity.
func (a *Assistant) ID() types.AssistantID { return a.id }

// Tools returns the tool declarations this assistant advertises.
func (a *Assistant) Tools() []types.ToolDefinition { return a.tools }

// Invoke runs one resilient model call against the session state and
// returns the turn's message. The caller's state is never mutated:
// windowing and corrective instructions operate on a working copy.
//
// A response is invalid iff it has no tool calls and no text (or an
// empty first structured block). Invalid output triggers a corrective
// re-prompt; transient call errors trigger a fixed-backoff retry of
// the same working state. Both paths share one attempt budget. Fatal
// errors propagate immediately. On exhaustion the fixed fallback
// message is returned as the turn's only output, not an error.
func (a *Assistant) Invoke(ctx context.Context, state *types.State) (types.Message, error) {
	system := a.prompt.Render(state.UserInfo, time.Now())
	working := state.Messages

	for attempt := 0; attempt < a.maxRetries; attempt++ {
		resp, err := a.client.Chat(ctx, llm.ChatRequest{
			System:   system,
			Messages: types.LastN(working, a.contextWindow),
			Tools:    a.tools,
		})
		if err != nil {
			if llm.IsFatal(err) {
				logging.Get(logging.CategoryAPI).Error("[%s] fatal invocation error: %v", a.id, err)
				return types.Message{}, err
			}
			logging.API("[%s] transient error on attempt %d/%d, backing off %v: %v",
				a.id, attempt+1, a.maxRetries, a.backoff, err)
			a.sleep(a.backoff)
			continue
		}
		if resp.IsEmpty() {
			logging.API("[%s] empty response on attempt %d/%d, re-prompting", a.id, attempt+1, a.maxRetries)
			working = types.Append(working, types.UserMessage(correctiveInstruction))
			continue
		}
		return resp, nil
	}

	logging.Get(logging.CategoryAPI).Warn("[%s] retry budget exhausted after %d attempts", a.id, a.maxRetries)
	return types.Message{Role: types.RoleAssistant, Content: FallbackContent}, nil
}
