package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"concierge/internal/llm"
	"concierge/internal/types"
)

// fakeClient returns scripted responses/errors in order and records
// every request it receives.
type fakeClient struct {
	responses []types.Message
	errs      []error
	requests  []llm.ChatRequest
}

func (f *fakeClient) Chat(ctx context.Context, req llm.ChatRequest) (types.Message, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return types.Message{}, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return types.Message{}, errors.New("fake client: no scripted response")
}

func noSleep(time.Duration) {}

func newTestAssistant(client llm.Client, opts ...Option) *Assistant {
	base := []Option{WithSleep(noSleep)}
	return New(types.AssistantDispatcher, client, DispatcherPrompt(), nil, append(base, opts...)...)
}

func stateWithMessages(n int) *types.State {
	s := &types.State{UserInfo: "no flights"}
	for i := 0; i < n; i++ {
		s.Messages = append(s.Messages, types.UserMessage("msg"))
	}
	return s
}

func TestInvokeReturnsFirstValidResponse(t *testing.T) {
	client := &fakeClient{
		responses: []types.Message{{Role: types.RoleAssistant, Content: "here you go"}},
	}
	a := newTestAssistant(client)

	got, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got.Content != "here you go" {
		t.Errorf("content = %q", got.Content)
	}
	if len(client.requests) != 1 {
		t.Errorf("made %d calls, want 1", len(client.requests))
	}
}

func TestInvokeToolCallIsValidDespiteEmptyText(t *testing.T) {
	client := &fakeClient{
		responses: []types.Message{{
			Role:      types.RoleAssistant,
			ToolCalls: []types.ToolCall{{ID: "c1", Name: "search_flights"}},
		}},
	}
	a := newTestAssistant(client)

	got, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !got.HasToolCalls() {
		t.Error("tool calls lost")
	}
	if len(client.requests) != 1 {
		t.Errorf("tool-call response should not be retried, made %d calls", len(client.requests))
	}
}

func TestInvokeRepromptsOnEmptyOutput(t *testing.T) {
	client := &fakeClient{
		responses: []types.Message{
			{Role: types.RoleAssistant, Content: "   "},
			{Role: types.RoleAssistant, Content: "real answer"},
		},
	}
	a := newTestAssistant(client)
	state := stateWithMessages(1)

	got, err := a.Invoke(context.Background(), state)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got.Content != "real answer" {
		t.Errorf("content = %q", got.Content)
	}
	if len(client.requests) != 2 {
		t.Fatalf("made %d calls, want 2", len(client.requests))
	}

	second := client.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != types.RoleUser || last.Content != "Respond with a real output." {
		t.Errorf("corrective instruction missing, last message: %+v", last)
	}
	// Caller state must be untouched by the corrective re-prompt.
	if len(state.Messages) != 1 {
		t.Errorf("caller state mutated, now %d messages", len(state.Messages))
	}
}

func TestInvokeTruncatesContextWindow(t *testing.T) {
	client := &fakeClient{
		responses: []types.Message{{Role: types.RoleAssistant, Content: "ok"}},
	}
	a := newTestAssistant(client, WithContextWindow(5))
	state := stateWithMessages(30)

	if _, err := a.Invoke(context.Background(), state); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	sent := client.requests[0].Messages
	if len(sent) != 5 {
		t.Errorf("sent %d messages, want 5", len(sent))
	}
	if len(state.Messages) != 30 {
		t.Errorf("caller state truncated, now %d messages", len(state.Messages))
	}
}

func TestInvokeTransientErrorsBackOffAndRetry(t *testing.T) {
	var slept []time.Duration
	client := &fakeClient{
		errs:      []error{errors.New("rate limited"), nil},
		responses: []types.Message{{}, {Role: types.RoleAssistant, Content: "recovered"}},
	}
	a := New(types.AssistantDispatcher, client, DispatcherPrompt(), nil,
		WithBackoff(5*time.Second),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }))

	got, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got.Content != "recovered" {
		t.Errorf("content = %q", got.Content)
	}
	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Errorf("slept %v, want one fixed 5s backoff", slept)
	}
	// Transient retries reuse the same working state: no corrective
	// instruction is appended.
	for _, req := range client.requests {
		for _, m := range req.Messages {
			if m.Content == "Respond with a real output." {
				t.Error("transient retry must not add the corrective instruction")
			}
		}
	}
}

func TestInvokeFatalErrorPropagates(t *testing.T) {
	client := &fakeClient{
		errs: []error{llm.MarkFatal(errors.New("no passenger ID configured"))},
	}
	a := newTestAssistant(client)

	_, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err == nil || !llm.IsFatal(err) {
		t.Fatalf("fatal error should propagate, got %v", err)
	}
	if len(client.requests) != 1 {
		t.Errorf("fatal errors must not be retried, made %d calls", len(client.requests))
	}
}

func TestInvokeExhaustionReturnsFallback(t *testing.T) {
	// Every attempt yields an empty response.
	client := &fakeClient{}
	for i := 0; i < 20; i++ {
		client.responses = append(client.responses, types.Message{Role: types.RoleAssistant})
	}
	a := newTestAssistant(client, WithMaxRetries(4))

	got, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err != nil {
		t.Fatalf("exhaustion must not surface an error, got %v", err)
	}
	if got.Content != FallbackContent {
		t.Errorf("content = %q, want fallback", got.Content)
	}
	if len(client.requests) != 4 {
		t.Errorf("made %d calls, want exactly maxRetries=4", len(client.requests))
	}
}

func TestInvokeSharedBudgetAcrossFailureKinds(t *testing.T) {
	// Alternate transient errors and empty responses; the single
	// budget covers both.
	client := &fakeClient{
		errs: []error{errors.New("boom"), nil, errors.New("boom"), nil},
		responses: []types.Message{
			{}, {Role: types.RoleAssistant}, {}, {Role: types.RoleAssistant},
		},
	}
	a := newTestAssistant(client, WithMaxRetries(4))

	got, err := a.Invoke(context.Background(), stateWithMessages(1))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got.Content != FallbackContent {
		t.Errorf("content = %q, want fallback after shared budget exhausted", got.Content)
	}
	if len(client.requests) != 4 {
		t.Errorf("made %d calls, want 4", len(client.requests))
	}
}

func TestPromptRender(t *testing.T) {
	p := NewPrompt("Info:\n{user_info}\nNow: {time}.")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := p.Render("ticket 7240005432906569", now)
	if got != "Info:\nticket 7240005432906569\nNow: 2024-06-01T12:00:00Z." {
		t.Errorf("rendered = %q", got)
	}
}
