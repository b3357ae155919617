// Package graph implements the orchestration engine: it routes each
// turn to the assistant on top of the dialog stack, executes the tool
// calls the model emits, applies delegation handoffs, and pauses
// before sensitive tool calls for user approval.
package graph

import (
	"context"
	"fmt"

	"concierge/internal/assistant"
	"concierge/internal/dialog"
	"concierge/internal/llm"
	"concierge/internal/logging"
	"concierge/internal/session"
	"concierge/internal/tools"
	"concierge/internal/travel"
	"concierge/internal/types"
)

// DenialTemplate is the synthetic tool result injected when the user
// rejects a pending sensitive call.
const DenialTemplate = "API call denied by user. Reasoning: '%s'. Continue assisting, accounting for the user's input."

// maxHandoffs bounds delegation re-entries within a single turn.
const maxHandoffs = 8

// Pending captures an interrupted turn: the sensitive call awaiting
// approval, any later calls from the same model turn, and a deferred
// delegation to resolve after the batch finishes.
type Pending struct {
	Call       types.ToolCall   `json:"call"`
	Remaining  []types.ToolCall `json:"remaining,omitempty"`
	Delegation *types.ToolCall  `json:"delegation,omitempty"`
}

// TurnResult is the outcome of driving one turn as far as possible.
type TurnResult struct {
	State       types.State
	Interrupted bool
	Pending     *Pending
}

// LastReply returns the text of the most recent assistant message.
func (r *TurnResult) LastReply() string {
	for i := len(r.State.Messages) - 1; i >= 0; i-- {
		m := r.State.Messages[i]
		if m.Role == types.RoleAssistant && !m.IsEmpty() {
			return m.Content
		}
	}
	return ""
}

// Config wires the engine's collaborators.
type Config struct {
	Client   llm.Client
	Registry *tools.Registry

	// Checkpoints, when set, persists state on interrupts and at the
	// end of every turn.
	Checkpoints *CheckpointStore

	// AssistantOptions apply to every assistant the engine builds.
	AssistantOptions []assistant.Option
}

// Engine routes turns between the dispatcher and the specialized
// assistants.
type Engine struct {
	assistants  map[types.AssistantID]*assistant.Assistant
	registry    *tools.Registry
	checkpoints *CheckpointStore
}

// New builds the engine with the dispatcher and the four specialized
// assistants, each advertising its domain tools plus its delegation
// surface.
func New(cfg Config) *Engine {
	reg := cfg.Registry
	opts := cfg.AssistantOptions

	dispatcherTools := append(
		reg.Definitions(travel.DispatcherToolNames),
		dialog.DispatcherDelegationDefinitions()...)

	skill := func(names []string) []types.ToolDefinition {
		return append(reg.Definitions(names), dialog.CompleteOrEscalateDefinition())
	}

	return &Engine{
		assistants: map[types.AssistantID]*assistant.Assistant{
			types.AssistantDispatcher: assistant.New(types.AssistantDispatcher, cfg.Client, assistant.DispatcherPrompt(), dispatcherTools, opts...),
			types.AssistantFlight:     assistant.New(types.AssistantFlight, cfg.Client, assistant.FlightPrompt(), skill(travel.FlightToolNames), opts...),
			types.AssistantCarRental:  assistant.New(types.AssistantCarRental, cfg.Client, assistant.CarRentalPrompt(), skill(travel.CarRentalToolNames), opts...),
			types.AssistantHotel:      assistant.New(types.AssistantHotel, cfg.Client, assistant.HotelPrompt(), skill(travel.HotelToolNames), opts...),
			types.AssistantExcursion:  assistant.New(types.AssistantExcursion, cfg.Client, assistant.ExcursionPrompt(), skill(travel.ExcursionToolNames), opts...),
		},
		registry:    reg,
		checkpoints: cfg.Checkpoints,
	}
}

// Turn appends the user's message and drives the conversation until
// the active assistant produces a plain reply or a sensitive tool call
// forces an interrupt.
func (e *Engine) Turn(ctx context.Context, state types.State, userInput string) (*TurnResult, error) {
	state.Messages = types.Append(state.Messages, types.UserMessage(userInput))
	return e.run(ctx, state)
}

// Approve resumes an interrupted turn by executing the pending call
// with its original arguments, then finishing the rest of the turn.
// The pending call runs here directly; routing it back through
// executeCalls would re-trigger the sensitivity gate.
func (e *Engine) Approve(ctx context.Context, state types.State, pending *Pending) (*TurnResult, error) {
	logging.Graph("Approved sensitive call %s", pending.Call.Name)
	if err := session.RequireIdentity(ctx); err != nil {
		return nil, err
	}

	result, err := e.registry.Execute(ctx, pending.Call.Name, pending.Call.Args)
	switch {
	case err != nil && llm.IsFatal(err):
		return nil, err
	case err != nil:
		state.Messages = types.Append(state.Messages, types.ToolMessage(
			pending.Call.ID, pending.Call.Name, fmt.Sprintf("Error: %v. Please fix your mistakes.", err)))
	default:
		state.Messages = types.Append(state.Messages, types.ToolMessage(
			pending.Call.ID, pending.Call.Name, result.Output))
	}

	interrupted, newState, err := e.executeCalls(ctx, state, pending.Remaining, pending.Delegation)
	if err != nil {
		return nil, err
	}
	if interrupted != nil {
		return e.interrupt(ctx, newState, interrupted)
	}
	return e.run(ctx, newState)
}

// Deny resumes an interrupted turn without executing the pending call.
// A synthetic tool result carrying the user's reasoning is injected
// under the original tool-call id; the rest of the batch is dropped so
// the assistant re-plans from the denial.
func (e *Engine) Deny(ctx context.Context, state types.State, pending *Pending, reason string) (*TurnResult, error) {
	logging.Graph("Denied sensitive call %s: %s", pending.Call.Name, reason)
	state.Messages = types.Append(state.Messages, types.ToolMessage(
		pending.Call.ID, pending.Call.Name, fmt.Sprintf(DenialTemplate, reason)))
	return e.run(ctx, state)
}

// run invokes the active assistant and processes its output, looping
// across delegation handoffs until the turn settles.
func (e *Engine) run(ctx context.Context, state types.State) (*TurnResult, error) {
	for handoff := 0; handoff < maxHandoffs; handoff++ {
		active := state.ActiveAssistant()
		asst, ok := e.assistants[active]
		if !ok {
			return nil, fmt.Errorf("no assistant registered for %q", active)
		}
		logging.Graph("Invoking %s (stack depth %d)", active, len(state.DialogStack))

		msg, err := asst.Invoke(ctx, &state)
		if err != nil {
			return nil, err
		}
		state.Messages = types.Append(state.Messages, msg)

		if !msg.HasToolCalls() {
			return e.finish(ctx, state)
		}

		calls, delegation := splitDelegation(msg.ToolCalls)
		interrupted, newState, err := e.executeCalls(ctx, state, calls, delegation)
		if err != nil {
			return nil, err
		}
		if interrupted != nil {
			return e.interrupt(ctx, newState, interrupted)
		}
		state = newState
	}
	return nil, fmt.Errorf("delegation did not settle after %d handoffs", maxHandoffs)
}

// splitDelegation separates regular tool calls from the turn's
// delegation. Delegation resolves last; only the first delegation call
// in a turn is honored.
func splitDelegation(calls []types.ToolCall) ([]types.ToolCall, *types.ToolCall) {
	var regular []types.ToolCall
	var delegation *types.ToolCall
	for _, call := range calls {
		if dialog.IsDelegationCall(call) {
			if delegation == nil {
				c := call
				delegation = &c
			}
			continue
		}
		regular = append(regular, call)
	}
	return regular, delegation
}

// executeCalls runs regular tool calls in emission order, stopping at
// the first sensitive call, then resolves the deferred delegation.
// Returns a non-nil Pending when an interrupt is required.
func (e *Engine) executeCalls(ctx context.Context, state types.State, calls []types.ToolCall, delegation *types.ToolCall) (*Pending, types.State, error) {
	for i, call := range calls {
		if e.registry.IsSensitive(call.Name) {
			return &Pending{
				Call:       call,
				Remaining:  calls[i+1:],
				Delegation: delegation,
			}, state, nil
		}
		result, err := e.registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			if llm.IsFatal(err) {
				return nil, state, err
			}
			// Tool failures flow back into the conversation so the
			// assistant can re-plan.
			state.Messages = types.Append(state.Messages, types.ToolMessage(
				call.ID, call.Name, fmt.Sprintf("Error: %v. Please fix your mistakes.", err)))
			continue
		}
		state.Messages = types.Append(state.Messages, types.ToolMessage(call.ID, call.Name, result.Output))
	}

	if delegation != nil {
		newState, err := e.resolveDelegation(state, *delegation)
		if err != nil {
			return nil, state, err
		}
		state = newState
	}
	return nil, state, nil
}

// resolveDelegation applies the stack mutation and injects the
// handoff tool result that briefs the next assistant.
func (e *Engine) resolveDelegation(state types.State, call types.ToolCall) (types.State, error) {
	d, err := dialog.Parse(call)
	if err != nil {
		return state, err
	}
	state.DialogStack = dialog.Update(state.DialogStack, d.Signal())

	var content string
	switch v := d.(type) {
	case dialog.CompleteOrEscalate:
		content = "Resuming dialog with the host assistant. Please reflect on the past conversation and assist the user as needed."
		if v.Reason != "" {
			content += " Reason control returned: " + v.Reason
		}
		logging.Graph("CompleteOrEscalate (cancel=%v): %s", v.Cancel, v.Reason)
	default:
		next := state.ActiveAssistant()
		content = fmt.Sprintf("The assistant is now the %s. Reflect on the above conversation between the host assistant and the user. "+
			"The user's intent is unsatisfied. Use the provided tools to assist the user. "+
			"Remember, you are the %s, and the action is not complete until after you have successfully invoked the appropriate tool. "+
			"If the user changes their mind or needs help for other tasks, call the CompleteOrEscalate function to let the primary host assistant take control. "+
			"Do not mention who you are - just act as the proxy for the assistant.",
			assistantTitle(next), assistantTitle(next))
		logging.Graph("Delegating to %s", next)
	}

	state.Messages = types.Append(state.Messages, types.ToolMessage(call.ID, call.Name, content))
	return state, nil
}

func assistantTitle(id types.AssistantID) string {
	switch id {
	case types.AssistantFlight:
		return "Flight Updates Assistant"
	case types.AssistantCarRental:
		return "Car Rental Assistant"
	case types.AssistantHotel:
		return "Hotel Booking Assistant"
	case types.AssistantExcursion:
		return "Trip Recommendation Assistant"
	default:
		return "Customer Support Assistant"
	}
}

// interrupt checkpoints the paused turn and surfaces it to the caller.
func (e *Engine) interrupt(ctx context.Context, state types.State, pending *Pending) (*TurnResult, error) {
	if e.checkpoints != nil {
		if err := e.checkpoints.Save(ctx, threadID(ctx), state, pending); err != nil {
			return nil, err
		}
	}
	logging.Graph("Interrupted before sensitive call %s", pending.Call.Name)
	return &TurnResult{State: state, Interrupted: true, Pending: pending}, nil
}

// finish checkpoints the settled turn.
func (e *Engine) finish(ctx context.Context, state types.State) (*TurnResult, error) {
	if e.checkpoints != nil {
		if err := e.checkpoints.Save(ctx, threadID(ctx), state, nil); err != nil {
			return nil, err
		}
	}
	return &TurnResult{State: state}, nil
}
