// Package dialog implements the dialog-state stack and the delegation
// schema that route conversations between the dispatcher and the
// specialized assistants.
package dialog

import "concierge/internal/types"

// Signal describes a single dialog-stack mutation. The zero value is a
// no-op. Signals are applied exactly once per assistant turn that
// emits one.
type Signal struct {
	pop  bool
	push types.AssistantID
}

// None leaves the stack unchanged.
var None = Signal{}

// Pop removes the top element; popping an empty stack is a no-op.
var Pop = Signal{pop: true}

// Push appends the given assistant id to the stack.
func Push(id types.AssistantID) Signal {
	return Signal{push: id}
}

// Update applies a signal to the stack and returns the resulting
// stack. It is a pure function: the output depends only on the inputs
// and the input slice is never mutated. Pushing copies the stack so
// the result never aliases the caller's backing array.
func Update(stack []types.AssistantID, sig Signal) []types.AssistantID {
	switch {
	case sig.pop:
		if len(stack) == 0 {
			return stack
		}
		return stack[:len(stack)-1]
	case sig.push != "":
		out := make([]types.AssistantID, len(stack), len(stack)+1)
		copy(out, stack)
		return append(out, sig.push)
	default:
		return stack
	}
}
