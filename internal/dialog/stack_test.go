package dialog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"concierge/internal/types"
)

func TestUpdateNoneIsIdentity(t *testing.T) {
	stacks := [][]types.AssistantID{
		nil,
		{},
		{types.AssistantHotel},
		{types.AssistantFlight, types.AssistantCarRental},
	}
	for _, s := range stacks {
		got := Update(s, None)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("Update(%v, None) changed the stack (-want +got):\n%s", s, diff)
		}
	}
}

func TestUpdatePushThenPopRestores(t *testing.T) {
	s := []types.AssistantID{types.AssistantFlight}
	got := Update(Update(s, Push(types.AssistantHotel)), Pop)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("push then pop did not restore (-want +got):\n%s", diff)
	}
}

func TestUpdatePopEmptyStack(t *testing.T) {
	got := Update([]types.AssistantID{}, Pop)
	if len(got) != 0 {
		t.Errorf("popping an empty stack should stay empty, got %v", got)
	}
	got = Update(nil, Pop)
	if len(got) != 0 {
		t.Errorf("popping a nil stack should stay empty, got %v", got)
	}
}

func TestUpdatePushDoesNotAliasInput(t *testing.T) {
	base := make([]types.AssistantID, 1, 4)
	base[0] = types.AssistantFlight

	a := Update(base, Push(types.AssistantHotel))
	b := Update(base, Push(types.AssistantCarRental))

	if a[1] != types.AssistantHotel || b[1] != types.AssistantCarRental {
		t.Fatalf("pushes interfered: a=%v b=%v", a, b)
	}
}

func TestUpdatePushPopSequence(t *testing.T) {
	var s []types.AssistantID
	s = Update(s, Push(types.AssistantCarRental))
	if len(s) != 1 || s[0] != types.AssistantCarRental {
		t.Fatalf("after push: %v", s)
	}
	s = Update(s, Pop)
	if len(s) != 0 {
		t.Fatalf("after pop: %v", s)
	}
}
