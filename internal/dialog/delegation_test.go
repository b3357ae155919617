package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/types"
)

func TestParseToBookCarRental(t *testing.T) {
	call := types.ToolCall{
		ID:   "call_1",
		Name: NameToBookCarRental,
		Args: map[string]any{
			"location":   "Basel",
			"start_date": "2023-07-01",
			"end_date":   "2023-07-05",
			"request":    "compact automatic",
		},
	}

	d, err := Parse(call)
	require.NoError(t, err)

	rental, ok := d.(ToBookCarRental)
	require.True(t, ok, "expected ToBookCarRental, got %T", d)
	assert.Equal(t, "Basel", rental.Location)
	assert.Equal(t, "2023-07-01", rental.StartDate)
	assert.Equal(t, "2023-07-05", rental.EndDate)
	assert.Equal(t, "compact automatic", rental.Request)

	stack := Update(nil, d.Signal())
	assert.Equal(t, []types.AssistantID{types.AssistantCarRental}, stack)
}

func TestParseCompleteOrEscalate(t *testing.T) {
	d, err := Parse(types.ToolCall{
		Name: NameCompleteOrEscalate,
		Args: map[string]any{"cancel": false, "reason": "task done"},
	})
	require.NoError(t, err)

	esc, ok := d.(CompleteOrEscalate)
	require.True(t, ok)
	assert.False(t, esc.Cancel)
	assert.Equal(t, "task done", esc.Reason)

	stack := Update([]types.AssistantID{types.AssistantCarRental}, d.Signal())
	assert.Empty(t, stack)
}

func TestParseCompleteOrEscalateDefaultsCancel(t *testing.T) {
	d, err := Parse(types.ToolCall{
		Name: NameCompleteOrEscalate,
		Args: map[string]any{"reason": "user changed their mind"},
	})
	require.NoError(t, err)
	assert.True(t, d.(CompleteOrEscalate).Cancel)
}

func TestParseRejectsOrdinaryToolCall(t *testing.T) {
	_, err := Parse(types.ToolCall{Name: "search_hotels"})
	assert.Error(t, err)
	assert.False(t, IsDelegationCall(types.ToolCall{Name: "search_hotels"}))
	assert.True(t, IsDelegationCall(types.ToolCall{Name: NameToBookExcursion}))
}

func TestDelegationSignals(t *testing.T) {
	tests := []struct {
		d    Delegation
		want types.AssistantID
	}{
		{ToFlightBookingAssistant{}, types.AssistantFlight},
		{ToBookCarRental{}, types.AssistantCarRental},
		{ToHotelBookingAssistant{}, types.AssistantHotel},
		{ToBookExcursion{}, types.AssistantExcursion},
	}
	for _, tt := range tests {
		stack := Update(nil, tt.d.Signal())
		require.Len(t, stack, 1)
		assert.Equal(t, tt.want, stack[0])
	}
}

func TestDispatcherDelegationDefinitions(t *testing.T) {
	defs := DispatcherDelegationDefinitions()
	require.Len(t, defs, 4)
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
		require.NotEmpty(t, d.Description)
		require.NotNil(t, d.InputSchema)
	}
	for _, want := range []string{
		NameToFlightBookingAssistant, NameToBookCarRental,
		NameToHotelBookingAssistant, NameToBookExcursion,
	} {
		assert.True(t, names[want], "missing declaration %s", want)
	}
}
