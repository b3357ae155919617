package graph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"concierge/internal/types"
)

func newCheckpointStore(t *testing.T) *CheckpointStore {
	t.Helper()
	store, err := OpenCheckpoints(filepath.Join(t.TempDir(), "checkpoints.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCheckpointRoundTrip(t *testing.T) {
	store := newCheckpointStore(t)
	ctx := context.Background()

	state := types.State{
		Messages: []types.Message{
			types.UserMessage("book the Hilton"),
			{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{
				{ID: "call_1", Name: "book_hotel", Args: map[string]any{"hotel_id": float64(1)}},
			}},
		},
		UserInfo:    "ticket info",
		DialogStack: []types.AssistantID{types.AssistantHotel},
	}
	pending := &Pending{Call: state.Messages[1].ToolCalls[0]}

	require.NoError(t, store.Save(ctx, "thread-1", state, pending))

	cp, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.True(t, cp.Interrupted())
	require.Equal(t, "book_hotel", cp.Pending.Call.Name)
	require.Equal(t, state.DialogStack, cp.State.DialogStack)
	require.Equal(t, "ticket info", cp.State.UserInfo)
	require.Len(t, cp.State.Messages, 2)
}

func TestCheckpointSaveReplacesPrevious(t *testing.T) {
	store := newCheckpointStore(t)
	ctx := context.Background()

	state := types.State{Messages: []types.Message{types.UserMessage("hi")}}
	require.NoError(t, store.Save(ctx, "thread-1", state,
		&Pending{Call: types.ToolCall{ID: "c1", Name: "book_hotel"}}))

	state.Messages = types.Append(state.Messages, types.UserMessage("done"))
	require.NoError(t, store.Save(ctx, "thread-1", state, nil))

	cp, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.False(t, cp.Interrupted())
	require.Len(t, cp.State.Messages, 2)
}

func TestCheckpointLoadMissing(t *testing.T) {
	store := newCheckpointStore(t)

	_, err := store.Load(context.Background(), "unknown")
	require.True(t, errors.Is(err, ErrNoCheckpoint))
}

func TestCheckpointDelete(t *testing.T) {
	store := newCheckpointStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "thread-1", types.State{}, nil))
	require.NoError(t, store.Delete(ctx, "thread-1"))

	_, err := store.Load(ctx, "thread-1")
	require.True(t, errors.Is(err, ErrNoCheckpoint))
}

func TestCheckpointEmptyThreadIsNoop(t *testing.T) {
	store := newCheckpointStore(t)
	require.NoError(t, store.Save(context.Background(), "", types.State{}, nil))
}
