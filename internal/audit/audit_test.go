package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	calls int
}

func (f *failingSink) Append(context.Context, Event) error {
	f.calls++
	return errors.New("broker unreachable")
}

func TestPublisher_StampsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, slog.Default())

	err := publisher.Emit(context.Background(), Event{Action: ActionDecision})
	require.NoError(t, err)

	events, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := NewInMemoryStore()
	sink := &failingSink{}
	publisher := NewPublisher(store, slog.Default(), sink)

	err := publisher.Emit(context.Background(), Event{Action: ActionRegister})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.calls)
}

func TestInMemoryStore_ListRecentNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, Event{SubmissionID: id}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].SubmissionID)
	assert.Equal(t, "b", events[1].SubmissionID)
}

func TestAsync_EmitNeverBlocks(t *testing.T) {
	publisher := NewPublisher(NewInMemoryStore(), slog.Default())
	async := NewAsync(publisher, 1, slog.Default())

	ctx := context.Background()
	async.Emit(ctx, Event{Action: ActionRegister})
	async.Emit(ctx, Event{Action: ActionRegister}) // overflows, dropped
}

func TestAsync_RunDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, slog.Default())
	async := NewAsync(publisher, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	async.Emit(ctx, Event{Action: ActionDecision, SubmissionID: "s-1"})
	cancel()

	err := async.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMaskIDNumber(t *testing.T) {
	assert.Equal(t, "******178", MaskIDNumber("280773178"))
	assert.Equal(t, "178", MaskIDNumber("178"))
	assert.Equal(t, "", MaskIDNumber(""))
}
