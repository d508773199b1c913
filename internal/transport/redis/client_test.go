package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/testing/suite"
)

type sink struct {
	events chan entity.Event
}

func (that *sink) Deliver(_ context.Context, event entity.Event) error {
	that.events <- event
	return nil
}

func subscribe(ctx context.Context, t *testing.T, broadcaster *Broadcaster) *sink {
	t.Helper()

	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	out := &sink{events: make(chan entity.Event, 16)}
	ready := make(chan struct{})

	go func() {
		_ = broadcaster.Subscribe(ctx, out, ready)
	}()

	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatal("subscription was not confirmed")
	}

	return out
}

func next(t *testing.T, out *sink) entity.Event {
	t.Helper()

	select {
	case event := <-out.events:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
		return entity.Event{}
	}
}

func TestConnect(t *testing.T) {
	ctx, st := suite.New(t)

	client, err := Connect(ctx, st.RedisAddr)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = Connect(ctx, "127.0.0.1:1")
	require.Error(t, err)
}

func TestBroadcaster_RoundTrip(t *testing.T) {
	ctx, st := suite.New(t)

	broadcaster := NewBroadcaster(st.Logger, st.Redis, "tictactoe")
	out := subscribe(ctx, t, broadcaster)

	t.Run("Update keeps its payload", func(t *testing.T) {
		// When: an update is published
		require.NoError(t, broadcaster.Broadcast(ctx, entity.NewUpdateEvent("global", 4, entity.PlayerX)))

		// Then: the subscriber receives the same event with the raw payload
		event := next(t, out)
		assert.Equal(t, entity.EventUpdate, event.Name)
		assert.Equal(t, "global", event.Room)

		data, err := json.Marshal(event.Data)
		require.NoError(t, err)
		assert.JSONEq(t, `{"index":4,"symbol":"x"}`, string(data))
	})

	t.Run("Reset has no payload", func(t *testing.T) {
		require.NoError(t, broadcaster.Broadcast(ctx, entity.NewResetEvent("other")))

		event := next(t, out)
		assert.Equal(t, entity.NewResetEvent("other"), event)
	})

	t.Run("Draw game over carries a null player", func(t *testing.T) {
		require.NoError(t, broadcaster.Broadcast(ctx, entity.NewGameOverEvent("global", entity.Draw, nil)))

		event := next(t, out)
		data, err := json.Marshal(event.Data)
		require.NoError(t, err)
		assert.JSONEq(t, `{"symbol":"draw","player":null}`, string(data))
	})
}

func TestBroadcaster_IgnoresOtherPrefixes(t *testing.T) {
	ctx, st := suite.New(t)

	out := subscribe(ctx, t, NewBroadcaster(st.Logger, st.Redis, "tictactoe"))
	foreign := NewBroadcaster(st.Logger, st.Redis, "chess")

	require.NoError(t, foreign.Broadcast(ctx, entity.NewResetEvent("global")))
	require.NoError(t, st.Redis.Publish(ctx, "tictactoe:global", "not json").Err())
	require.NoError(t, NewBroadcaster(st.Logger, st.Redis, "tictactoe").Broadcast(ctx, entity.NewBusySymbolEvent("global", entity.PlayerO)))

	event := next(t, out)
	assert.Equal(t, entity.EventBusySymbol, event.Name)
}
