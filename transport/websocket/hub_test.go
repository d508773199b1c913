package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const eventBoom = "boom"

// echoHandler broadcasts every message back to the sender's room and panics on eventBoom.
type echoHandler struct{}

func (that echoHandler) handleJoin(context.Context, *Client) {}

func (that echoHandler) handleMessage(ctx context.Context, client *Client, message *Message) {
	if message.Event == eventBoom {
		panic("handler fault")
	}

	_ = client.hub.Broadcast(ctx, entity.Event{Name: message.Event, Room: client.room})
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	go hub.Run(ctx, echoHandler{})

	return hub
}

func newTestClient(t *testing.T, hub *Hub, id string, buffer int) *Client {
	t.Helper()

	client := &Client{
		id:     id,
		room:   "global",
		send:   make(chan []byte, buffer),
		hub:    hub,
		logger: hub.logger.With("socket", id),
	}

	require.True(t, hub.join(client))

	return client
}

func receive(t *testing.T, client *Client) entity.Event {
	t.Helper()

	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed")

		var event entity.Event
		require.NoError(t, json.Unmarshal(payload, &event))

		return event
	case <-time.After(readTimeout):
		t.Fatalf("client %s received nothing", client.id)
		return entity.Event{}
	}
}

func TestHub_HandlerPanic(t *testing.T) {
	// Given: a connected client
	hub := newRunningHub(t)
	client := newTestClient(t, hub, "conn-1", sendBufferSize)

	// When: one event panics in its handler and the next one is valid
	require.True(t, hub.submit(client, &Message{Event: eventBoom}))
	require.True(t, hub.submit(client, &Message{Event: entity.EventReset}))

	// Then: the loop survived and the client is still served
	event := receive(t, client)
	assert.Equal(t, entity.EventReset, event.Name)
	assert.Equal(t, "global", event.Room)
	assert.Equal(t, 1, hub.Clients())
}

func TestHub_SlowClient(t *testing.T) {
	// Given: a fast client and a client whose send buffer is already full
	hub := newRunningHub(t)
	fast := newTestClient(t, hub, "fast", sendBufferSize)
	slow := newTestClient(t, hub, "slow", 1)
	slow.send <- []byte(`{"event":"filler"}`)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, readTimeout, 10*time.Millisecond)

	// When: an event is fanned out to the room
	require.True(t, hub.submit(fast, &Message{Event: entity.EventReset}))

	// Then: the fast client still gets it
	assert.Equal(t, entity.EventReset, receive(t, fast).Name)

	// And: the slow client is dropped and its queue closed after the pending payload
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, readTimeout, 10*time.Millisecond)

	filler, ok := <-slow.send
	require.True(t, ok)
	assert.JSONEq(t, `{"event":"filler"}`, string(filler))

	_, ok = <-slow.send
	assert.False(t, ok)

	// And: later fan-outs keep reaching the remaining client
	require.True(t, hub.submit(fast, &Message{Event: entity.EventUpdate}))
	assert.Equal(t, entity.EventUpdate, receive(t, fast).Name)
}
