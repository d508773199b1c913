package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

var ErrHubStopped = errors.New("hub is stopped")

type eventHandler interface {
	handleJoin(ctx context.Context, client *Client)
	handleMessage(ctx context.Context, client *Client, message *Message)
}

type inbound struct {
	client  *Client
	message *Message
}

// Hub is the single event loop: it owns the client set and processes
// inbound events one at a time in arrival order.
type Hub struct {
	logger *slog.Logger

	rooms map[string]map[*Client]struct{}
	count atomic.Int64

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	deliver    chan entity.Event
	done       chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),

		rooms: make(map[string]map[*Client]struct{}),

		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		deliver:    make(chan entity.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run - processes hub events until ctx is canceled.
func (that *Hub) Run(ctx context.Context, handler eventHandler) {
	log := that.logger.With("method", "Run")

	defer that.shutdown()

	for {
		select {
		case client := <-that.register:
			that.add(client)
			that.safely(client, func() { handler.handleJoin(ctx, client) })
		case client := <-that.unregister:
			that.remove(client)
		case in := <-that.inbound:
			that.safely(in.client, func() { handler.handleMessage(ctx, in.client, in.message) })
		case event := <-that.deliver:
			that.fanOut(event)
		case <-ctx.Done():
			log.Info("hub stopped", "clients", that.count.Load())
			return
		}
	}
}

// Broadcast - fans event out to every client of its room.
// It must only be called from inside the Run loop.
func (that *Hub) Broadcast(_ context.Context, event entity.Event) error {
	that.fanOut(event)
	return nil
}

// Deliver - queues an event produced outside the Run loop for fan-out.
func (that *Hub) Deliver(ctx context.Context, event entity.Event) error {
	select {
	case that.deliver <- event:
		return nil
	case <-that.done:
		return ErrHubStopped
	case <-ctx.Done():
		return fmt.Errorf("failed to deliver event: %w", ctx.Err())
	}
}

// Clients - number of registered connections.
func (that *Hub) Clients() int {
	return int(that.count.Load())
}

// Send - writes event to a single client. Only called from inside the Run loop.
func (that *Hub) Send(client *Client, event entity.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event.Name, "error", err)
		return
	}

	that.enqueue(client, payload)
}

func (that *Hub) join(client *Client) bool {
	select {
	case that.register <- client:
		return true
	case <-that.done:
		return false
	}
}

func (that *Hub) leave(client *Client) {
	select {
	case that.unregister <- client:
	case <-that.done:
	}
}

func (that *Hub) submit(client *Client, message *Message) bool {
	select {
	case that.inbound <- inbound{client: client, message: message}:
		return true
	case <-that.done:
		return false
	}
}

func (that *Hub) add(client *Client) {
	clients, ok := that.rooms[client.room]
	if !ok {
		clients = make(map[*Client]struct{})
		that.rooms[client.room] = clients
	}

	clients[client] = struct{}{}
	that.count.Add(1)

	client.logger.Info("client connected")
}

func (that *Hub) remove(client *Client) {
	clients, ok := that.rooms[client.room]
	if !ok {
		return
	}

	if _, ok = clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	that.count.Add(-1)

	if len(clients) == 0 {
		delete(that.rooms, client.room)
	}

	client.logger.Info("client disconnected")
}

func (that *Hub) fanOut(event entity.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event.Name, "error", err)
		return
	}

	for client := range that.rooms[event.Room] {
		that.enqueue(client, payload)
	}
}

// enqueue - drops a client whose send buffer is full rather than stall the loop.
func (that *Hub) enqueue(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		client.logger.Warn("send buffer full, dropping client")
		that.remove(client)
	}
}

// safely - a panic in one handler only aborts that event.
func (that *Hub) safely(client *Client, fn func()) {
	defer func() {
		if err := recover(); err != nil {
			client.logger.Error("recovered from panic in handler", "error", err)
		}
	}()

	fn()
}

func (that *Hub) shutdown() {
	close(that.done)

	for _, clients := range that.rooms {
		for client := range clients {
			close(client.send)
		}
	}

	that.rooms = make(map[string]map[*Client]struct{})
	that.count.Store(0)
}
