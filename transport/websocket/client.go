package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // image avatars travel inline as data URLs
	sendBufferSize = 256
)

// Client is one websocket connection subscribed to a single room.
type Client struct {
	id     string
	room   string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger *slog.Logger
}

func newClient(logger *slog.Logger, hub *Hub, conn *websocket.Conn, room string) *Client {
	id := uuid.NewString()

	return &Client{
		id:     id,
		room:   room,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		hub:    hub,
		logger: logger.With("socket", id, "room", room),
	}
}

func (that *Client) ID() string {
	return that.id
}

func (that *Client) Room() string {
	return that.room
}

// readPump - forwards inbound frames to the hub until the connection fails.
func (that *Client) readPump() {
	log := that.logger.With("method", "readPump")

	defer func() {
		that.hub.leave(that)
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if !that.hub.submit(that, &message) {
			return
		}
	}
}

// writePump - drains the send queue and keeps the connection alive with pings.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
