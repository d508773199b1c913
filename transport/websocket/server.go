package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

type uGame interface {
	SetSymbol(ctx context.Context, roomKey, connID string, payload entity.SetSymbolPayload) error
	Reset(ctx context.Context, roomKey string) error
	Action(ctx context.Context, roomKey string, payload entity.ActionPayload) error
	Sync(ctx context.Context, roomKey string) ([]entity.Event, error)
}

type Options struct {
	AllowedOrigin string
	DefaultRoom   string
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	uGame    uGame
	options  Options
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *Client, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, uGame uGame, options Options) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		hub:     hub,
		uGame:   uGame,
		options: options,

		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers[entity.EventSetSymbol] = server.handleSetSymbol
	server.handlers[entity.EventReset] = server.handleReset
	server.handlers[entity.EventAction] = server.handleAction

	return server
}

// Run - starts the hub event loop, blocks until ctx is canceled.
func (that *Server) Run(ctx context.Context) {
	that.hub.Run(ctx, that)
}

// ServeHTTP - upgrades the connection to WebSocket and subscribes it to a room.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err, "origin", req.Header.Get("Origin"))
		return
	}

	room := req.URL.Query().Get("room")
	if room == "" {
		room = that.options.DefaultRoom
	}

	client := newClient(that.logger, that.hub, conn, room)
	if !that.hub.join(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// checkOrigin - allows the configured origin and clients that send no Origin header.
func (that *Server) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")

	return origin == "" || that.options.AllowedOrigin == "*" || origin == that.options.AllowedOrigin
}

func (that *Server) handleJoin(ctx context.Context, client *Client) {
	events, err := that.uGame.Sync(ctx, client.Room())
	if err != nil {
		client.logger.Error("failed to sync client", "error", err)
		return
	}

	for _, event := range events {
		that.hub.Send(client, event)
	}
}

func (that *Server) handleMessage(ctx context.Context, client *Client, message *Message) {
	log := client.logger.With("method", "handleMessage", "event", message.Event)

	if message.Room != "" && message.Room != client.Room() {
		log.Error("event for a foreign room dropped", "target", message.Room)
		return
	}

	handler, ok := that.handlers[message.Event]
	if !ok {
		log.Error("error processing message", "error", fmt.Errorf("%w: %s", apperror.ErrUnknownEvent, message.Event))
		return
	}

	if err := handler(ctx, client, message); err != nil {
		if errors.Is(err, apperror.ErrInvalidPayload) {
			log.Warn("malformed payload dropped", "error", err)
			return
		}

		log.Error("error processing message", "error", err)
	}
}

func (that *Server) handleSetSymbol(ctx context.Context, client *Client, message *Message) error {
	payload, err := decodeSetSymbol(message.Data)
	if err != nil {
		return err
	}

	if err = that.uGame.SetSymbol(ctx, client.Room(), client.ID(), payload); err != nil {
		return fmt.Errorf("failed to set symbol: %w", err)
	}

	return nil
}

func (that *Server) handleReset(ctx context.Context, client *Client, _ *Message) error {
	if err := that.uGame.Reset(ctx, client.Room()); err != nil {
		return fmt.Errorf("failed to reset room: %w", err)
	}

	return nil
}

func (that *Server) handleAction(ctx context.Context, client *Client, message *Message) error {
	payload, err := decodeAction(message.Data)
	if err != nil {
		return err
	}

	if err = that.uGame.Action(ctx, client.Room(), payload); err != nil {
		return fmt.Errorf("failed to apply action: %w", err)
	}

	return nil
}
