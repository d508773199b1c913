package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

var ErrSubscriptionClosed = errors.New("redis subscription closed")

type deliverer interface {
	Deliver(ctx context.Context, event entity.Event) error
}

// wireEvent keeps Data raw so it is forwarded to websocket clients untouched.
type wireEvent struct {
	Name string          `json:"event"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Broadcaster publishes room events on "<prefix>:<room>" channels.
type Broadcaster struct {
	logger *slog.Logger
	client *redis.Client
	prefix string
}

// Connect - opens a client and checks the server is reachable.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return conn, nil
}

func NewBroadcaster(logger *slog.Logger, client *redis.Client, prefix string) *Broadcaster {
	return &Broadcaster{
		logger: logger.With("component", "redis_broadcaster"),
		client: client,
		prefix: prefix,
	}
}

func (that *Broadcaster) channel(room string) string {
	return that.prefix + ":" + room
}

// Broadcast - publishes event to its room channel.
func (that *Broadcaster) Broadcast(ctx context.Context, event entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel(event.Room), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe - forwards every event published under the prefix to sink until ctx is canceled.
// ready is closed once the subscription is confirmed by the server.
func (that *Broadcaster) Subscribe(ctx context.Context, sink deliverer, ready chan<- struct{}) error {
	log := that.logger.With("method", "Subscribe")

	pubsub := that.client.PSubscribe(ctx, that.channel("*"))
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("failed to close subscription", "error", err)
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	if ready != nil {
		close(ready)
	}

	log.Info("subscribed", "pattern", that.channel("*"))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}

			var event wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("failed to unmarshal event", "channel", msg.Channel, "error", err)
				continue
			}

			forwarded := entity.Event{Name: event.Name, Room: event.Room}
			if len(event.Data) > 0 {
				forwarded.Data = event.Data
			}

			if err := sink.Deliver(ctx, forwarded); err != nil {
				return fmt.Errorf("failed to deliver event: %w", err)
			}
		}
	}
}
