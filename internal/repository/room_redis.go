package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

const maxUpdateRetries = 16

// dbRoom stores room state under "room:<key>" so every edge process arbitrates one board.
type dbRoom struct {
	client *redis.Client
}

func NewRedisRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func roomKey(key string) string {
	return "room:" + key
}

func (that *dbRoom) Get(ctx context.Context, key string) (*tictactoe.Room, error) {
	return load(ctx, that.client, key)
}

// Update - optimistic check-and-set: WATCH the key, apply fn, write in MULTI, retry on conflict.
func (that *dbRoom) Update(ctx context.Context, key string, fn func(room *tictactoe.Room) error) error {
	txf := func(tx *redis.Tx) error {
		room, err := load(ctx, tx, key)
		if err != nil {
			return err
		}

		if err = fn(room); err != nil {
			return err
		}

		stateJSON, err := json.Marshal(room.State())
		if err != nil {
			return fmt.Errorf("could not marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey(key), stateJSON, 0)
			return nil
		})

		return err
	}

	for range maxUpdateRetries {
		err := that.client.Watch(ctx, txf, roomKey(key))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return fmt.Errorf("%w: %s", ErrTooManyConflicts, key)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, client getter, key string) (*tictactoe.Room, error) {
	response, err := client.Get(ctx, roomKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return tictactoe.NewRoom(key), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var state tictactoe.State
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return tictactoe.RestoreRoom(key, state), nil
}
