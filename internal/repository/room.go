package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

var ErrTooManyConflicts = errors.New("room update kept conflicting")

// RoomRepository hands out rooms by key; a missing room is created empty.
// Update applies fn atomically and stores the result only when fn returns nil.
type RoomRepository interface {
	Get(ctx context.Context, key string) (*tictactoe.Room, error)
	Update(ctx context.Context, key string, fn func(room *tictactoe.Room) error) error
}

// memRoom keeps rooms in process memory; state does not survive a restart.
type memRoom struct {
	mu    sync.Mutex
	rooms map[string]*tictactoe.Room
}

func NewRoomRepository() RoomRepository {
	return &memRoom{
		rooms: make(map[string]*tictactoe.Room),
	}
}

func (that *memRoom) Get(_ context.Context, key string) (*tictactoe.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.getOrCreate(key), nil
}

func (that *memRoom) Update(_ context.Context, key string, fn func(room *tictactoe.Room) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	// a room validates before it mutates, so a failed fn leaves it untouched
	return fn(that.getOrCreate(key))
}

func (that *memRoom) getOrCreate(key string) *tictactoe.Room {
	room, ok := that.rooms[key]
	if !ok {
		room = tictactoe.NewRoom(key)
		that.rooms[key] = room
	}

	return room
}
