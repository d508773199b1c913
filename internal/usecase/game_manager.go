package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/tictactoe"
)

type roomRepo interface {
	Get(ctx context.Context, key string) (*tictactoe.Room, error)
	Update(ctx context.Context, key string, fn func(room *tictactoe.Room) error) error
}

type broadcaster interface {
	Broadcast(ctx context.Context, event entity.Event) error
}

// GameManager applies inbound events to rooms and broadcasts the resulting state changes.
// Room mutations go through roomRepo.Update, events are broadcast only after the change is stored.
type GameManager struct {
	logger      *slog.Logger
	roomRepo    roomRepo
	broadcaster broadcaster
}

func NewGameManager(logger *slog.Logger, roomRepo roomRepo, broadcaster broadcaster) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		roomRepo:    roomRepo,
		broadcaster: broadcaster,
	}
}

// SetSymbol - binds the sender's identity to a symbol and marks the symbol busy for everyone.
func (that *GameManager) SetSymbol(ctx context.Context, roomKey, connID string, payload entity.SetSymbolPayload) error {
	log := that.logger.With("method", "SetSymbol", "room", roomKey)

	symbol, err := entity.ParseSymbol(payload.Symbol)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	player := &entity.Player{
		Username:   payload.Username,
		Avatar:     payload.Avatar,
		AvatarType: payload.AvatarType,
		AvatarData: payload.AvatarData,
		SocketID:   connID,
	}

	err = that.roomRepo.Update(ctx, roomKey, func(room *tictactoe.Room) error {
		if previous, ok := room.Player(symbol); ok && previous.SocketID != connID {
			log.Debug("symbol taken over", "symbol", symbol, "previous", previous.SocketID, "socket", connID)
		}

		return room.ClaimSymbol(symbol, player)
	})
	if err != nil {
		return fmt.Errorf("failed to claim symbol: %w", err)
	}

	log.Info("symbol claimed", "symbol", symbol, "username", player.Username, "socket", connID)

	return that.broadcast(ctx, entity.NewBusySymbolEvent(roomKey, symbol))
}

// Reset - clears the room and tells every client to restore its initial UI.
func (that *GameManager) Reset(ctx context.Context, roomKey string) error {
	err := that.roomRepo.Update(ctx, roomKey, func(room *tictactoe.Room) error {
		room.Reset()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset room: %w", err)
	}

	that.logger.Info("room reset", "room", roomKey)

	return that.broadcast(ctx, entity.NewResetEvent(roomKey))
}

// Action - runs a move through the turn arbiter. Rejected moves return nil
// and broadcast nothing, the sender gets no feedback.
func (that *GameManager) Action(ctx context.Context, roomKey string, payload entity.ActionPayload) error {
	log := that.logger.With("method", "Action", "room", roomKey)

	var outcome *tictactoe.Outcome
	err := that.roomRepo.Update(ctx, roomKey, func(room *tictactoe.Room) error {
		var turnErr error
		outcome, turnErr = room.MakeTurn(payload.Index, entity.Symbol(payload.Symbol))
		return turnErr
	})
	if err != nil {
		if isRejectedMove(err) {
			log.Debug("move dropped", "cell", payload.Index, "symbol", payload.Symbol, "reason", err)
			return nil
		}

		return fmt.Errorf("failed make turn: %w", err)
	}

	if err = that.broadcast(ctx, entity.NewUpdateEvent(roomKey, outcome.Cell, outcome.Symbol)); err != nil {
		return err
	}

	if !outcome.Result.IsFinished() {
		return nil
	}

	log.Info("game over", "result", outcome.Result)

	return that.broadcast(ctx, entity.NewGameOverEvent(roomKey, outcome.Result, outcome.Winner))
}

// Sync - events that bring a newly connected client up to date with the room.
func (that *GameManager) Sync(ctx context.Context, roomKey string) ([]entity.Event, error) {
	room, err := that.roomRepo.Get(ctx, roomKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	snapshot := room.Snapshot()

	events := make([]entity.Event, 0, len(snapshot.Claimed)+snapshot.Board.Count())
	for _, symbol := range snapshot.Claimed {
		events = append(events, entity.NewBusySymbolEvent(roomKey, symbol))
	}

	for cell, symbol := range snapshot.Board {
		if symbol != entity.EmptyCell {
			events = append(events, entity.NewUpdateEvent(roomKey, cell, symbol))
		}
	}

	return events, nil
}

func (that *GameManager) broadcast(ctx context.Context, event entity.Event) error {
	if err := that.broadcaster.Broadcast(ctx, event); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", event.Name, err)
	}

	return nil
}

func isRejectedMove(err error) bool {
	return errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, entity.ErrInvalidCell) ||
		errors.Is(err, entity.ErrInvalidSymbol)
}
