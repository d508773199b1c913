package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// Room is one shared board with its turn cursor and player registry.
// It is not safe for concurrent use; the hub serializes every call.
type Room struct {
	key      string
	board    entity.Board
	last     entity.Symbol
	registry map[entity.Symbol]*entity.Player
}

// Outcome describes an accepted move.
type Outcome struct {
	Cell   int
	Symbol entity.Symbol
	Result entity.Result
	// Winner is the identity claimed for the winning symbol, nil if none.
	Winner *entity.Player
}

// Snapshot is a copy of the room state used to sync a late joiner.
type Snapshot struct {
	Board   entity.Board
	Claimed []entity.Symbol
}

// State is the storable form of a room.
type State struct {
	Board   entity.Board                     `json:"board"`
	Last    entity.Symbol                    `json:"last"`
	Players map[entity.Symbol]*entity.Player `json:"players,omitempty"`
}

func NewRoom(key string) *Room {
	return &Room{
		key:      key,
		registry: make(map[entity.Symbol]*entity.Player, 2),
	}
}

// RestoreRoom - rebuilds a room from stored state.
func RestoreRoom(key string, state State) *Room {
	room := NewRoom(key)
	room.board = state.Board
	room.last = state.Last

	for symbol, player := range state.Players {
		if symbol.IsValid() {
			room.registry[symbol] = player
		}
	}

	return room
}

func (that *Room) State() State {
	state := State{
		Board: that.board,
		Last:  that.last,
	}

	if len(that.registry) > 0 {
		state.Players = make(map[entity.Symbol]*entity.Player, len(that.registry))
		for symbol, player := range that.registry {
			state.Players[symbol] = player
		}
	}

	return state
}

func (that *Room) Key() string {
	return that.key
}

// ClaimSymbol - binds player to symbol, replacing any previous holder.
func (that *Room) ClaimSymbol(symbol entity.Symbol, player *entity.Player) error {
	if !symbol.IsValid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidSymbol, symbol)
	}

	that.registry[symbol] = player

	return nil
}

func (that *Room) Player(symbol entity.Symbol) (*entity.Player, bool) {
	player, ok := that.registry[symbol]
	return player, ok
}

// MakeTurn - validates and applies a move. The only ordering rule is that
// symbol differs from the last accepted one; the mover's identity is not checked.
func (that *Room) MakeTurn(cell int, symbol entity.Symbol) (*Outcome, error) {
	if err := validateMove(that.board, that.last, cell, symbol); err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	if err := that.board.Set(cell, symbol); err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	that.last = symbol

	outcome := &Outcome{
		Cell:   cell,
		Symbol: symbol,
		Result: entity.DetermineResult(that.board),
	}

	if winner := outcome.Result.Winner(); winner != entity.EmptyCell {
		outcome.Winner = that.registry[winner]
	}

	return outcome, nil
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, last entity.Symbol, cell int, symbol entity.Symbol) error {
	if err := entity.ValidateCell(cell); err != nil {
		return err
	}

	if !symbol.IsValid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidSymbol, symbol)
	}

	if board.Occupied(cell) {
		return apperror.ErrCellOccupied
	}

	if symbol == last {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// Reset - clears the board, the turn cursor and the registry.
func (that *Room) Reset() {
	that.board.Clear()
	that.last = entity.EmptyCell
	clear(that.registry)
}

func (that *Room) Board() entity.Board {
	return that.board
}

// LastSymbol - the turn cursor, EmptyCell before the first accepted move.
func (that *Room) LastSymbol() entity.Symbol {
	return that.last
}

func (that *Room) PlayerCount() int {
	return len(that.registry)
}

func (that *Room) Snapshot() Snapshot {
	snapshot := Snapshot{
		Board: that.board,
	}

	for _, symbol := range []entity.Symbol{entity.PlayerX, entity.PlayerO} {
		if _, ok := that.registry[symbol]; ok {
			snapshot.Claimed = append(snapshot.Claimed, symbol)
		}
	}

	return snapshot
}
