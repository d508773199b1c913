package entity

import (
	"errors"
	"fmt"
)

type Symbol string

const (
	PlayerX Symbol = "x"
	PlayerO Symbol = "o"

	EmptyCell Symbol = ""
)

// Result is the outcome reported by DetermineResult.
type Result string

const (
	NoResult Result = ""
	WinnerX  Result = Result(PlayerX)
	WinnerO  Result = Result(PlayerO)
	Draw     Result = "draw"
)

const BoardSize = 9

var (
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrInvalidSymbol = errors.New("invalid symbol")

	// WinCombos are scanned in order: rows, columns, diagonals.
	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// ParseSymbol - converts a raw wire value into one of the two playable symbols.
func ParseSymbol(raw string) (Symbol, error) {
	switch symbol := Symbol(raw); symbol {
	case PlayerX, PlayerO:
		return symbol, nil
	default:
		return EmptyCell, fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}
}

func (that Symbol) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// Board - row-major 3x3 grid, EmptyCell marks an unset cell.
type Board [BoardSize]Symbol

func ValidateCell(cell int) error {
	if cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	return nil
}

func (that Board) Occupied(cell int) bool {
	return that[cell] != EmptyCell
}

func (that *Board) Set(cell int, symbol Symbol) error {
	if err := ValidateCell(cell); err != nil {
		return err
	}

	that[cell] = symbol

	return nil
}

// Count - number of occupied cells.
func (that Board) Count() int {
	count := 0
	for _, cell := range that {
		if cell != EmptyCell {
			count++
		}
	}

	return count
}

func (that *Board) Clear() {
	*that = Board{}
}

// DetermineResult - returns the first completed line's symbol, Draw on a full board, NoResult otherwise.
func DetermineResult(board Board) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return Result(a)
		}
	}

	// the game will continue until all the squares are full
	if board.Count() < BoardSize {
		return NoResult
	}

	return Draw
}

func (that Result) IsFinished() bool {
	return that != NoResult
}

// Winner - the winning symbol, EmptyCell for a draw or an unfinished game.
func (that Result) Winner() Symbol {
	switch that {
	case WinnerX, WinnerO:
		return Symbol(that)
	default:
		return EmptyCell
	}
}
