package game

import (
	"errors"
	"fmt"
	"strings"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// BoardSize is the number of cells on a 3x3 board.
	BoardSize = 9
)

var ErrInvalidBoard = errors.New("invalid board")

// Board holds the nine cells of a game, row-major.
type Board [BoardSize]PlayerMark

// Line is an index triple of three cells in a row, column or diagonal.
type Line [3]int

// Lines lists every winning line in evaluation order: rows, columns, diagonals.
var Lines = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Valid reports whether m is one of the two player marks.
func (m PlayerMark) Valid() bool {
	return m == PlayerX || m == PlayerO
}

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// IsFull reports whether every cell holds a mark.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// Strings converts the board to its wire form.
func (b Board) Strings() []string {
	out := make([]string, BoardSize)
	for i, cell := range b {
		out[i] = string(cell)
	}
	return out
}

// ParseBoard builds a Board from nine wire cells. Marks are case-insensitive.
func ParseBoard(cells []string) (Board, error) {
	var b Board
	if len(cells) != BoardSize {
		return b, fmt.Errorf("%w: want %d cells, got %d", ErrInvalidBoard, BoardSize, len(cells))
	}

	for i, cell := range cells {
		mark := PlayerMark(strings.ToUpper(strings.TrimSpace(cell)))
		if mark != None && !mark.Valid() {
			return b, fmt.Errorf("%w: cell %d has unknown mark %q", ErrInvalidBoard, i, cell)
		}
		b[i] = mark
	}
	return b, nil
}
