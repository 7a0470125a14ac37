package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	x = PlayerX
	o = PlayerO
	e = None
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  Outcome
	}{
		{
			name:  "No winner - empty board",
			board: Board{},
			want:  Outcome{Result: ResultNone},
		},
		{
			name: "No winner - partial board",
			board: Board{
				x, e, e,
				e, o, e,
				e, e, e,
			},
			want: Outcome{Result: ResultNone},
		},
		{
			name: "X wins - first row",
			board: Board{
				x, x, x,
				e, o, e,
				e, e, o,
			},
			want: Outcome{Result: ResultWin, Line: Line{0, 1, 2}, Winner: x},
		},
		{
			name: "O wins - second column",
			board: Board{
				x, o, e,
				x, o, e,
				e, o, e,
			},
			want: Outcome{Result: ResultWin, Line: Line{1, 4, 7}, Winner: o},
		},
		{
			name: "O wins - anti-diagonal",
			board: Board{
				e, e, o,
				e, o, e,
				o, e, e,
			},
			want: Outcome{Result: ResultWin, Line: Line{2, 4, 6}, Winner: o},
		},
		{
			name: "Win on the last cell is not a draw",
			board: Board{
				x, x, x,
				o, o, x,
				o, x, o,
			},
			want: Outcome{Result: ResultWin, Line: Line{0, 1, 2}, Winner: x},
		},
		{
			name: "Full board without a line is a draw",
			board: Board{
				x, o, x,
				x, o, o,
				o, x, x,
			},
			want: Outcome{Result: ResultDraw},
		},
		{
			name: "First line in table order wins",
			board: Board{
				x, x, x,
				x, o, o,
				x, o, o,
			},
			want: Outcome{Result: ResultWin, Line: Line{0, 1, 2}, Winner: x},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.board))
		})
	}
}

func TestOutcome_JSON(t *testing.T) {
	t.Run("Line is omitted without a win", func(t *testing.T) {
		for _, o := range []Outcome{{Result: ResultNone}, {Result: ResultDraw}} {
			data, err := json.Marshal(o)
			require.NoError(t, err)
			assert.JSONEq(t, `{"result":"`+string(o.Result)+`"}`, string(data))
		}
	})

	t.Run("Win keeps its line", func(t *testing.T) {
		want := Outcome{Result: ResultWin, Line: Line{2, 4, 6}, Winner: o}

		data, err := json.Marshal(want)
		require.NoError(t, err)
		assert.JSONEq(t, `{"result":"win","line":[2,4,6],"winner":"O"}`, string(data))

		var got Outcome
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, want, got)
	})
}

func TestEvaluate_EveryLine(t *testing.T) {
	for _, mark := range []PlayerMark{PlayerX, PlayerO} {
		for _, line := range Lines {
			var b Board
			for _, idx := range line {
				b[idx] = mark
			}

			got := Evaluate(b)
			if got.Result != ResultWin || got.Line != line || got.Winner != mark {
				t.Errorf("Evaluate() with %s on %v got %+v", mark, line, got)
			}
		}
	}
}

func TestEvaluate_DoesNotMutate(t *testing.T) {
	b := Board{x, o, e, e, x, e, e, e, o}
	before := b

	Evaluate(b)

	assert.Equal(t, before, b)
}

func TestBoard_IsFull(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  bool
	}{
		{name: "Empty board is not full", board: Board{}, want: false},
		{name: "Partial board is not full", board: Board{x, e, e, e, o, e, e, e, e}, want: false},
		{name: "Full board is full", board: Board{x, o, x, x, o, o, o, x, x}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.IsFull(); got != tt.want {
				t.Errorf("IsFull() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoard_EmptyCells(t *testing.T) {
	b := Board{
		x, e, o,
		e, x, e,
		o, e, e,
	}

	assert.Equal(t, []int{1, 3, 5, 7, 8}, b.EmptyCells())
	assert.Empty(t, Board{x, o, x, x, o, o, o, x, x}.EmptyCells())
	assert.Len(t, Board{}.EmptyCells(), BoardSize)
}

func TestPlayerMark_Opponent(t *testing.T) {
	assert.Equal(t, PlayerO, PlayerX.Opponent())
	assert.Equal(t, PlayerX, PlayerO.Opponent())
	assert.Equal(t, None, None.Opponent())
}

func TestParseBoard(t *testing.T) {
	t.Run("Parses marks case-insensitively", func(t *testing.T) {
		// Given: a wire board with mixed case marks
		cells := []string{"x", "O", "", " ", "X", "", "", "o", ""}

		// When: parsing it
		b, err := ParseBoard(cells)

		// Then: marks are normalized
		require.NoError(t, err)
		assert.Equal(t, Board{x, o, e, e, x, e, e, o, e}, b)
		assert.Equal(t, []string{"X", "O", "", "", "X", "", "", "O", ""}, b.Strings())
	})

	t.Run("Rejects wrong length", func(t *testing.T) {
		_, err := ParseBoard([]string{"X", "O"})
		require.ErrorIs(t, err, ErrInvalidBoard)
	})

	t.Run("Rejects unknown marks", func(t *testing.T) {
		_, err := ParseBoard([]string{"X", "O", "Z", "", "", "", "", "", ""})
		require.ErrorIs(t, err, ErrInvalidBoard)
		assert.Contains(t, err.Error(), "cell 2")
	})
}
