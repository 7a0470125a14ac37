package bot

import (
	"ctchen222/quantum-tictactoe/internal/game"
	"math/rand/v2"
	"sync"
)

const (
	// NoMove is returned when the board has no empty cell to play.
	NoMove = -1

	// expertRandomRate is the chance an expert bot plays a random cell.
	expertRandomRate = 0.4

	winScore = 10
)

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	SelectMove(board game.Board, mark game.PlayerMark, difficulty Difficulty) int
}

// Engine selects moves for the bot. It is safe for concurrent use; the
// random source is its only shared state.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var defaultEngine = NewEngine(0)

// NewEngine creates an Engine. A zero seed draws a random one; any other seed
// makes every choice reproducible.
func NewEngine(seed uint64) *Engine {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Engine{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SelectMove calls the default engine.
func SelectMove(board game.Board, mark game.PlayerMark, difficulty Difficulty) int {
	return defaultEngine.SelectMove(board, mark, difficulty)
}

// SelectMove determines the bot's next move based on the specified difficulty.
// It returns NoMove when the board is full or mark is not a player mark.
func (e *Engine) SelectMove(board game.Board, mark game.PlayerMark, difficulty Difficulty) int {
	if !mark.Valid() {
		return NoMove
	}

	switch difficulty {
	case Novice:
		return e.RandomMove(board)
	case Expert:
		if e.randFloat() < expertRandomRate {
			return e.RandomMove(board)
		}
		return e.BestMove(board, mark)
	default:
		return e.BestMove(board, mark)
	}
}

// RandomMove picks any empty cell uniformly.
func (e *Engine) RandomMove(board game.Board) int {
	available := board.EmptyCells()
	if len(available) == 0 {
		return NoMove
	}
	return available[e.randIntN(len(available))]
}

// BestMove runs a full-depth minimax for mark and picks uniformly among the
// cells sharing the best score.
func (e *Engine) BestMove(board game.Board, mark game.PlayerMark) int {
	if !mark.Valid() {
		return NoMove
	}

	bestScore := 0
	var moves []int
	for i := range board {
		if board[i] != game.None {
			continue
		}

		board[i] = mark
		s := score(&board, 0, false, mark)
		board[i] = game.None

		switch {
		case len(moves) == 0 || s > bestScore:
			bestScore = s
			moves = []int{i}
		case s == bestScore:
			moves = append(moves, i)
		}
	}

	if len(moves) == 0 {
		return NoMove
	}
	return moves[e.randIntN(len(moves))]
}

// score rates the position for mark. Wins count more the sooner they come and
// losses count less the later they come.
func score(board *game.Board, depth int, maximizing bool, mark game.PlayerMark) int {
	switch outcome := game.Evaluate(*board); outcome.Result {
	case game.ResultWin:
		if outcome.Winner == mark {
			return winScore - depth
		}
		return depth - winScore
	case game.ResultDraw:
		return 0
	}

	mover := mark
	if !maximizing {
		mover = mark.Opponent()
	}

	best := winScore + 1
	if maximizing {
		best = -winScore - 1
	}
	for i := range board {
		if board[i] != game.None {
			continue
		}

		board[i] = mover
		s := score(board, depth+1, !maximizing, mark)
		board[i] = game.None

		if (maximizing && s > best) || (!maximizing && s < best) {
			best = s
		}
	}
	return best
}

func (e *Engine) randIntN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}

func (e *Engine) randFloat() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}
