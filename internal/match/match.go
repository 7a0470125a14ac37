package match

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/game"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrIllegalMove = errors.New("engine returned an illegal move")

// Pairing is the difficulty each side plays at.
type Pairing struct {
	X bot.Difficulty `json:"x"`
	O bot.Difficulty `json:"o"`
}

func (p Pairing) String() string {
	return fmt.Sprintf("%s vs %s", p.X, p.O)
}

// Record tallies the games played for one pairing.
type Record struct {
	Pairing
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
	Draws int `json:"draws"`
}

func (r *Record) add(o game.Outcome) {
	switch {
	case o.Result == game.ResultDraw:
		r.Draws++
	case o.Winner == game.PlayerX:
		r.XWins++
	case o.Winner == game.PlayerO:
		r.OWins++
	}
}

// Games is the number of games in the record.
func (r Record) Games() int {
	return r.XWins + r.OWins + r.Draws
}

// AllPairings lists every combination of difficulties, X first.
func AllPairings() []Pairing {
	tiers := []bot.Difficulty{bot.Novice, bot.Standard, bot.Expert}
	pairings := make([]Pairing, 0, len(tiers)*len(tiers))
	for _, x := range tiers {
		for _, o := range tiers {
			pairings = append(pairings, Pairing{X: x, O: o})
		}
	}
	return pairings
}

// Play runs one game on an empty board with calc choosing for both sides.
func Play(calc bot.MoveCalculator, p Pairing) (game.Outcome, error) {
	var board game.Board
	mark := game.PlayerX

	outcome := game.Evaluate(board)
	for !outcome.IsOver() {
		difficulty := p.X
		if mark == game.PlayerO {
			difficulty = p.O
		}

		cell := calc.SelectMove(board, mark, difficulty)
		if cell < 0 || cell >= game.BoardSize || board[cell] != game.None {
			return outcome, fmt.Errorf("%w: %s chose %d", ErrIllegalMove, mark, cell)
		}

		board[cell] = mark
		mark = mark.Opponent()
		outcome = game.Evaluate(board)
	}
	return outcome, nil
}

// Tournament plays pairings against each other on a fixed pool of workers.
type Tournament struct {
	calc    bot.MoveCalculator
	workers int
}

func NewTournament(calc bot.MoveCalculator, workers int) *Tournament {
	if workers < 1 {
		workers = 1
	}
	return &Tournament{calc: calc, workers: workers}
}

type job struct {
	index   int
	pairing Pairing
}

type result struct {
	index   int
	outcome game.Outcome
	err     error
}

// Run plays games games per pairing and returns one record per pairing, in
// the order given.
func (t *Tournament) Run(ctx context.Context, pairings []Pairing, games int) ([]Record, error) {
	records := make([]Record, len(pairings))
	for i, p := range pairings {
		records[i].Pairing = p
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make(chan result, t.workers)

	var wg sync.WaitGroup
	for w := 0; w < t.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcome, err := Play(t.calc, j.pairing)
				select {
				case results <- result{index: j.index, outcome: outcome, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, p := range pairings {
			for g := 0; g < games; g++ {
				select {
				case jobs <- job{index: i, pairing: p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	want := len(pairings) * games
	for done := 0; done < want; done++ {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		case r, ok := <-results:
			if !ok {
				return records, ctx.Err()
			}
			if r.err != nil {
				return records, r.err
			}
			records[r.index].add(r.outcome)
		}
	}

	slog.DebugContext(ctx, "Tournament finished", "pairings", len(pairings), "games", games)
	return records, nil
}
