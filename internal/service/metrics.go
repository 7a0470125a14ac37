package service

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/game"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("service.game")

type gameMetrics struct {
	moves          metric.Int64Counter
	finished       metric.Int64Counter
	selectDuration metric.Float64Histogram
}

// newGameMetrics registers the game instruments. Registration errors go to
// the global otel error handler; the returned instruments are still usable.
func newGameMetrics() *gameMetrics {
	moves, err := meter.Int64Counter("tictactoe.moves",
		metric.WithDescription("Marks placed, by actor and difficulty."))
	if err != nil {
		otel.Handle(err)
	}

	finished, err := meter.Int64Counter("tictactoe.games.finished",
		metric.WithDescription("Games that reached a win or a draw."))
	if err != nil {
		otel.Handle(err)
	}

	selectDuration, err := meter.Float64Histogram("tictactoe.bot.select_duration",
		metric.WithDescription("Time the engine spent choosing a move."),
		metric.WithUnit("ms"))
	if err != nil {
		otel.Handle(err)
	}

	return &gameMetrics{
		moves:          moves,
		finished:       finished,
		selectDuration: selectDuration,
	}
}

func (m *gameMetrics) recordMove(ctx context.Context, actor string, difficulty bot.Difficulty) {
	m.moves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.String("difficulty", string(difficulty)),
	))
}

func (m *gameMetrics) recordFinished(ctx context.Context, result game.Result) {
	m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(result))))
}

func (m *gameMetrics) recordBotSelect(ctx context.Context, difficulty bot.Difficulty, d time.Duration) {
	m.selectDuration.Record(ctx, float64(d.Microseconds())/1000, metric.WithAttributes(
		attribute.String("difficulty", string(difficulty)),
	))
}
