package service

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/events"
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/repository"
	"ctchen222/quantum-tictactoe/internal/session"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("service.game")

var (
	ErrNoBotTurn       = errors.New("it's not the bot's turn")
	ErrNoMoveAvailable = errors.New("no move available")
	ErrInvalidMark     = errors.New("invalid mark")
)

// CreateParams describes a new game.
type CreateParams struct {
	Mode     session.Mode
	NameX    string
	NameO    string
	Settings session.Settings
}

// GameService defines the game orchestration used by the HTTP and WebSocket layers.
type GameService interface {
	Create(ctx context.Context, params CreateParams) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Move(ctx context.Context, id string, cell int) (*session.Session, error)
	PlayBot(ctx context.Context, id string) (*session.Session, error)
	Reset(ctx context.Context, id string) (*session.Session, error)
	UpdateSettings(ctx context.Context, id string, settings session.Settings) (*session.Session, error)
	Delete(ctx context.Context, id string) error

	Evaluate(ctx context.Context, board game.Board) game.Outcome
	Suggest(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (int, error)
}

type gameService struct {
	repo       repository.SessionRepository
	calculator bot.MoveCalculator
	bus        events.Bus
	metrics    *gameMetrics
	newID      func() string
}

// NewGameService creates a GameService backed by repo that asks calculator for
// bot moves and announces every change on bus.
func NewGameService(repo repository.SessionRepository, calculator bot.MoveCalculator, bus events.Bus) GameService {
	return &gameService{
		repo:       repo,
		calculator: calculator,
		bus:        bus,
		metrics:    newGameMetrics(),
		newID:      func() string { return uuid.New().String() },
	}
}

// Create starts a new game and stores it.
func (s *gameService) Create(ctx context.Context, params CreateParams) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.Create", trace.WithAttributes(
		attribute.String("game.mode", string(params.Mode)),
		attribute.String("game.difficulty", string(params.Settings.Difficulty)),
	))
	defer span.End()

	sess, err := session.New(s.newID(), params.Mode, params.NameX, params.NameO, params.Settings)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid game parameters")
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store game")
		return nil, fmt.Errorf("failed to store game: %w", err)
	}

	span.SetAttributes(attribute.String("game.id", sess.ID))
	slog.InfoContext(ctx, "Game created", "game.id", sess.ID, "game.mode", sess.Mode, "game.difficulty", sess.Settings.Difficulty)
	return sess, nil
}

// Get returns the current state of a game.
func (s *gameService) Get(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.Get", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to find game")
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return sess, nil
}

// Move places the current human player's mark on cell.
func (s *gameService) Move(ctx context.Context, id string, cell int) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.Move", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	sess, err := s.repo.Update(ctx, id, func(sess *session.Session) error {
		return sess.PlayHuman(cell)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		slog.WarnContext(ctx, "Move rejected", "game.id", id, "move.cell", cell, "error", err)
		return nil, fmt.Errorf("failed to make move: %w", err)
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.metrics.recordMove(ctx, "human", sess.Settings.Difficulty)
	s.finished(ctx, sess)
	s.publishUpdate(ctx, sess)
	return sess, nil
}

// PlayBot lets the bot take its turn.
func (s *gameService) PlayBot(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.PlayBot", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	var cell int
	var elapsed time.Duration
	sess, err := s.repo.Update(ctx, id, func(sess *session.Session) error {
		if !sess.IsBotTurn() {
			return ErrNoBotTurn
		}

		start := time.Now()
		cell = s.calculator.SelectMove(sess.Board, sess.BotMark(), sess.Settings.Difficulty)
		elapsed = time.Since(start)
		if cell == bot.NoMove {
			return ErrNoMoveAvailable
		}
		return sess.Place(cell)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bot failed to move")
		return nil, fmt.Errorf("bot failed to make move: %w", err)
	}

	span.SetAttributes(attribute.Int("move.cell", cell))
	slog.InfoContext(ctx, "Bot moved", "game.id", id, "move.cell", cell, "game.difficulty", sess.Settings.Difficulty, "duration", elapsed)

	s.metrics.recordBotSelect(ctx, sess.Settings.Difficulty, elapsed)
	s.metrics.recordMove(ctx, "bot", sess.Settings.Difficulty)
	s.finished(ctx, sess)
	s.publishUpdate(ctx, sess)
	return sess, nil
}

// Reset clears the board, keeping names and settings.
func (s *gameService) Reset(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.Reset", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	sess, err := s.repo.Update(ctx, id, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reset game")
		return nil, fmt.Errorf("failed to reset game: %w", err)
	}

	slog.InfoContext(ctx, "Game reset", "game.id", id)
	s.publishUpdate(ctx, sess)
	return sess, nil
}

// UpdateSettings replaces the session's settings. The difficulty applies from the bot's next turn.
func (s *gameService) UpdateSettings(ctx context.Context, id string, settings session.Settings) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "GameService.UpdateSettings", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	settings.Difficulty = bot.ParseDifficulty(string(settings.Difficulty))
	sess, err := s.repo.Update(ctx, id, func(sess *session.Session) error {
		sess.Settings = settings
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update settings")
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	s.publishUpdate(ctx, sess)
	return sess, nil
}

// Delete discards a game.
func (s *gameService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameService.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game: %w", err)
	}

	if err := s.bus.Publish(ctx, events.Event{Type: events.TypeGameDeleted, GameID: id}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish game_deleted event", "game.id", id, "error", err)
	}
	return nil
}

// Evaluate reports the outcome of an arbitrary board.
func (s *gameService) Evaluate(ctx context.Context, board game.Board) game.Outcome {
	_, span := tracer.Start(ctx, "GameService.Evaluate")
	defer span.End()

	outcome := game.Evaluate(board)
	span.SetAttributes(attribute.String("game.result", string(outcome.Result)))
	return outcome
}

// Suggest asks the engine for a move on an arbitrary board. bot.NoMove means
// the board is full.
func (s *gameService) Suggest(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (int, error) {
	ctx, span := tracer.Start(ctx, "GameService.Suggest", trace.WithAttributes(
		attribute.String("move.mark", string(mark)),
		attribute.String("game.difficulty", string(difficulty)),
	))
	defer span.End()

	if !mark.Valid() {
		span.SetStatus(codes.Error, "Invalid mark")
		return bot.NoMove, fmt.Errorf("%w: %q", ErrInvalidMark, mark)
	}

	start := time.Now()
	cell := s.calculator.SelectMove(board, mark, difficulty)
	s.metrics.recordBotSelect(ctx, difficulty, time.Since(start))

	span.SetAttributes(attribute.Int("move.cell", cell))
	return cell, nil
}

func (s *gameService) finished(ctx context.Context, sess *session.Session) {
	if sess.IsActive() {
		return
	}
	s.metrics.recordFinished(ctx, sess.Outcome.Result)
	slog.InfoContext(ctx, "Game finished", "game.id", sess.ID, "game.result", sess.Outcome.Result, "game.winner", sess.NameOf(sess.Outcome.Winner))
}

// publishUpdate announces the new state of sess. The payload is the whole
// session so watchers need no repository read.
func (s *gameService) publishUpdate(ctx context.Context, sess *session.Session) {
	payload, err := json.Marshal(sess)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal game_updated payload", "game.id", sess.ID, "error", err)
		return
	}
	if err := s.bus.Publish(ctx, events.Event{Type: events.TypeGameUpdated, GameID: sess.ID, Payload: payload}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish game_updated event", "game.id", sess.ID, "error", err)
	}
}
