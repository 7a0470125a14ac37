package controller

import (
	"ctchen222/quantum-tictactoe/internal/api/models"
	"ctchen222/quantum-tictactoe/internal/api/response"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/session"
	"ctchen222/quantum-tictactoe/internal/validator"
	"ctchen222/quantum-tictactoe/pkg/proto"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("api.controller")

// GameController handles game-related HTTP requests.
type GameController struct {
	gameService service.GameService
}

// NewGameController creates a new GameController.
func NewGameController(gameService service.GameService) *GameController {
	return &GameController{
		gameService: gameService,
	}
}

func bindJSON(c *gin.Context, span trace.Span, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		response.ErrorResponse(c, http.StatusBadRequest, validator.Describe(err))
		return false
	}
	return true
}

func fail(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	response.FromError(c, err)
}

// Create handles the new game endpoint.
func (gc *GameController) Create(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Create")
	defer span.End()

	var req models.CreateGameRequest
	if !bindJSON(c, span, &req) {
		return
	}

	sess, err := gc.gameService.Create(ctx, service.CreateParams{
		Mode:     session.Mode(req.Mode),
		NameX:    req.PlayerX,
		NameO:    req.PlayerO,
		Settings: req.Settings(),
	})
	if err != nil {
		fail(c, span, err)
		return
	}

	response.CreatedResponse(c, proto.NewGame(sess))
}

// Get handles the game state endpoint.
func (gc *GameController) Get(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Get", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	sess, err := gc.gameService.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, proto.NewGame(sess))
}

// Move applies the human move and, against the bot, the bot's reply.
func (gc *GameController) Move(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Move", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	var req models.MoveRequest
	if !bindJSON(c, span, &req) {
		return
	}

	sess, err := gc.gameService.Move(ctx, c.Param("id"), *req.Cell)
	if err != nil {
		fail(c, span, err)
		return
	}

	// The human move is stored either way. A failed bot reply leaves the game
	// on the bot's turn, to be retried through PlayBot.
	if sess.IsBotTurn() {
		played, err := gc.gameService.PlayBot(ctx, sess.ID)
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "Bot reply failed", "game.id", sess.ID, "error", err)
		} else {
			sess = played
		}
	}

	response.SuccessResponse(c, proto.NewGame(sess))
}

// PlayBot handles the bot turn endpoint.
func (gc *GameController) PlayBot(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.PlayBot", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	sess, err := gc.gameService.PlayBot(ctx, c.Param("id"))
	if err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, proto.NewGame(sess))
}

// Reset handles the new round endpoint.
func (gc *GameController) Reset(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Reset", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	sess, err := gc.gameService.Reset(ctx, c.Param("id"))
	if err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, proto.NewGame(sess))
}

// UpdateSettings handles the settings endpoint.
func (gc *GameController) UpdateSettings(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.UpdateSettings", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	var req models.SettingsRequest
	if !bindJSON(c, span, &req) {
		return
	}

	sess, err := gc.gameService.UpdateSettings(ctx, c.Param("id"), req.Settings())
	if err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, proto.NewGame(sess))
}

// Delete handles the game removal endpoint.
func (gc *GameController) Delete(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Delete", trace.WithAttributes(
		attribute.String("game.id", c.Param("id")),
	))
	defer span.End()

	if err := gc.gameService.Delete(ctx, c.Param("id")); err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, gin.H{"message": "Game deleted"})
}

// Evaluate reports the outcome of a posted board.
func (gc *GameController) Evaluate(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Evaluate")
	defer span.End()

	var req models.EvaluateRequest
	if !bindJSON(c, span, &req) {
		return
	}

	board, err := game.ParseBoard(req.Board)
	if err != nil {
		fail(c, span, err)
		return
	}

	response.SuccessResponse(c, proto.NewOutcome(gc.gameService.Evaluate(ctx, board)))
}

// Suggest returns the engine's move for a posted board.
func (gc *GameController) Suggest(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GameController.Suggest")
	defer span.End()

	var req models.SuggestRequest
	if !bindJSON(c, span, &req) {
		return
	}

	board, err := game.ParseBoard(req.Board)
	if err != nil {
		fail(c, span, err)
		return
	}

	mark := game.PlayerMark(strings.ToUpper(req.Mark))
	cell, err := gc.gameService.Suggest(ctx, board, mark, bot.ParseDifficulty(req.Difficulty))
	if err != nil {
		fail(c, span, err)
		return
	}

	res := models.SuggestResponse{Cell: cell, Available: cell != bot.NoMove}
	if res.Available {
		board[cell] = mark
	}
	res.Outcome = proto.NewOutcome(gc.gameService.Evaluate(ctx, board))

	response.SuccessResponse(c, res)
}

// RegisterRoutes mounts the game endpoints on rg.
func (gc *GameController) RegisterRoutes(rg *gin.RouterGroup) {
	games := rg.Group("/games")
	games.POST("", gc.Create)
	games.GET("/:id", gc.Get)
	games.POST("/:id/moves", gc.Move)
	games.POST("/:id/bot", gc.PlayBot)
	games.POST("/:id/reset", gc.Reset)
	games.PUT("/:id/settings", gc.UpdateSettings)
	games.DELETE("/:id", gc.Delete)

	rg.POST("/evaluate", gc.Evaluate)
	rg.POST("/suggest", gc.Suggest)
}
