package server

import (
	"ctchen222/quantum-tictactoe/internal/api/controller"
	"ctchen222/quantum-tictactoe/internal/events"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/validator"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

// Options tune the server.
type Options struct {
	// StaticDir is served for every path that matches no route. Empty disables it.
	StaticDir string
	// ThinkDelay is how long the bot waits before replying on the WebSocket.
	ThinkDelay time.Duration
}

type Server struct {
	engine     *gin.Engine
	games      service.GameService
	bus        events.Bus
	upgrader   websocket.Upgrader
	thinkDelay time.Duration
}

func NewServer(games service.GameService, bus events.Bus, opts Options) *Server {
	if v, ok := binding.Validator.Engine().(*playground.Validate); ok {
		validator.UseJSONNames(v)
	}

	s := &Server{
		engine: gin.New(),
		games:  games,
		bus:    bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		thinkDelay: opts.ThinkDelay,
	}
	s.registerHandlers(opts.StaticDir)
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(staticDir string) {
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	controller.NewGameController(s.games).RegisterRoutes(s.engine.Group("/api/v1"))
	s.engine.GET("/ws/games/:id", s.handleGameSocket)

	if staticDir != "" {
		s.engine.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "HTTP request",
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
