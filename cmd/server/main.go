package main

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/config"
	"ctchen222/quantum-tictactoe/internal/db"
	"ctchen222/quantum-tictactoe/internal/events"
	"ctchen222/quantum-tictactoe/internal/logger"
	"ctchen222/quantum-tictactoe/internal/repository"
	"ctchen222/quantum-tictactoe/internal/server"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/telemetry"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yml"
	}
	configPath := flag.String("config", defaultPath, "path to the config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if err := run(conf); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(conf *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Init(conf.Level(), conf.Telemetry.Exporter == config.ExporterOTLP)

	// Initialize telemetry
	shutdown, err := telemetry.Init(ctx, conf.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	// Create the session store and the event bus
	var (
		repo repository.SessionRepository
		bus  events.Bus
	)
	switch conf.Store.Driver {
	case config.StoreRedis:
		rdb, err := db.NewRedisClient(ctx, conf.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()

		repo = repository.NewRedisSessionRepository(rdb, conf.Store.TTL)
		bus = events.NewRedisBus(rdb)
	default:
		repo = repository.NewMemorySessionRepository()
		bus = events.NewMemoryBus()
	}
	slog.Info("Session store ready", "store.driver", conf.Store.Driver)

	engine := bot.NewEngine(conf.Bot.Seed)
	games := service.NewGameService(repo, engine, bus)

	if conf.Level() != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(games, bus, server.Options{
		StaticDir:  conf.HTTP.StaticDir,
		ThinkDelay: conf.Bot.ThinkDelay,
	})

	httpServer := &http.Server{
		Addr:         conf.HTTP.Addr,
		Handler:      srv.Engine(),
		ReadTimeout:  conf.HTTP.ReadTimeout,
		WriteTimeout: conf.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "http.addr", conf.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}
