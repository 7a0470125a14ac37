package server

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/api/response"
	"ctchen222/quantum-tictactoe/internal/events"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/session"
	"ctchen222/quantum-tictactoe/internal/validator"
	"ctchen222/quantum-tictactoe/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait   = 5 * time.Second
	sendBuffer  = 8
	maxReadSize = 1024
)

// gameClient is one WebSocket connection watching and playing one game.
type gameClient struct {
	conn       *websocket.Conn
	gameID     string
	games      service.GameService
	thinkDelay time.Duration
	send       chan *proto.ServerToClientMessage
}

// handleGameSocket upgrades the connection, sends the current state and then
// relays the client's moves to the service and every change of the game back
// to the client.
func (s *Server) handleGameSocket(c *gin.Context) {
	gameID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleGameSocket", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer span.End()

	sess, err := s.games.Get(ctx, gameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Game not available")
		response.FromError(c, err)
		return
	}

	// Subscribe before the upgrade so no change after the initial state is missed.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	updates, unsubscribe, err := s.bus.Subscribe(ctx, gameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe to game")
		response.FromError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "game.id", gameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	conn.SetReadLimit(maxReadSize)
	// The HTTP server's read timeout outlives the hijack.
	_ = conn.SetReadDeadline(time.Time{})

	client := &gameClient{
		conn:       conn,
		gameID:     gameID,
		games:      s.games,
		thinkDelay: s.thinkDelay,
		send:       make(chan *proto.ServerToClientMessage, sendBuffer),
	}
	slog.InfoContext(ctx, "Player connected", "game.id", gameID)
	client.run(ctx, cancel, sess, updates)
	slog.InfoContext(ctx, "Player disconnected", "game.id", gameID)
}

func (gc *gameClient) run(ctx context.Context, cancel context.CancelFunc, sess *session.Session, updates <-chan events.Event) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		gc.writePump(ctx, updates)
	}()

	gc.push(ctx, proto.UpdateMessage(sess))
	if sess.IsBotTurn() {
		go gc.playBot(ctx)
	}

	gc.readPump(ctx)
	cancel()
	wg.Wait()
}

// readPump reads client messages until the connection fails or ctx ends.
func (gc *gameClient) readPump(ctx context.Context) {
	defer gc.conn.Close()

	for {
		_, data, err := gc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				slog.WarnContext(ctx, "Player connection error", "game.id", gc.gameID, "error", err)
			}
			return
		}

		var msg proto.ClientToServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			gc.push(ctx, proto.ErrorMessage("malformed message"))
			continue
		}
		if err := validator.GetValidator().Struct(msg); err != nil {
			gc.push(ctx, proto.ErrorMessage(validator.Describe(err)))
			continue
		}

		gc.handleMessage(ctx, &msg)
	}
}

func (gc *gameClient) handleMessage(ctx context.Context, msg *proto.ClientToServerMessage) {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("game.id", gc.gameID),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	switch msg.Type {
	case proto.TypeMove:
		sess, err := gc.games.Move(ctx, gc.gameID, *msg.Cell)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Move rejected")
			gc.push(ctx, proto.ErrorMessage(err.Error()))
			return
		}
		if sess.IsBotTurn() {
			go gc.playBot(ctx)
		}
	case proto.TypeReset:
		if _, err := gc.games.Reset(ctx, gc.gameID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Reset failed")
			gc.push(ctx, proto.ErrorMessage(err.Error()))
		}
	}
}

// playBot lets the bot reply after the think delay. The new state reaches the
// client through the game's updates like any other change.
func (gc *gameClient) playBot(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(gc.thinkDelay):
	}

	_, err := gc.games.PlayBot(ctx, gc.gameID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoBotTurn):
		// The game was reset while the bot was thinking.
		slog.DebugContext(ctx, "Bot turn skipped", "game.id", gc.gameID)
	case ctx.Err() != nil:
	default:
		slog.ErrorContext(ctx, "Bot failed to move", "game.id", gc.gameID, "error", err)
		gc.push(ctx, proto.ErrorMessage(err.Error()))
	}
}

// push queues msg for the writer unless the connection is going away.
func (gc *gameClient) push(ctx context.Context, msg *proto.ServerToClientMessage) {
	select {
	case gc.send <- msg:
	case <-ctx.Done():
	}
}

// writePump is the only goroutine writing to the connection.
func (gc *gameClient) writePump(ctx context.Context, updates <-chan events.Event) {
	defer gc.conn.Close()

	for {
		select {
		case <-ctx.Done():
			gc.write(ctx, nil)
			return
		case msg := <-gc.send:
			if !gc.write(ctx, msg) {
				return
			}
		case ev, ok := <-updates:
			if !ok {
				return
			}
			msg, closing := gc.translate(ctx, ev)
			if msg != nil && !gc.write(ctx, msg) {
				return
			}
			if closing {
				gc.write(ctx, nil)
				return
			}
		}
	}
}

func (gc *gameClient) translate(ctx context.Context, ev events.Event) (*proto.ServerToClientMessage, bool) {
	switch ev.Type {
	case events.TypeGameUpdated:
		var sess session.Session
		if err := json.Unmarshal(ev.Payload, &sess); err != nil {
			slog.ErrorContext(ctx, "Malformed game_updated payload", "game.id", gc.gameID, "error", err)
			return nil, false
		}
		return proto.UpdateMessage(&sess), false
	case events.TypeGameDeleted:
		return &proto.ServerToClientMessage{Type: proto.TypeClosed, Reason: "game deleted"}, true
	default:
		return nil, false
	}
}

// write sends msg, or a close frame when msg is nil. It reports whether the
// connection is still usable.
func (gc *gameClient) write(ctx context.Context, msg *proto.ServerToClientMessage) bool {
	if err := gc.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}

	if msg == nil {
		_ = gc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return false
	}

	if err := gc.conn.WriteJSON(msg); err != nil {
		slog.ErrorContext(ctx, "Error writing message to player", "game.id", gc.gameID, "error", err)
		return false
	}
	return true
}
