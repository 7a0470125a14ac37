package server

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/events"
	"ctchen222/quantum-tictactoe/internal/repository"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/session"
	"ctchen222/quantum-tictactoe/pkg/proto"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, staticDir string) (*httptest.Server, service.GameService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := events.NewMemoryBus()
	games := service.NewGameService(repository.NewMemorySessionRepository(), bot.NewEngine(1), bus)
	srv := NewServer(games, bus, Options{StaticDir: staticDir, ThinkDelay: 10 * time.Millisecond})

	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)
	return ts, games
}

func dial(t *testing.T, ts *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + gameID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) proto.ServerToClientMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg proto.ServerToClientMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := setupServer(t, "")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_ServesStaticUI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Quantum</h1>"), 0o600))
	ts, _ := setupServer(t, dir)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Quantum")
}

func TestGameSocket_PlayAgainstBot(t *testing.T) {
	ts, games := setupServer(t, "")
	sess, err := games.Create(context.Background(), service.CreateParams{
		Mode:     session.ModeBot,
		Settings: session.DefaultSettings(),
	})
	require.NoError(t, err)

	conn := dial(t, ts, sess.ID)

	// Given: the initial state on connect
	msg := readMessage(t, conn)
	require.Equal(t, proto.TypeUpdate, msg.Type)
	assert.Equal(t, make([]string, 9), msg.Game.Board)

	// When: the human opens in a corner
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "cell": 0}))

	// Then: the human move arrives first, then the bot's reply in the center
	msg = readMessage(t, conn)
	require.Equal(t, proto.TypeUpdate, msg.Type)
	assert.Equal(t, "X", msg.Game.Board[0])
	assert.Equal(t, "", msg.Game.Board[4])

	msg = readMessage(t, conn)
	require.Equal(t, proto.TypeUpdate, msg.Type)
	assert.Equal(t, "O", msg.Game.Board[4])
	assert.Equal(t, "X", string(msg.Game.CurrentTurn))

	// And: rejected moves are reported to the sender
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "cell": 4}))
	msg = readMessage(t, conn)
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, msg.Reason, "occupied")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move"}))
	msg = readMessage(t, conn)
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, msg.Reason, "cell")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = readMessage(t, conn)
	assert.Equal(t, proto.TypeError, msg.Type)

	// When: the game is reset
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "reset"}))
	msg = readMessage(t, conn)
	require.Equal(t, proto.TypeUpdate, msg.Type)
	assert.Equal(t, make([]string, 9), msg.Game.Board)
	assert.True(t, msg.Game.Active)
}

func TestGameSocket_WatchersShareUpdates(t *testing.T) {
	ts, games := setupServer(t, "")
	sess, err := games.Create(context.Background(), service.CreateParams{Mode: session.ModeLocal})
	require.NoError(t, err)

	a := dial(t, ts, sess.ID)
	b := dial(t, ts, sess.ID)
	readMessage(t, a)
	readMessage(t, b)

	require.NoError(t, a.WriteJSON(map[string]any{"type": "move", "cell": 8}))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		require.Equal(t, proto.TypeUpdate, msg.Type)
		assert.Equal(t, "X", msg.Game.Board[8])
	}

	// HTTP changes reach the sockets too.
	_, err = games.Move(context.Background(), sess.ID, 0)
	require.NoError(t, err)
	msg := readMessage(t, b)
	assert.Equal(t, "O", msg.Game.Board[0])
}

func TestGameSocket_ClosesWhenGameIsDeleted(t *testing.T) {
	ts, games := setupServer(t, "")
	sess, err := games.Create(context.Background(), service.CreateParams{Mode: session.ModeLocal})
	require.NoError(t, err)

	conn := dial(t, ts, sess.ID)
	readMessage(t, conn)

	require.NoError(t, games.Delete(context.Background(), sess.ID))

	msg := readMessage(t, conn)
	assert.Equal(t, proto.TypeClosed, msg.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestGameSocket_UnknownGame(t *testing.T) {
	ts, _ := setupServer(t, "")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
