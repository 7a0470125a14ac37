package proto

import (
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/session"
	"ctchen222/quantum-tictactoe/internal/validator"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientToServerMessage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "Move with cell", raw: `{"type":"move","cell":4}`},
		{name: "Move with cell zero", raw: `{"type":"move","cell":0}`},
		{name: "Reset without cell", raw: `{"type":"reset"}`},
		{name: "Move without cell", raw: `{"type":"move"}`, wantErr: true},
		{name: "Unknown type", raw: `{"type":"resign"}`, wantErr: true},
		{name: "Missing type", raw: `{"cell":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg ClientToServerMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))

			err := validator.GetValidator().Struct(msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewGame(t *testing.T) {
	s, err := session.New("g", session.ModeBot, "", "", session.DefaultSettings())
	require.NoError(t, err)
	for _, cell := range []int{0, 3, 1, 4, 2} {
		require.NoError(t, s.Place(cell))
	}

	g := NewGame(s)

	assert.Equal(t, "Human", g.PlayerX)
	assert.Equal(t, "Quantum Bot", g.PlayerO)
	assert.Equal(t, []string{"X", "X", "X", "O", "O", "", "", "", ""}, g.Board)
	assert.False(t, g.Active)
	assert.Equal(t, Outcome{Result: game.ResultWin, Line: []int{0, 1, 2}, Winner: game.PlayerX}, g.Outcome)
	assert.Equal(t, game.PlayerO, g.BotMark)
}

func TestNewOutcome_NoLineUnlessWon(t *testing.T) {
	data, err := json.Marshal(NewOutcome(game.Outcome{Result: game.ResultDraw}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"result":"draw"}`, string(data))
}
