package proto

import (
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/session"
)

// Message types exchanged on the game WebSocket.
const (
	TypeMove   = "move"
	TypeReset  = "reset"
	TypeUpdate = "update"
	TypeError  = "error"
	TypeClosed = "closed"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move reset"`
	Cell *int   `json:"cell,omitempty" validate:"required_if=Type move"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string `json:"type" validate:"required"`
	Reason string `json:"reason,omitempty"`
	Game   *Game  `json:"game,omitempty"`
}

// Outcome is the wire form of game.Outcome.
type Outcome struct {
	Result game.Result     `json:"result"`
	Line   []int           `json:"line,omitempty"`
	Winner game.PlayerMark `json:"winner,omitempty"`
}

// Game is the state of a session as the UI sees it.
type Game struct {
	ID          string           `json:"id"`
	Mode        session.Mode     `json:"mode"`
	PlayerX     string           `json:"player_x"`
	PlayerO     string           `json:"player_o"`
	Board       []string         `json:"board"`
	CurrentTurn game.PlayerMark  `json:"current_turn"`
	Active      bool             `json:"active"`
	Outcome     Outcome          `json:"outcome"`
	Settings    session.Settings `json:"settings"`
	BotMark     game.PlayerMark  `json:"bot_mark,omitempty"`
}

func NewOutcome(o game.Outcome) Outcome {
	out := Outcome{Result: o.Result, Winner: o.Winner}
	if o.Result == game.ResultWin {
		out.Line = o.Line[:]
	}
	return out
}

func NewGame(s *session.Session) *Game {
	return &Game{
		ID:          s.ID,
		Mode:        s.Mode,
		PlayerX:     s.NameX,
		PlayerO:     s.NameO,
		Board:       s.Board.Strings(),
		CurrentTurn: s.CurrentTurn,
		Active:      s.IsActive(),
		Outcome:     NewOutcome(s.Outcome),
		Settings:    s.Settings,
		BotMark:     s.BotMark(),
	}
}

// UpdateMessage wraps the state of s in an "update" message.
func UpdateMessage(s *session.Session) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeUpdate, Game: NewGame(s)}
}

// ErrorMessage reports a rejected client message.
func ErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}
