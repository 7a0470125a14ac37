package models

import (
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/session"
	"ctchen222/quantum-tictactoe/pkg/proto"
)

// CreateGameRequest defines the structure for a new game request.
type CreateGameRequest struct {
	Mode       string `json:"mode" binding:"required,oneof=local local_2p ai"`
	PlayerX    string `json:"player_x" binding:"max=32"`
	PlayerO    string `json:"player_o" binding:"max=32"`
	Difficulty string `json:"difficulty" binding:"max=16"`
	Sound      *bool  `json:"sound"`
	Vibration  *bool  `json:"vibration"`
}

// Settings fills the omitted fields with the defaults.
func (r CreateGameRequest) Settings() session.Settings {
	s := session.DefaultSettings()
	if r.Difficulty != "" {
		s.Difficulty = bot.ParseDifficulty(r.Difficulty)
	}
	if r.Sound != nil {
		s.Sound = *r.Sound
	}
	if r.Vibration != nil {
		s.Vibration = *r.Vibration
	}
	return s
}

// MoveRequest defines the structure for a move request.
type MoveRequest struct {
	Cell *int `json:"cell" binding:"required,min=0,max=8"`
}

// SettingsRequest replaces all settings of a game.
type SettingsRequest struct {
	Difficulty string `json:"difficulty" binding:"max=16"`
	Sound      *bool  `json:"sound" binding:"required"`
	Vibration  *bool  `json:"vibration" binding:"required"`
}

func (r SettingsRequest) Settings() session.Settings {
	return session.Settings{
		Difficulty: bot.ParseDifficulty(r.Difficulty),
		Sound:      *r.Sound,
		Vibration:  *r.Vibration,
	}
}

// EvaluateRequest carries a board in wire form: 9 cells of "", "X" or "O".
type EvaluateRequest struct {
	Board []string `json:"board" binding:"required,len=9"`
}

// SuggestRequest asks for a move for mark on board.
type SuggestRequest struct {
	Board      []string `json:"board" binding:"required,len=9"`
	Mark       string   `json:"mark" binding:"required,oneof=X O x o"`
	Difficulty string   `json:"difficulty" binding:"max=16"`
}

// SuggestResponse is the suggested cell and the outcome once it is played.
// Available is false, and Cell -1, when the board has no empty cell.
type SuggestResponse struct {
	Cell      int           `json:"cell"`
	Available bool          `json:"available"`
	Outcome   proto.Outcome `json:"outcome"`
}
