package session

import (
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/game"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is how the two sides of a session are played.
type Mode string

const (
	ModeLocal      Mode = "local"
	ModeLocalNamed Mode = "local_2p"
	ModeBot        Mode = "ai"
)

const (
	defaultLocalX = "Player 1"
	defaultLocalO = "Player 2"
	defaultNamedX = "Player X"
	defaultNamedO = "Player O"
	humanName     = "Human"
	botName       = "Quantum Bot"

	// BotSide is the side the bot plays in ModeBot.
	BotSide = game.PlayerO
)

var (
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrGameFinished   = errors.New("game already finished")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrDuplicateNames = errors.New("player names must be unique")
	ErrUnknownMode    = errors.New("unknown game mode")
)

// Settings are the per-session preferences chosen in the UI.
type Settings struct {
	Difficulty bot.Difficulty `json:"difficulty"`
	Sound      bool           `json:"sound"`
	Vibration  bool           `json:"vibration"`
}

// DefaultSettings matches a fresh UI: optimal bot, sound and vibration on.
func DefaultSettings() Settings {
	return Settings{
		Difficulty: bot.Standard,
		Sound:      true,
		Vibration:  true,
	}
}

// Session is the state of one game between two sides.
type Session struct {
	ID          string          `json:"id"`
	Mode        Mode            `json:"mode"`
	NameX       string          `json:"name_x"`
	NameO       string          `json:"name_o"`
	Board       game.Board      `json:"board"`
	CurrentTurn game.PlayerMark `json:"current_turn"`
	Outcome     game.Outcome    `json:"outcome"`
	Settings    Settings        `json:"settings"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// New creates a session with X to move. Names are only honoured in
// ModeLocalNamed; blank names fall back to the mode's defaults.
func New(id string, mode Mode, nameX, nameO string, settings Settings) (*Session, error) {
	nameX, nameO = strings.TrimSpace(nameX), strings.TrimSpace(nameO)

	switch mode {
	case ModeLocal:
		nameX, nameO = defaultLocalX, defaultLocalO
	case ModeLocalNamed:
		if nameX == "" {
			nameX = defaultNamedX
		}
		if nameO == "" {
			nameO = defaultNamedO
		}
		if nameX == nameO {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNames, nameX)
		}
	case ModeBot:
		nameX, nameO = humanName, botName
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	settings.Difficulty = bot.ParseDifficulty(string(settings.Difficulty))

	s := &Session{
		ID:       id,
		Mode:     mode,
		NameX:    nameX,
		NameO:    nameO,
		Settings: settings,
	}
	s.Reset()
	return s, nil
}

// Reset clears the board for a new game, keeping names and settings.
func (s *Session) Reset() {
	s.Board = game.Board{}
	s.CurrentTurn = game.PlayerX
	s.Outcome = game.Outcome{Result: game.ResultNone}
	s.UpdatedAt = time.Now().UTC()
}

// IsActive reports whether moves are still accepted.
func (s *Session) IsActive() bool {
	return !s.Outcome.IsOver()
}

// IsBotTurn reports whether the bot should move next.
func (s *Session) IsBotTurn() bool {
	return s.Mode == ModeBot && s.IsActive() && s.CurrentTurn == BotSide
}

// BotMark returns the bot's side, or None outside ModeBot.
func (s *Session) BotMark() game.PlayerMark {
	if s.Mode != ModeBot {
		return game.None
	}
	return BotSide
}

// PlayHuman places the current player's mark on cell. In ModeBot it refuses
// to move for the bot.
func (s *Session) PlayHuman(cell int) error {
	if s.IsBotTurn() {
		return ErrNotYourTurn
	}
	return s.Place(cell)
}

// Place puts the current player's mark on cell, evaluates the board and
// passes the turn if the game goes on.
func (s *Session) Place(cell int) error {
	if !s.IsActive() {
		return ErrGameFinished
	}
	if cell < 0 || cell >= game.BoardSize {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}
	if s.Board[cell] != game.None {
		return fmt.Errorf("%w: cell %d", ErrCellOccupied, cell)
	}

	s.Board[cell] = s.CurrentTurn
	s.Outcome = game.Evaluate(s.Board)
	if s.IsActive() {
		s.CurrentTurn = s.CurrentTurn.Opponent()
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// NameOf returns the display name playing mark.
func (s *Session) NameOf(mark game.PlayerMark) string {
	switch mark {
	case game.PlayerX:
		return s.NameX
	case game.PlayerO:
		return s.NameO
	default:
		return ""
	}
}
