package bot

import "strings"

// Difficulty controls how often the bot deviates from optimal play.
type Difficulty string

const (
	Novice   Difficulty = "novice"
	Standard Difficulty = "standard"
	Expert   Difficulty = "expert"
)

// ParseDifficulty maps a wire value to a Difficulty. Unknown and empty values,
// including the UI's "quantum", select Standard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Novice:
		return Novice
	case Expert:
		return Expert
	default:
		return Standard
	}
}
