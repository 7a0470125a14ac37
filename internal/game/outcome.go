package game

// Result is the kind of an Outcome.
type Result string

const (
	ResultNone Result = "none"
	ResultWin  Result = "win"
	ResultDraw Result = "draw"
)

// Outcome is the evaluation of a board. Line and Winner are set only for a win.
type Outcome struct {
	Result Result     `json:"result"`
	Line   Line       `json:"line,omitzero"`
	Winner PlayerMark `json:"winner,omitempty"`
}

// IsOver reports whether the outcome ends the game.
func (o Outcome) IsOver() bool {
	return o.Result != ResultNone
}

// Evaluate scans the winning lines in table order and reports the first
// completed one. A full board without a line is a draw.
func Evaluate(b Board) Outcome {
	for _, line := range Lines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return Outcome{Result: ResultWin, Line: line, Winner: a}
		}
	}

	if b.IsFull() {
		return Outcome{Result: ResultDraw}
	}
	return Outcome{Result: ResultNone}
}
