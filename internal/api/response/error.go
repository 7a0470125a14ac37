package response

import (
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/repository"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/session"
	"errors"
	"net/http"
)

var statusByError = []struct {
	err    error
	status int
}{
	{repository.ErrSessionNotFound, http.StatusNotFound},

	{game.ErrInvalidBoard, http.StatusBadRequest},
	{session.ErrInvalidCell, http.StatusBadRequest},
	{session.ErrDuplicateNames, http.StatusBadRequest},
	{session.ErrUnknownMode, http.StatusBadRequest},
	{service.ErrInvalidMark, http.StatusBadRequest},

	{session.ErrCellOccupied, http.StatusConflict},
	{session.ErrGameFinished, http.StatusConflict},
	{session.ErrNotYourTurn, http.StatusConflict},
	{service.ErrNoBotTurn, http.StatusConflict},
	{service.ErrNoMoveAvailable, http.StatusConflict},
	{repository.ErrSessionExists, http.StatusConflict},
}

// StatusFor maps a domain error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
