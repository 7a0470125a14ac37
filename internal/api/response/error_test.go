package response

import (
	"ctchen222/quantum-tictactoe/internal/game"
	"ctchen222/quantum-tictactoe/internal/repository"
	"ctchen222/quantum-tictactoe/internal/service"
	"ctchen222/quantum-tictactoe/internal/session"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("failed to get game: %w", repository.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", game.ErrInvalidBoard), http.StatusBadRequest},
		{fmt.Errorf("failed to make move: %w", session.ErrInvalidCell), http.StatusBadRequest},
		{session.ErrDuplicateNames, http.StatusBadRequest},
		{fmt.Errorf("failed to make move: %w", session.ErrCellOccupied), http.StatusConflict},
		{session.ErrGameFinished, http.StatusConflict},
		{session.ErrNotYourTurn, http.StatusConflict},
		{service.ErrNoBotTurn, http.StatusConflict},
		{errors.New("redis: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, fmt.Errorf("failed to get game: %w", repository.ErrSessionNotFound))

	require.Equal(t, http.StatusNotFound, w.Code)
	var body struct {
		Success bool `json:"success"`
		Code    int  `json:"code"`
		Extras  struct {
			Message string `json:"message"`
		} `json:"extras"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Equal(t, "failed to get game: session not found", body.Extras.Message)
}
