package session

import (
	"github.com/robalobadob/numberguess/internal/commentary"
	"github.com/robalobadob/numberguess/internal/game"
)

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	GameID     string                 `json:"gameId,omitempty"`
	Status     game.Status            `json:"status"`
	Secret     int                    `json:"secret,omitempty"` // only set once won
	History    []game.GuessRecord     `json:"history"`
	Used       []int                  `json:"used"` // numbers the grid must disable
	Commentary *commentary.Commentary `json:"commentary,omitempty"`
	Loading    bool                   `json:"loading"` // commentary request in flight
}

// Accepts reports whether a guess of n would currently be applied.
func (s Snapshot) Accepts(n int) bool {
	if s.Status != game.StatusPlaying || s.Loading || !game.InRange(n) {
		return false
	}
	for _, u := range s.Used {
		if u == n {
			return false
		}
	}
	return true
}
