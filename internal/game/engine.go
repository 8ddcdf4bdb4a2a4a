// internal/game/engine.go
//
// Core game engine for a single guessing session.
// Responsibilities:
//   - Create new games with a random (or pinned) secret in [1,10].
//   - Validate and apply guesses (game state, range, repeats).
//   - Evaluate guesses against the secret (low/high/correct).
//   - Track state transitions: playing → won.
//
// The engine is single-owner: it holds no locks. Callers that share a Game
// across goroutines must serialize access (see internal/session).
package game

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
)

// Errors returned by ApplyGuess. Callers treat all of them as "ignore".
var (
	ErrNotPlaying     = errors.New("game not in progress")
	ErrOutOfRange     = errors.New("guess out of range")
	ErrAlreadyGuessed = errors.New("number already guessed")
)

// New constructs a new game in the playing state.
// If secret is outside [MinNumber, MaxNumber], a random secret is drawn.
func New(secret int) *Game {
	if !InRange(secret) {
		secret = RandomSecret()
	}
	return &Game{
		ID:      newID(),
		Secret:  secret,
		Status:  StatusPlaying,
		History: []GuessRecord{},
	}
}

// ApplyGuess validates and evaluates a guess, mutating the game state.
// Returns the appended record or an error; on error the game is unchanged.
//
// Validation rules:
//   - Game must be playing.
//   - Guess must be in [MinNumber, MaxNumber].
//   - Guess must not already appear in the history.
func (g *Game) ApplyGuess(n int) (GuessRecord, error) {
	if g.Status != StatusPlaying {
		return GuessRecord{}, ErrNotPlaying
	}
	if !InRange(n) {
		return GuessRecord{}, ErrOutOfRange
	}
	if g.Guessed(n) {
		return GuessRecord{}, ErrAlreadyGuessed
	}

	rec := GuessRecord{ID: newID(), Number: n, Outcome: Evaluate(g.Secret, n)}
	g.History = append(g.History, rec)
	if rec.Outcome == OutcomeCorrect {
		g.Status = StatusWon
	}
	return rec, nil
}

// Guessed reports whether n already appears in the history.
func (g *Game) Guessed(n int) bool {
	for _, r := range g.History {
		if r.Number == n {
			return true
		}
	}
	return false
}

// Used returns the guessed numbers in history order.
func (g *Game) Used() []int {
	out := make([]int, 0, len(g.History))
	for _, r := range g.History {
		out = append(out, r.Number)
	}
	return out
}

// Evaluate compares a guess with the secret.
func Evaluate(secret, guess int) Outcome {
	switch {
	case guess == secret:
		return OutcomeCorrect
	case guess < secret:
		return OutcomeLow
	default:
		return OutcomeHigh
	}
}

// InRange reports whether n is a playable number.
func InRange(n int) bool { return n >= MinNumber && n <= MaxNumber }

// RandomSecret draws uniformly from [MinNumber, MaxNumber] using crypto/rand.
func RandomSecret() int {
	span := big.NewInt(MaxNumber - MinNumber + 1)
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return MinNumber
	}
	return MinNumber + int(v.Int64())
}

// newID returns a time-ordered UUIDv7 string, or a random UUID if the
// clock-based generator fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
