// internal/game/types.go
//
// Core type definitions for the number guessing engine.
// Defines:
//   - Outcome: result of a single guess (low/high/correct).
//   - Status: coarse game state (idle/playing/won).
//   - GuessRecord: one entry of the append-only history.
//   - Game: state for a single in-progress or finished game.

package game

// Outcome classifies a guess relative to the secret number.
//   - "low":     guess is smaller than the secret.
//   - "high":    guess is larger than the secret.
//   - "correct": guess equals the secret.
type Outcome string

const (
	OutcomeLow     Outcome = "low"
	OutcomeHigh    Outcome = "high"
	OutcomeCorrect Outcome = "correct"
)

// Status is the game state machine: idle → playing → won.
// Won is terminal until a new game is started.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
)

// Range of secret numbers and valid guesses (inclusive).
const (
	MinNumber = 1
	MaxNumber = 10
)

// GuessRecord is an immutable history entry.
type GuessRecord struct {
	ID      string  `json:"id"`      // UUIDv7, ordered by creation time
	Number  int     `json:"number"`  // the guessed value
	Outcome Outcome `json:"outcome"` // evaluation against the secret
}

// Game holds the state of a single game session.
// A zero Game has no secret and rejects guesses with ErrNotPlaying; use New
// to begin one.
type Game struct {
	ID      string        // Unique game identifier.
	Secret  int           // Secret number in [MinNumber, MaxNumber]; fixed once set.
	Status  Status        // Current state.
	History []GuessRecord // Guesses so far, in call order.
}
