// internal/commentary/types.go
//
// Value types for host commentary.
// Defines:
//   - Mood: display tone tag attached to every line.
//   - Commentary: a short text + mood pair.
//   - Request: the four inputs a commentary line is generated from.

package commentary

import (
	"sync"

	"github.com/robalobadob/numberguess/assets"
	"github.com/robalobadob/numberguess/internal/game"
)

// Mood is the emotional tone of a commentary line, used for styling only.
type Mood string

const (
	MoodSassy       Mood = "sassy"
	MoodEncouraging Mood = "encouraging"
	MoodCelebratory Mood = "celebratory"
	MoodNeutral     Mood = "neutral"
)

// Moods lists every valid mood in schema order.
var Moods = []Mood{MoodSassy, MoodEncouraging, MoodCelebratory, MoodNeutral}

// Valid reports whether m is one of Moods.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// Commentary is one host reaction.
type Commentary struct {
	Text string `json:"text"`
	Mood Mood   `json:"mood"`
}

// Request carries everything the host knows about a guess.
type Request struct {
	Secret  int          // the secret number
	Guess   int          // the number just guessed
	Outcome game.Outcome // evaluation of Guess against Secret
	Attempt int          // 1-based attempt count, including this guess
}

// Distance returns |Guess - Secret|.
func (r Request) Distance() int {
	d := r.Guess - r.Secret
	if d < 0 {
		return -d
	}
	return d
}

const defaultGreeting = "I've picked a number between 1 and 10. Can you guess it?"

var (
	greetingOnce sync.Once
	greetingText = defaultGreeting
)

// Greeting is the neutral line published when a game starts.
func Greeting() Commentary {
	greetingOnce.Do(func() {
		if lines, err := assets.Greetings(); err == nil && len(lines) > 0 {
			greetingText = lines[0]
		}
	})
	return Commentary{Text: greetingText, Mood: MoodNeutral}
}

// Fallback returns the canned line for an outcome. It is used whenever the
// generator fails and depends on nothing but the outcome.
func Fallback(o game.Outcome) Commentary {
	switch o {
	case game.OutcomeCorrect:
		return Commentary{Text: "You got it! Amazing guess!", Mood: MoodCelebratory}
	case game.OutcomeHigh:
		return Commentary{Text: "Too high! Try a smaller number.", Mood: MoodNeutral}
	case game.OutcomeLow:
		return Commentary{Text: "Too low! Go bigger!", Mood: MoodNeutral}
	default:
		return Commentary{Text: "Interesting guess! Try again.", Mood: MoodNeutral}
	}
}
