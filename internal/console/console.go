// internal/console/console.go
//
// Line-oriented terminal front end for one session.
//
// Commands (one per line):
//   1..10   guess a number
//   new     start a new game (same mode)
//   quit    leave
//
// After each accepted guess the console waits for the host's commentary
// before reading the next line, the same way the browser grid is disabled
// while a request is in flight.

package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robalobadob/numberguess/internal/game"
	"github.com/robalobadob/numberguess/internal/session"
)

// Controller is the subset of *session.Controller the console drives.
type Controller interface {
	Start(ctx context.Context, secret int) (session.Snapshot, error)
	Guess(ctx context.Context, n int) (session.Snapshot, error)
	Subscribe() (<-chan session.Snapshot, func())
}

// Play runs an interactive game until in is exhausted, "quit" is read, or
// ctx is cancelled. secret is passed to every Start (0 for random).
func Play(ctx context.Context, ctrl Controller, secret int, in io.Reader, out io.Writer) error {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	snap, err := ctrl.Start(ctx, secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Guess the Number (%d to %d). Type a number, 'new' or 'quit'.\n", game.MinNumber, game.MaxNumber)
	printHost(out, snap)
	prompt(out, snap)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "new", "again":
			if snap, err = ctrl.Start(ctx, secret); err != nil {
				return err
			}
			printHost(out, snap)
			prompt(out, snap)
			continue
		}

		n, convErr := strconv.Atoi(line)
		if convErr != nil || !snap.Accepts(n) {
			if snap.Status == game.StatusWon {
				fmt.Fprintln(out, "The game is over. Type 'new' to play again.")
			} else {
				fmt.Fprintf(out, "Pick an unused number from %d to %d.\n", game.MinNumber, game.MaxNumber)
			}
			prompt(out, snap)
			continue
		}

		before := len(snap.History)
		if snap, err = ctrl.Guess(ctx, n); err != nil {
			return err
		}
		if len(snap.History) == before {
			fmt.Fprintln(out, "That guess was not accepted.")
			prompt(out, snap)
			continue
		}
		printGuess(out, snap.History[len(snap.History)-1])

		if snap.Loading {
			fmt.Fprintln(out, "Thinking...")
			if snap, err = await(ctx, updates, snap.GameID, len(snap.History)); err != nil {
				return err
			}
		}
		printHost(out, snap)
		if snap.Status == game.StatusWon {
			fmt.Fprintf(out, "You won! The number was %d. Type 'new' to play again.\n", snap.Secret)
		}
		prompt(out, snap)
	}
	return sc.Err()
}

// await blocks until the snapshot of gameID with n guesses is no longer
// loading.
func await(ctx context.Context, updates <-chan session.Snapshot, gameID string, n int) (session.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return session.Snapshot{}, ctx.Err()
		case s := <-updates:
			if s.GameID == gameID && !s.Loading && len(s.History) == n {
				return s, nil
			}
		}
	}
}

func printGuess(out io.Writer, rec game.GuessRecord) {
	label := "Correct"
	if rec.Outcome != game.OutcomeCorrect {
		label = "Too " + string(rec.Outcome)
	}
	fmt.Fprintf(out, "Guessed %d: %s\n", rec.Number, strings.ToUpper(label))
}

func printHost(out io.Writer, s session.Snapshot) {
	if s.Commentary == nil {
		return
	}
	fmt.Fprintf(out, "Host (%s): %q\n", s.Commentary.Mood, s.Commentary.Text)
}

func prompt(out io.Writer, s session.Snapshot) {
	if s.Status != game.StatusPlaying {
		fmt.Fprint(out, "> ")
		return
	}
	var free []string
	for n := game.MinNumber; n <= game.MaxNumber; n++ {
		if s.Accepts(n) {
			free = append(free, strconv.Itoa(n))
		}
	}
	fmt.Fprintf(out, "[%s] > ", strings.Join(free, " "))
}
