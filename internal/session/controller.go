// internal/session/controller.go
//
// Session controller: the single owner of one player's game.
// Responsibilities:
//   - Serialize Start / Guess / Snapshot commands through one event loop.
//   - Launch one commentary task per accepted guess and apply its result
//     when it comes back as a message.
//   - Gate guesses while a commentary request is in flight.
//   - Drop results that belong to a game that has since been restarted.
//   - Publish latest-value snapshots to subscribers on every change.
//
// Invalid commands are ignored: they are logged at debug level and the
// caller receives the unchanged snapshot.

package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/internal/commentary"
	"github.com/robalobadob/numberguess/internal/game"
)

var (
	ErrClosed  = errors.New("session controller closed")
	ErrBusy    = errors.New("commentary request in flight")
	errRunning = errors.New("session controller already running")
)

// Commentator produces a host reaction for a guess. It must not fail; the
// commentary.Client satisfies it by falling back on errors.
type Commentator interface {
	RequestCommentary(ctx context.Context, req commentary.Request) commentary.Commentary
}

type cmdKind int

const (
	cmdSnapshot cmdKind = iota
	cmdStart
	cmdGuess
)

type command struct {
	kind  cmdKind
	value int // secret for cmdStart, guessed number for cmdGuess
	reply chan Snapshot
}

// result is a finished commentary task, tagged with the game it was for.
type result struct {
	epoch uint64
	line  commentary.Commentary
}

// Controller owns one session. Create with New, drive with Run.
type Controller struct {
	id      string
	host    Commentator
	cmds    chan command
	results chan result
	done    chan struct{}
	running atomic.Bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	// Owned by the Run goroutine.
	game    *game.Game
	current *commentary.Commentary
	loading bool
	epoch   uint64
}

// New returns an idle controller. Nothing happens until Run is called.
func New(id string, host Commentator) *Controller {
	return &Controller{
		id:      id,
		host:    host,
		cmds:    make(chan command),
		results: make(chan result),
		done:    make(chan struct{}),
		subs:    make(map[int]chan Snapshot),
		game:    &game.Game{Status: game.StatusIdle, History: []game.GuessRecord{}},
	}
}

// ID returns the session identifier the controller was created with.
func (c *Controller) ID() string { return c.id }

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Run processes commands until ctx is cancelled. It waits for outstanding
// commentary tasks before returning.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errRunning
	}
	defer close(c.done)

	var tasks sync.WaitGroup
	defer tasks.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.cmds:
			switch cmd.kind {
			case cmdStart:
				c.start(cmd.value)
			case cmdGuess:
				c.guess(ctx, cmd.value, &tasks)
			}
			cmd.reply <- c.snapshot()
		case r := <-c.results:
			c.finish(r)
		}
	}
}

// Start begins a new game, replacing the current one. A secret outside
// [1,10] (typically 0) draws a random number.
func (c *Controller) Start(ctx context.Context, secret int) (Snapshot, error) {
	return c.do(ctx, cmdStart, secret)
}

// Guess submits a number. Ignored guesses return the unchanged snapshot.
func (c *Controller) Guess(ctx context.Context, n int) (Snapshot, error) {
	return c.do(ctx, cmdGuess, n)
}

// Snapshot returns the current presentation state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, cmdSnapshot, 0)
}

// Subscribe registers for snapshots. The channel holds only the latest
// snapshot; older unread ones are replaced. Call cancel to unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) do(ctx context.Context, kind cmdKind, v int) (Snapshot, error) {
	cmd := command{kind: kind, value: v, reply: make(chan Snapshot, 1)}
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
	select {
	case s := <-cmd.reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
}

// ----------------------------- loop handlers -------------------------------

func (c *Controller) start(secret int) {
	c.epoch++
	c.game = game.New(secret)
	c.loading = false
	greet := commentary.Greeting()
	c.current = &greet
	log.Debug().Str("session", c.id).Str("game", c.game.ID).Msg("game started")
	c.publish()
}

func (c *Controller) guess(ctx context.Context, n int, tasks *sync.WaitGroup) {
	if c.loading {
		log.Debug().Str("session", c.id).Int("guess", n).Err(ErrBusy).Msg("guess ignored")
		return
	}
	rec, err := c.game.ApplyGuess(n)
	if err != nil {
		log.Debug().Str("session", c.id).Int("guess", n).Err(err).Msg("guess ignored")
		return
	}
	log.Debug().Str("session", c.id).Int("guess", n).Str("outcome", string(rec.Outcome)).Msg("guess applied")

	req := commentary.Request{
		Secret:  c.game.Secret,
		Guess:   n,
		Outcome: rec.Outcome,
		Attempt: len(c.game.History),
	}
	epoch := c.epoch
	c.loading = true

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		line := c.host.RequestCommentary(ctx, req)
		select {
		case c.results <- result{epoch: epoch, line: line}:
		case <-ctx.Done():
		}
	}()

	c.publish()
}

func (c *Controller) finish(r result) {
	if r.epoch != c.epoch {
		log.Debug().Str("session", c.id).Msg("discarding commentary for a previous game")
		return
	}
	line := r.line
	c.current = &line
	c.loading = false
	c.publish()
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		GameID:  c.game.ID,
		Status:  c.game.Status,
		History: slices.Clone(c.game.History),
		Used:    c.game.Used(),
		Loading: c.loading,
	}
	if s.History == nil {
		s.History = []game.GuessRecord{}
	}
	if c.game.Status == game.StatusWon {
		s.Secret = c.game.Secret
	}
	if c.current != nil {
		line := *c.current
		s.Commentary = &line
	}
	return s
}

func (c *Controller) publish() {
	s := c.snapshot()
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
