// internal/store/memory.go
//
// In-memory registry of live session controllers.
// Each player session owns one *session.Controller whose event loop runs
// for as long as the entry stays in the store.
//
// Characteristics:
//   - Controllers are keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Entries idle longer than the TTL are evicted by Sweep.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/internal/session"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("store closed")
)

// Store defines the registry interface for player sessions.
type Store interface {
	// Create registers a new session with a fresh ID and starts its loop.
	Create(ctx context.Context) (*session.Controller, error)

	// Get retrieves a live session by ID and marks it as recently used.
	Get(ctx context.Context, id string) (*session.Controller, error)

	// Sweep evicts sessions idle since before now-ttl and returns how many.
	Sweep(now time.Time) int

	// Len reports the number of live sessions.
	Len() int

	// Close stops every session loop and waits for them to exit.
	Close()
}

// Factory builds the controller for a new session ID.
type Factory func(id string) *session.Controller

type entry struct {
	ctrl     *session.Controller
	cancel   context.CancelFunc
	lastSeen time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	newCtrl Factory
	ttl     time.Duration
	now     func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMemoryStore constructs a new in-memory Store. A non-positive ttl
// disables eviction.
func NewMemoryStore(newCtrl Factory, ttl time.Duration) Store {
	base, cancel := context.WithCancel(context.Background())
	return &memory{
		entries: make(map[string]*entry),
		newCtrl: newCtrl,
		ttl:     ttl,
		now:     time.Now,
		base:    base,
		cancel:  cancel,
	}
}

func (m *memory) Create(ctx context.Context) (*session.Controller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	ctrl := m.newCtrl(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	runCtx, cancel := context.WithCancel(m.base)
	m.entries[id] = &entry{ctrl: ctrl, cancel: cancel, lastSeen: m.now()}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = ctrl.Run(runCtx)
	}()
	log.Debug().Str("session", id).Msg("session created")
	return ctrl, nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.lastSeen = m.now()
		return e.ctrl, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if now.Sub(e.lastSeen) > m.ttl {
			e.cancel()
			delete(m.entries, id)
			n++
		}
	}
	if n > 0 {
		log.Info().Int("evicted", n).Int("live", len(m.entries)).Msg("swept idle sessions")
	}
	return n
}

func (m *memory) Close() {
	m.mu.Lock()
	m.closed = true
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
