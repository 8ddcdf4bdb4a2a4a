package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robalobadob/numberguess/internal/commentary"
	"github.com/robalobadob/numberguess/internal/game"
	"github.com/robalobadob/numberguess/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func newTestStore(ttl time.Duration) *memory {
	host := commentary.NewClient(commentary.Disabled(), time.Second)
	return NewMemoryStore(func(id string) *session.Controller {
		return session.New(id, host)
	}, ttl).(*memory)
}

func TestCreateAndGet(t *testing.T) {
	st := newTestStore(time.Minute)
	defer st.Close()
	ctx := context.Background()

	ctrl, err := st.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ctrl.ID())

	got, err := st.Get(ctx, ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)
	assert.Equal(t, 1, st.Len())

	// The loop is running: commands are served.
	s, err := got.Start(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, s.Status)

	_, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	st := newTestStore(10 * time.Minute)
	defer st.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st.now = func() time.Time { return now }

	stale, err := st.Create(ctx)
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	fresh, err := st.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, st.Sweep(now))
	assert.Equal(t, 1, st.Sweep(now.Add(5*time.Minute)))

	_, err = st.Get(ctx, stale.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, fresh.ID())
	assert.NoError(t, err)

	select {
	case <-stale.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("evicted session loop still running")
	}
}

func TestSweepDisabled(t *testing.T) {
	st := newTestStore(0)
	defer st.Close()
	_, err := st.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Sweep(time.Now().Add(24*time.Hour)))
}

func TestCloseStopsSessions(t *testing.T) {
	st := newTestStore(time.Minute)
	ctrl, err := st.Create(context.Background())
	require.NoError(t, err)

	st.Close()
	<-ctrl.Done()
	assert.Equal(t, 0, st.Len())

	_, err = st.Create(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunSweeper(t *testing.T) {
	st := newTestStore(time.Nanosecond)
	defer st.Close()
	_, err := st.Create(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunSweeper(ctx, st, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return st.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
