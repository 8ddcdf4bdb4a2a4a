package store

import (
	"context"
	"time"
)

// RunSweeper calls s.Sweep every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, s Store, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			s.Sweep(now)
		}
	}
}
