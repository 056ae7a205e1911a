package player

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time so scheduling is deterministic under
// test. The real implementation blocks with a coarse sleep.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is cancelled, returning ctx's
	// error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// NewClock returns the wall-clock implementation
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
