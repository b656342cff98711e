package replay

import (
	"context"
	"time"
)

// DefaultInterval is the delay between live replay steps.
const DefaultInterval = time.Second

// Scheduler decides how long a sequencer waits between steps.
type Scheduler interface {
	// Wait blocks until the next step may run or ctx is done.
	Wait(ctx context.Context) error
}

// TickerScheduler waits a fixed delay before each subsequent step.
type TickerScheduler struct {
	Interval time.Duration
}

// NewTickerScheduler creates a fixed-delay scheduler. Non-positive intervals use DefaultInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickerScheduler{Interval: interval}
}

// Wait sleeps for the interval unless ctx is cancelled first.
func (s *TickerScheduler) Wait(ctx context.Context) error {
	t := time.NewTimer(s.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ImmediateScheduler never waits. Used by batch replays and tests.
type ImmediateScheduler struct{}

// Wait returns immediately, reporting only context cancellation.
func (ImmediateScheduler) Wait(ctx context.Context) error {
	return ctx.Err()
}
