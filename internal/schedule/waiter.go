// Package schedule suspends callers until a wall-clock instant.
package schedule

import (
	"context"
	"time"
)

// DefaultInterval bounds how late Wait may return.
const DefaultInterval = 60 * time.Second

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}

// Waiter polls the clock in bounded steps until a target instant passes.
// Re-checking the wall clock after each step keeps it correct across
// suspend/resume and clock adjustments.
type Waiter struct {
	Clock    Clock
	Interval time.Duration
}

// NewWaiter returns a waiter on the system clock polling every DefaultInterval.
func NewWaiter() *Waiter {
	return &Waiter{Clock: SystemClock, Interval: DefaultInterval}
}

// Wait blocks until until has passed or ctx is done. It returns immediately
// when until is already in the past.
func (w *Waiter) Wait(ctx context.Context, until time.Time) error {
	clock := w.Clock
	if clock == nil {
		clock = SystemClock
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		remaining := until.Sub(clock.Now())
		if remaining <= 0 {
			return nil
		}
		step := interval
		if remaining < step {
			step = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(step):
		}
	}
}
