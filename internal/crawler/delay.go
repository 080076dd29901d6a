package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayPolicy inserts the politeness pause that follows every page fetch
// attempt.
type DelayPolicy interface {
	Wait(ctx context.Context)
}

// RandomDelay waits a uniform random duration in [base, 1.5*base].
type RandomDelay struct {
	base time.Duration
}

// NewRandomDelay creates a randomized delay policy around base.
func NewRandomDelay(base time.Duration) *RandomDelay {
	return &RandomDelay{base: base}
}

// Wait sleeps for the randomized delay or until the context is cancelled.
func (d *RandomDelay) Wait(ctx context.Context) {
	if d.base <= 0 {
		return
	}

	wait := d.base
	if span := d.base / 2; span > 0 {
		wait += rand.N(span + 1)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NoDelay is a DelayPolicy that never waits.
type NoDelay struct{}

// Wait returns immediately.
func (NoDelay) Wait(context.Context) {}
