package mqtt

import (
	"context"
	"time"
)

// Backoff produces doubling delays capped at a maximum.
// With 1s/30s the sequence is 1, 2, 4, 8, 16, 30, 30, ... seconds.
//
// Not safe for concurrent use.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	next    time.Duration
}

// NewBackoff creates a Backoff. An initial delay above max is clamped to max.
func NewBackoff(initial, maxDelay time.Duration) *Backoff {
	if initial > maxDelay {
		initial = maxDelay
	}
	return &Backoff{initial: initial, max: maxDelay, next: initial}
}

// Next returns the current delay and advances the sequence.
func (b *Backoff) Next() time.Duration {
	d := b.next
	b.next = min(b.next*2, b.max)
	return d
}

// Reset restarts the sequence at the initial delay.
func (b *Backoff) Reset() {
	b.next = b.initial
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
