// Package throttle implements the shared rate/CPU/RAM/progress controls:
// a job-wide throttle set consulted by every writer backend before each
// chunk write.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a byte-rate token bucket anchored on a monotonic clock. A
// single Limiter is shared across all writers in a job;
// golang.org/x/time/rate's internal locking already gives workers
// contending on one shared budget a short sleep on starvation, so no
// extra atomic layer is needed on top of it.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter builds a rate limiter for bytesPerSecond. A burst of one
// second's worth of bytes (capped to at least 1) lets a single chunk
// write proceed without fragmenting into many tiny waits.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil // unlimited: callers nil-check before use
	}
	burst := int(bytesPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(bytesPerSecond), burst)}
}

// WaitN blocks until n bytes' worth of budget is available, or ctx is
// canceled. A nil Limiter (unlimited rate) never blocks.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return nil
	}
	// A single reservation may exceed the bucket's burst size (e.g. a
	// chunk larger than one second's budget); split it into burst-sized
	// waits so WaitN never errors out for requesting "too much at once".
	burst := l.rl.Burst()
	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}
		if err := l.rl.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}
