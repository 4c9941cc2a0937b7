package recognize

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum wall-clock spacing between recognition requests,
// derived from a requests-per-minute budget. It is explicitly constructed and
// injected rather than held as package state; the underlying rate.Limiter is
// internally synchronized, so one Limiter may be shared across concurrent
// pipelines without losing the spacing guarantee.
type Limiter struct {
	rl       *rate.Limiter
	interval time.Duration
}

// NewLimiter returns a Limiter spacing calls at least 60/rpm seconds apart.
func NewLimiter(rpm int) *Limiter {
	interval := time.Duration(float64(time.Minute) / float64(rpm))
	return &Limiter{
		rl:       rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the minimum interval since the previous permitted call
// has elapsed, or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Interval returns the enforced minimum spacing between calls.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
