package recognize

import (
	"context"
	"time"
)

// Retrier runs an operation up to MaxAttempts times with exponential backoff
// between attempts. The wait before retry n is Base*2^(n-1) clamped to
// [Min, Max]. On exhaustion the last operation error is returned unchanged.
type Retrier struct {
	MaxAttempts int
	Base        time.Duration
	Min         time.Duration
	Max         time.Duration
}

// Do invokes op until it succeeds or MaxAttempts is reached. Context
// cancellation during a backoff wait aborts with ctx.Err().
func (r Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(r.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := op(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (r Retrier) backoff(n int) time.Duration {
	wait := r.Base << uint(n-1)
	if wait < r.Min {
		wait = r.Min
	}
	if r.Max > 0 && wait > r.Max {
		wait = r.Max
	}
	return wait
}
