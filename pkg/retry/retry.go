package retry

import (
	"context"
	"time"
)

// Policy retries an operation a fixed number of times with a fixed delay
// before each attempt. len(Delays) is the total attempt count; Delays[i] is
// slept before attempt i, so a leading 0 means the first attempt is immediate.
type Policy struct {
	Delays []time.Duration

	// Sleep can be replaced in tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns a policy with the given delay schedule
func NewPolicy(delays ...time.Duration) Policy {
	return Policy{Delays: delays}
}

// MaxAttempts returns the total number of attempts the policy allows
func (p Policy) MaxAttempts() int {
	return len(p.Delays)
}

// Do runs fn up to len(Delays) times, sleeping Delays[i] before attempt i.
// It returns nil on the first success without consuming remaining attempts.
// If every attempt fails, the last attempt's error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for _, delay := range p.Delays {
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
	}

	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
