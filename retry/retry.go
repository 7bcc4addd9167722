package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy describes an exponential-backoff schedule. MaxAttempts counts every
// call of the operation, including the first.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// test seams
var (
	sleepFn    = sleepCtx
	jitterFrac = func() float64 { return rand.Float64() }
)

// Do calls op until it succeeds or the policy is exhausted. On failure it
// sleeps min(base*factor^attempt, max) plus a uniform jitter in [0, 10% of
// the delay], then retries. The last error is returned unchanged once the
// final attempt fails.
func Do(ctx context.Context, p Policy, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		if serr := sleepFn(ctx, p.backoff(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// backoff computes the post-attempt delay, jitter included.
func (p Policy) backoff(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	jitter := jitterFrac() * 0.1 * d
	return time.Duration(d + jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
