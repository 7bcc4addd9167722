package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is an adaptive inter-call delay controller shared by every call
// site issuing statistics or bid requests. The delay shrinks while the API
// is healthy and grows when it pushes back. One instance per run, internally
// synchronized.
type Limiter struct {
	mu sync.Mutex

	current time.Duration
	min     time.Duration
	max     time.Duration

	successes int
	errors    int
	lastCall  time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// State is a snapshot of the limiter for logging and tests.
type State struct {
	Current   time.Duration
	Min       time.Duration
	Max       time.Duration
	Successes int
	Errors    int
}

// New builds a Limiter with initial delay clamped into [min, max].
func New(initial, min, max time.Duration) *Limiter {
	l := &Limiter{
		current: initial,
		min:     min,
		max:     max,
		now:     time.Now,
		sleep:   sleepCtx,
	}
	l.current = l.clamp(l.current)
	return l
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

// Wait blocks until the configured delay has elapsed since the previous
// call, then stamps the call time. Concurrent waiters pass one at a time,
// each a full delay after the one before it: the call time is stamped under
// the lock only once the delay has truly elapsed, so a waiter that wakes
// from its sleep re-checks against whoever stamped in the meantime.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		wait := l.current - now.Sub(l.lastCall)
		if wait <= 0 {
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// OnSuccess records a healthy response. Three in a row shave the delay by 10%.
func (l *Limiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errors = 0
	l.successes++
	if l.successes >= 3 {
		l.current = l.clamp(time.Duration(float64(l.current) * 0.9))
		l.successes = 0
	}
}

// OnRateLimited records an explicit rate-limit response. When the server
// supplied a Retry-After it wins (capped at max); otherwise the delay doubles.
func (l *Limiter) OnRateLimited(retryAfter time.Duration, hasRetryAfter bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successes = 0
	if hasRetryAfter {
		l.current = l.clamp(retryAfter)
	} else {
		l.current = l.clamp(l.current * 2)
	}
}

// OnError records a generic failure. Two in a row grow the delay by 50%.
func (l *Limiter) OnError() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successes = 0
	l.errors++
	if l.errors >= 2 {
		l.current = l.clamp(time.Duration(float64(l.current) * 1.5))
		l.errors = 0
	}
}

// Snapshot returns the current limiter state.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Current:   l.current,
		Min:       l.min,
		Max:       l.max,
		Successes: l.successes,
		Errors:    l.errors,
	}
}

// clamp enforces min <= d <= max on every transition.
func (l *Limiter) clamp(d time.Duration) time.Duration {
	if d < l.min {
		return l.min
	}
	if d > l.max {
		return l.max
	}
	return d
}
