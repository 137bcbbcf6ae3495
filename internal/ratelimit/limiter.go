package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a set of token buckets keyed by remote host.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     float64
	burst   int
}

type bucket struct {
	tokens float64
	last   time.Time
	burst  float64
	perSec float64
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), rps: rps, burst: burst}
}

// Allow returns true if a fetch for key may start now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	_, ok := l.reserve(key, now)
	return ok
}

// Wait blocks until a fetch for key may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	for {
		delay, ok := l.reserve(key, time.Now())
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) reserve(key string, now time.Time) (time.Duration, bool) {
	if key == "" || l.rps <= 0 || l.burst <= 0 {
		return 0, true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens: float64(l.burst),
			last:   now,
			burst:  float64(l.burst),
			perSec: l.rps,
		}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * b.perSec
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.last = now

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return time.Duration(missing / b.perSec * float64(time.Second)), false
	}

	b.tokens -= 1
	return 0, true
}
