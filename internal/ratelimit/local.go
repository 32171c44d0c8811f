package ratelimit

import (
	"context"
	"sync"
	"time"
)

// LocalLimiter keeps fixed-window counters in process memory. Counts are
// correct for a single server instance only and reset on restart.
type LocalLimiter struct {
	mu       sync.Mutex
	counters map[string]*localCounter
	now      func() time.Time
}

type localCounter struct {
	windowStart time.Time
	window      time.Duration
	count       int
}

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		counters: make(map[string]*localCounter),
		now:      time.Now,
	}
}

// NewLocalLimiterWithClock creates an in-process limiter with an injected
// clock. Primarily used for testing window rollover.
func NewLocalLimiterWithClock(now func() time.Time) *LocalLimiter {
	return &LocalLimiter{
		counters: make(map[string]*localCounter),
		now:      now,
	}
}

// CheckAndRecord implements Limiter.
func (l *LocalLimiter) CheckAndRecord(_ context.Context, action, callerKey string, limit int, window time.Duration) (Result, error) {
	key := counterKey(action, callerKey)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || !now.Before(c.windowStart.Add(c.window)) {
		c = &localCounter{windowStart: now, window: window}
		l.counters[key] = c
		l.sweepLocked(now)
	}
	c.count++

	return result(c.count, limit, c.windowStart.Add(c.window)), nil
}

// sweepLocked drops counters whose window has long elapsed so the map does
// not grow without bound. Called with the mutex held.
func (l *LocalLimiter) sweepLocked(now time.Time) {
	if len(l.counters) < 4096 {
		return
	}
	for k, c := range l.counters {
		if now.After(c.windowStart.Add(2 * c.window)) {
			delete(l.counters, k)
		}
	}
}
