// Package ratelimit is the admission-control layer: a fixed-window request
// throttle keyed by (action, caller), applied before a handler runs.
//
// Three interchangeable backends sit behind the Limiter interface: in-process
// counters (single instance only), a shared Postgres counter and a shared
// Redis counter. The shared backends use atomic increment-and-fetch
// primitives, never read-then-write.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   int64 // epoch milliseconds at which the current window ends
}

// Limiter decides whether one more call of action by callerKey is admitted
// within the current fixed window, recording the call as it checks.
type Limiter interface {
	CheckAndRecord(ctx context.Context, action, callerKey string, limit int, window time.Duration) (Result, error)
}

func counterKey(action, callerKey string) string {
	return action + ":" + callerKey
}

func result(count, limit int, windowEnd time.Time) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   windowEnd.UnixMilli(),
	}
}
