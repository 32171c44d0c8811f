package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RowQuerier is the single database operation the Postgres backend needs.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLimiter keeps fixed-window counters in the shared store so many
// server instances enforce one budget per key.
//
// The whole reset-or-increment step is a single upsert expression, so
// concurrent callers cannot under-count the way a read-then-write would.
type PostgresLimiter struct {
	db RowQuerier
}

// NewPostgresLimiter creates a store-backed limiter on the given pool.
func NewPostgresLimiter(pool *pgxpool.Pool) *PostgresLimiter {
	return &PostgresLimiter{db: pool}
}

// NewPostgresLimiterWithDB creates a store-backed limiter with a custom
// querier. Primarily used for testing.
func NewPostgresLimiterWithDB(db RowQuerier) *PostgresLimiter {
	return &PostgresLimiter{db: db}
}

// CheckAndRecord implements Limiter.
func (l *PostgresLimiter) CheckAndRecord(ctx context.Context, action, callerKey string, limit int, window time.Duration) (Result, error) {
	key := counterKey(action, callerKey)
	nowMs := time.Now().UnixMilli()
	staleBefore := nowMs - window.Milliseconds()

	// window_start <= staleBefore means the window elapsed: start a new one
	// at count 1. Otherwise increment in place. Either way the row comes
	// back in the same statement.
	var count int
	var windowStartMs int64
	err := l.db.QueryRow(ctx,
		`INSERT INTO rate_counters (key, window_start, count) VALUES ($1, $2, 1)
		 ON CONFLICT (key) DO UPDATE SET
		   count = CASE WHEN rate_counters.window_start <= $3 THEN 1 ELSE rate_counters.count + 1 END,
		   window_start = CASE WHEN rate_counters.window_start <= $3 THEN EXCLUDED.window_start ELSE rate_counters.window_start END
		 RETURNING count, window_start`,
		key, nowMs, staleBefore).Scan(&count, &windowStartMs)
	if err != nil {
		return Result{}, fmt.Errorf("upsert rate counter %s: %w", key, err)
	}

	windowEnd := time.UnixMilli(windowStartMs).Add(window)
	return result(count, limit, windowEnd), nil
}
