package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/pkg/httpmiddleware"
)

// Window rotation and increment happen in a single statement, so
// concurrent hits from multiple API instances never lose counts.
const incrCounterSQL = `INSERT INTO rate_limit_counters AS c (key, window_start, prev_count, curr_count)
	VALUES ($1, now(), 0, 1)
	ON CONFLICT (key) DO UPDATE SET
		prev_count = CASE
			WHEN now() - c.window_start >= 2 * make_interval(secs => $2) THEN 0
			WHEN now() - c.window_start >= make_interval(secs => $2) THEN c.curr_count
			ELSE c.prev_count
		END,
		curr_count = CASE
			WHEN now() - c.window_start >= make_interval(secs => $2) THEN 1
			ELSE c.curr_count + 1
		END,
		window_start = CASE
			WHEN now() - c.window_start >= make_interval(secs => $2) THEN now()
			ELSE c.window_start
		END
	RETURNING prev_count, curr_count, window_start, now()`

var _ httpmiddleware.Counter = (*RateLimitCounter)(nil)

// RateLimitCounter is a Postgres-backed sliding window counter shared by
// all API instances.
type RateLimitCounter struct {
	pool *pgxpool.Pool
}

// NewRateLimitCounter returns a RateLimitCounter that uses the given pool.
func NewRateLimitCounter(pool *pgxpool.Pool) *RateLimitCounter {
	return &RateLimitCounter{pool: pool}
}

// Incr implements httpmiddleware.Counter. The database clock drives both
// rotation and weighting, so application clock skew does not matter.
func (r *RateLimitCounter) Incr(ctx context.Context, key string, window time.Duration) (float64, time.Time, error) {
	var (
		prev, curr  int
		windowStart time.Time
		dbNow       time.Time
	)
	err := r.pool.QueryRow(ctx, incrCounterSQL, key, window.Seconds()).
		Scan(&prev, &curr, &windowStart, &dbNow)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("incrementing rate limit counter %q: %w", key, err)
	}

	overlap := 1.0 - dbNow.Sub(windowStart).Seconds()/window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	count := float64(prev)*overlap + float64(curr)
	return count, windowStart.Add(window), nil
}
