package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RateRule limits requests under a path prefix. Rules are matched in
// order; the first matching prefix wins.
type RateRule struct {
	Prefix string
	Limit  int
}

// Counter tracks hits per key over a sliding window. Incr records one hit
// and returns the effective count in the window after the hit, plus the
// time the current bucket resets.
//
// Implementations: MemoryCounter below, and the Postgres counter in
// internal/repository for multi-instance deployments.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count float64, resetAt time.Time, err error)
}

// RateLimit returns a middleware enforcing per-client limits on the given
// path prefixes over a sliding window. Unmatched paths pass through.
// A counter failure lets the request through: availability over precision.
func RateLimit(rules []RateRule, window time.Duration, counter Counter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(rules, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := rule.Prefix + ":" + clientKey(r)
			count, resetAt, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				zctx.From(r.Context()).Warn("rate limit counter failed",
					zap.String("key", key),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := float64(rule.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > float64(rule.Limit) {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchRule(rules []RateRule, path string) (RateRule, bool) {
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RateRule{}, false
}

// clientKey identifies the caller: first X-Forwarded-For entry, then
// X-Real-IP, then "unknown". RemoteAddr is deliberately not used; behind
// the storefront proxy it is always the proxy itself.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return "unknown"
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// bucket tracks hits across two adjacent windows.
type bucket struct {
	prevCount float64
	currCount float64
	currStart time.Time
}

// MemoryCounter is an in-process sliding window Counter. The previous
// window is weighted by its overlap with the sliding window, so the count
// decays smoothly instead of resetting on the window edge.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	now func() time.Time
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Incr implements Counter.
func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (float64, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{currStart: now}
		c.buckets[key] = b
	}

	if elapsed := now.Sub(b.currStart); elapsed >= window {
		if elapsed >= 2*window {
			b.prevCount = 0
		} else {
			b.prevCount = b.currCount
		}
		b.currCount = 0
		b.currStart = now.Truncate(window)
	}

	b.currCount++

	overlap := 1.0 - now.Sub(b.currStart).Seconds()/window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	count := b.prevCount*overlap + b.currCount
	return count, b.currStart.Add(window), nil
}

// StartCleanup launches a goroutine that evicts stale buckets every two
// windows until ctx is cancelled.
func (c *MemoryCounter) StartCleanup(ctx context.Context, window time.Duration) {
	go func() {
		ticker := time.NewTicker(2 * window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.cleanup(now, window)
			}
		}
	}()
}

func (c *MemoryCounter) cleanup(now time.Time, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, b := range c.buckets {
		if now.Sub(b.currStart) >= 2*window {
			delete(c.buckets, key)
		}
	}
}
