package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, path, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	rules := []RateRule{
		{Prefix: "/api/orders", Limit: 2},
		{Prefix: "/api", Limit: 5},
	}

	t.Run("allows up to the limit then rejects", func(t *testing.T) {
		h := Wrap(okHandler(), RateLimit(rules, time.Minute, NewMemoryCounter()))

		for i := 0; i < 2; i++ {
			rec := doRequest(h, "/api/orders", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := doRequest(h, "/api/orders", "1.2.3.4")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "rate limit exceeded", body["error"])
	})

	t.Run("first matching prefix wins", func(t *testing.T) {
		h := Wrap(okHandler(), RateLimit(rules, time.Minute, NewMemoryCounter()))

		// /api/orders/x matches the tighter rule, not the /api catch-all.
		doRequest(h, "/api/orders/x", "1.2.3.4")
		doRequest(h, "/api/orders/x", "1.2.3.4")
		rec := doRequest(h, "/api/orders/x", "1.2.3.4")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		h := Wrap(okHandler(), RateLimit(rules, time.Minute, NewMemoryCounter()))

		doRequest(h, "/api/orders", "1.2.3.4")
		doRequest(h, "/api/orders", "1.2.3.4")
		rec := doRequest(h, "/api/orders", "5.6.7.8")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unmatched path passes through", func(t *testing.T) {
		h := Wrap(okHandler(), RateLimit(rules, time.Minute, NewMemoryCounter()))

		for i := 0; i < 10; i++ {
			rec := doRequest(h, "/livez", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("fails open on counter error", func(t *testing.T) {
		h := Wrap(okHandler(), RateLimit(rules, time.Minute, failingCounter{}))

		rec := doRequest(h, "/api/orders", "1.2.3.4")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (float64, time.Time, error) {
	return 0, time.Time{}, errors.New("counter down")
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			want:    "10.0.0.1",
		},
		{
			name:    "single forwarded entry",
			headers: map[string]string{"X-Forwarded-For": " 10.0.0.3 "},
			want:    "10.0.0.3",
		},
		{
			name:    "real ip fallback",
			headers: map[string]string{"X-Real-IP": "10.0.0.4"},
			want:    "10.0.0.4",
		},
		{
			name: "unknown when no headers",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientKey(req))
		})
	}
}

func TestMemoryCounterSlidingWindow(t *testing.T) {
	c := NewMemoryCounter()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	window := time.Minute
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, _, err := c.Incr(ctx, "k", window)
		require.NoError(t, err)
		assert.Equal(t, float64(i), count)
	}

	// Half a window later the previous window still weighs in at 50%.
	now = now.Add(90 * time.Second)
	count, resetAt, err := c.Incr(ctx, "k", window)
	require.NoError(t, err)
	assert.InDelta(t, 3*0.5+1, count, 0.01)
	assert.Equal(t, now.Truncate(window).Add(window), resetAt)

	// Two idle windows clear all history.
	now = now.Add(3 * time.Minute)
	count, _, err = c.Incr(ctx, "k", window)
	require.NoError(t, err)
	assert.Equal(t, 1.0, count)
}
