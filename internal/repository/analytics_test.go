package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohilkohli/shids/internal/domain/analytics"
)

func TestBuildTrend(t *testing.T) {
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("zero fills missing days", func(t *testing.T) {
		raw := []analytics.TrendPoint{
			{Day: from.AddDate(0, 0, 2), Orders: 3, Revenue: decimal.RequireFromString("120.50")},
			{Day: from.AddDate(0, 0, 5), Orders: 1, Revenue: decimal.RequireFromString("19.99")},
		}

		trend := buildTrend(raw, from, 7)
		require.Len(t, trend, 7)

		assert.Equal(t, from, trend[0].Day)
		assert.Zero(t, trend[0].Orders)
		assert.True(t, trend[0].Revenue.IsZero())

		assert.Equal(t, int64(3), trend[2].Orders)
		assert.True(t, trend[2].Revenue.Equal(decimal.RequireFromString("120.50")))
		assert.Equal(t, int64(1), trend[5].Orders)

		for i, p := range trend {
			assert.Equal(t, from.AddDate(0, 0, i), p.Day)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		trend := buildTrend(nil, from, 3)
		require.Len(t, trend, 3)
		for _, p := range trend {
			assert.Zero(t, p.Orders)
			assert.True(t, p.Revenue.IsZero())
		}
	})

	t.Run("normalizes non midnight timestamps", func(t *testing.T) {
		raw := []analytics.TrendPoint{
			{Day: from.Add(4 * time.Hour), Orders: 2, Revenue: decimal.RequireFromString("50")},
		}
		trend := buildTrend(raw, from, 1)
		require.Len(t, trend, 1)
		assert.Equal(t, int64(2), trend[0].Orders)
		assert.Equal(t, from, trend[0].Day)
	})
}
