package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rohilkohli/shids/internal/domain/analytics"
)

// trendDays is the length of the daily revenue trend.
const trendDays = 30

const (
	overviewSummarySQL = `SELECT COALESCE(sum(total), 0), count(*)
		FROM orders WHERE status <> 'cancelled'`

	overviewTrendSQL = `SELECT date_trunc('day', created_at) AS day,
		count(*), COALESCE(sum(total), 0)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1
		GROUP BY day`
)

var _ analytics.Repository = (*AnalyticsRepository)(nil)

// AnalyticsRepository computes the admin sales overview from the orders
// table. Summary and trend run concurrently.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns an AnalyticsRepository that uses the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Overview aggregates revenue, order count, and average order value over
// non-cancelled orders, plus a zero-filled daily trend for the last 30 days.
func (r *AnalyticsRepository) Overview(ctx context.Context, now time.Time) (*analytics.Overview, error) {
	var (
		o    analytics.Overview
		raw  []analytics.TrendPoint
		from = dayStart(now).AddDate(0, 0, -(trendDays - 1))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.pool.QueryRow(ctx, overviewSummarySQL).Scan(&o.Revenue, &o.OrderCount)
		if err != nil {
			return fmt.Errorf("querying sales summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := r.pool.Query(ctx, overviewTrendSQL, from)
		if err != nil {
			return fmt.Errorf("querying sales trend: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var p analytics.TrendPoint
			if err := rows.Scan(&p.Day, &p.Orders, &p.Revenue); err != nil {
				return fmt.Errorf("scanning trend point: %w", err)
			}
			raw = append(raw, p)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if o.OrderCount > 0 {
		o.AvgOrderValue = o.Revenue.Div(decimal.NewFromInt(o.OrderCount)).Round(2)
	}
	o.Trend = buildTrend(raw, from, trendDays)
	return &o, nil
}

// buildTrend expands sparse per-day rows into a dense series of days
// starting at from, filling missing days with zeroes.
func buildTrend(raw []analytics.TrendPoint, from time.Time, days int) []analytics.TrendPoint {
	byDay := make(map[time.Time]analytics.TrendPoint, len(raw))
	for _, p := range raw {
		byDay[dayStart(p.Day)] = p
	}

	trend := make([]analytics.TrendPoint, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		if p, ok := byDay[day]; ok {
			trend[i] = p
			trend[i].Day = day
			continue
		}
		trend[i] = analytics.TrendPoint{Day: day, Revenue: decimal.Zero}
	}
	return trend
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
