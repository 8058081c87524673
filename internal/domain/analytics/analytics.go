// Package analytics defines the admin sales overview.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TrendPoint is one day of the revenue trend.
type TrendPoint struct {
	Day     time.Time       `json:"day"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Overview aggregates non-cancelled orders.
type Overview struct {
	Revenue       decimal.Decimal `json:"revenue"`
	OrderCount    int64           `json:"orderCount"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	Trend         []TrendPoint    `json:"trend"`
}

// Repository computes the overview from the order store.
type Repository interface {
	Overview(ctx context.Context, now time.Time) (*Overview, error)
}
