// Package notify delivers best-effort order status notifications. Delivery
// failures are the caller's to log; they must never fail the request that
// triggered them.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event describes an order transition worth telling the customer about.
type Event struct {
	OrderCode       string    `json:"orderCode"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	PaymentVerified bool      `json:"paymentVerified"`
	Courier         string    `json:"courier,omitempty"`
	AWB             string    `json:"awb,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Notifier publishes order status events to whatever delivers them
// (mail worker, broker consumer). Implementations are best-effort.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, ev Event) error
}

// LogNotifier records events in the log and delivers nowhere. Used when no
// broker is configured.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// OrderStatusChanged logs the event.
func (n *LogNotifier) OrderStatusChanged(_ context.Context, ev Event) error {
	n.lg.Info("order status notification",
		zap.String("order", ev.OrderCode),
		zap.String("status", ev.Status),
		zap.Bool("payment_verified", ev.PaymentVerified),
	)
	return nil
}
