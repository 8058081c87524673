package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order. Admins may set any status;
// there is no enforced state machine, only notification side effects on
// certain transitions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusPacked     Status = "packed"
	StatusFulfilled  Status = "fulfilled"
	StatusShipped    Status = "shipped"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusPacked,
		StatusFulfilled, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// Notifiable reports whether entering s should notify the customer.
func (s Status) Notifiable() bool {
	switch s {
	case StatusProcessing, StatusPacked, StatusFulfilled, StatusShipped:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned for absent orders and for orders the
	// requester is not allowed to see, so existence never leaks.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateCode is returned when an order code collides.
	ErrDuplicateCode = errors.New("order code already exists")
)

// Item is a single order line.
type Item struct {
	ProductID string
	Quantity  int
	Color     string
	Size      string
}

// Order is a customer order with pricing, shipping and fulfilment state.
// Invariant: Total = Subtotal + ShippingFee - DiscountAmount, never negative.
type Order struct {
	Code            string
	Items           []Item
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	DiscountCode    string
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	Email           string
	Address         string
	Status          Status
	PaymentVerified bool
	Courier         string
	AWB             string
	Notes           string
	CreatedAt       time.Time
}

// TrackingToken grants guest access to one order until it expires.
type TrackingToken struct {
	Token     string
	OrderCode string
	ExpiresAt time.Time
}

// Repository defines order persistence. Create persists the order, its
// items, and the tracking token in one transaction. Resolve performs the
// exact-then-fuzzy lookup by code. Delete cascades over items and tokens.
type Repository interface {
	Create(ctx context.Context, o *Order, t TrackingToken) error
	Resolve(ctx context.Context, code string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, code string) error
	FindByTrackingToken(ctx context.Context, token string) (*Order, error)
}
