package discount

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage takes value percent off the cart subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed takes a flat value off the cart subtotal.
	TypeFixed Type = "fixed"
)

var (
	// ErrNotFound is returned when no code matches a lookup token.
	ErrNotFound = errors.New("discount code not found")
	// ErrInactive is returned when a code exists but has been switched off.
	ErrInactive = errors.New("discount code is inactive")
	// ErrExpired is returned when a code is past its expiry date.
	ErrExpired = errors.New("discount code expired")
	// ErrUsageLimitReached is returned when a code has exhausted max uses.
	ErrUsageLimitReached = errors.New("discount code usage limit reached")
	// ErrDuplicateCode is returned when creating a code that already exists.
	ErrDuplicateCode = errors.New("discount code already exists")
	// ErrInvalidValue is returned for a non-positive value or a percentage
	// outside (0, 100].
	ErrInvalidValue = errors.New("invalid discount value")
	// ErrInvalidType is returned for an unknown discount type.
	ErrInvalidType = errors.New("invalid discount type")
)

// Code is an admin-managed discount code.
type Code struct {
	ID        string
	Code      string
	Type      Type
	Value     decimal.Decimal
	MaxUses   int // 0 means unlimited
	UsedCount int
	ExpiresAt *time.Time
	Active    bool
	CreatedAt time.Time
}

// Normalize canonicalizes the code string: trimmed, upper-cased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the invariants enforced at create/update time. The legacy
// storefront never validated percentage bounds; here a percentage must sit
// in (0, 100] and any value must be positive.
func (c *Code) Validate() error {
	c.Code = Normalize(c.Code)
	if c.Code == "" {
		return ErrNotFound
	}
	switch c.Type {
	case TypePercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidValue
		}
	case TypeFixed:
		if !c.Value.IsPositive() {
			return ErrInvalidValue
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// Repository defines discount code persistence. Resolve performs the
// exact-then-fuzzy lookup by id or code. Redeem must be an atomic
// conditional increment of the usage counter; it returns
// ErrUsageLimitReached when the counter cannot grow.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Code, error)
	Resolve(ctx context.Context, token string) (*Code, error)
	Create(ctx context.Context, c *Code) error
	Update(ctx context.Context, c *Code) error
	Delete(ctx context.Context, id string) error
	Redeem(ctx context.Context, code string) error
}
