package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Applied holds the outcome of a successful redemption.
type Applied struct {
	Code   string
	Amount decimal.Decimal
}

// Validator validates a discount code against a cart subtotal, computes the
// amount, and consumes one use.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Applied, error)
}

// RepoValidator implements Validator on top of a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate resolves the code, checks active/expiry/usage constraints,
// computes the clamped amount, and atomically consumes one use. The usage
// counter is incremented by the repository in a single conditional
// statement, so concurrent redemptions cannot overshoot max uses.
func (v *RepoValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Applied, error) {
	c, err := v.repo.Resolve(ctx, Normalize(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup discount code")
	}

	if !c.Active {
		return nil, ErrInactive
	}
	if c.ExpiresAt != nil && v.now().After(*c.ExpiresAt) {
		return nil, ErrExpired
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return nil, ErrUsageLimitReached
	}

	amount := Apply(c, subtotal)

	if err := v.repo.Redeem(ctx, c.Code); err != nil {
		return nil, errors.Wrap(err, "redeem discount code")
	}

	return &Applied{Code: c.Code, Amount: amount}, nil
}
