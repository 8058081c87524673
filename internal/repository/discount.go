package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/discount"
)

const (
	discountColumns = `id, code, discount_type, value, max_uses, used_count,
		expires_at, active, created_at`

	listDiscountsSQL = `SELECT ` + discountColumns + ` FROM discount_codes
		WHERE ($1 = FALSE OR active = TRUE)
		ORDER BY created_at DESC`

	getDiscountExactSQL = `SELECT ` + discountColumns + ` FROM discount_codes
		WHERE id::text = $1 OR code = UPPER($1)`

	getDiscountFuzzySQL = `SELECT ` + discountColumns + ` FROM discount_codes
		WHERE id::text ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT 1`

	insertDiscountSQL = `INSERT INTO discount_codes (code, discount_type, value,
		max_uses, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	updateDiscountSQL = `UPDATE discount_codes SET code = $2, discount_type = $3,
		value = $4, max_uses = $5, expires_at = $6, active = $7
		WHERE id = $1`

	deleteDiscountSQL = `DELETE FROM discount_codes WHERE id = $1`

	// The usage counter only grows while under the limit, so two
	// concurrent redemptions of the last use cannot both succeed.
	redeemDiscountSQL = `UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE code = $1 AND (max_uses = 0 OR used_count < max_uses)`

	upsertDiscountSQL = `INSERT INTO discount_codes (code, discount_type, value, max_uses, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (code) DO NOTHING`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// List returns all codes, newest first, optionally only active ones.
func (r *DiscountRepository) List(ctx context.Context, activeOnly bool) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, scanDiscount)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	return codes, nil
}

// Resolve looks up a code by exact id or code string, falling back to a
// substring match on either.
func (r *DiscountRepository) Resolve(ctx context.Context, token string) (*discount.Code, error) {
	c, err := r.getOne(ctx, getDiscountExactSQL, token)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, discount.ErrNotFound) {
		return nil, err
	}
	return r.getOne(ctx, getDiscountFuzzySQL, token)
}

func (r *DiscountRepository) getOne(ctx context.Context, sql, token string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, sql, token)
	if err != nil {
		return nil, fmt.Errorf("resolving discount code %q: %w", token, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("resolving discount code %q: %w", token, err)
	}
	return &c, nil
}

// Create inserts a new code. Returns discount.ErrDuplicateCode when the
// code string is taken.
func (r *DiscountRepository) Create(ctx context.Context, c *discount.Code) error {
	err := r.pool.QueryRow(ctx, insertDiscountSQL,
		c.Code, string(c.Type), c.Value, c.MaxUses, c.ExpiresAt, c.Active,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return discount.ErrDuplicateCode
		}
		return fmt.Errorf("creating discount code %q: %w", c.Code, err)
	}
	return nil
}

// Update rewrites a code row.
func (r *DiscountRepository) Update(ctx context.Context, c *discount.Code) error {
	tag, err := r.pool.Exec(ctx, updateDiscountSQL,
		c.ID, c.Code, string(c.Type), c.Value, c.MaxUses, c.ExpiresAt, c.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return discount.ErrDuplicateCode
		}
		return fmt.Errorf("updating discount code %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// Delete removes a code by id.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount code %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// Redeem atomically increments the usage counter. Zero rows affected means
// either the code vanished or the limit is exhausted; the caller has just
// resolved the code, so the limit is the answer.
func (r *DiscountRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, redeemDiscountSQL, discount.Normalize(code))
	if err != nil {
		return fmt.Errorf("redeeming discount code %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrUsageLimitReached
	}
	return nil
}

// Upsert inserts a code if absent, leaving existing rows untouched. Used by
// the bulk ingest tool. Reports whether a row was inserted.
func (r *DiscountRepository) Upsert(ctx context.Context, c *discount.Code) (bool, error) {
	tag, err := r.pool.Exec(ctx, upsertDiscountSQL,
		c.Code, string(c.Type), c.Value, c.MaxUses,
	)
	if err != nil {
		return false, fmt.Errorf("upserting discount code %q: %w", c.Code, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Code, error) {
	var (
		c            discount.Code
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.Code, &discountType, &c.Value, &c.MaxUses, &c.UsedCount,
		&c.ExpiresAt, &c.Active, &c.CreatedAt,
	)
	c.Type = discount.Type(discountType)
	return c, err
}
