package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/order"
)

const (
	orderColumns = `code, email, address, subtotal, shipping_fee, discount_code,
		discount_amount, total, status, payment_verified, courier, awb, notes, created_at`

	insertOrderSQL = `INSERT INTO orders (code, email, address, subtotal, shipping_fee,
		discount_code, discount_amount, total, status, payment_verified, courier, awb, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_code, product_id, quantity, color, size)
		VALUES ($1, $2, $3, $4, $5)`

	insertTrackingTokenSQL = `INSERT INTO order_tracking_tokens (token, order_code, expires_at)
		VALUES ($1, $2, $3)`

	getOrderExactSQL = `SELECT ` + orderColumns + ` FROM orders WHERE code = $1`

	getOrderFuzzySQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE code ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT 1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT order_code, product_id, quantity, color, size
		FROM order_items WHERE order_code = ANY($1) ORDER BY id`

	updateOrderSQL = `UPDATE orders SET status = $2, payment_verified = $3,
		courier = $4, awb = $5, notes = $6
		WHERE code = $1`

	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_code = $1`
	deleteOrderSQL      = `DELETE FROM orders WHERE code = $1`

	getOrderByTokenSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE code = (SELECT order_code FROM order_tracking_tokens
			WHERE token = $1 AND expires_at > now())`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items, and the guest tracking token in one
// transaction. Returns order.ErrDuplicateCode on a code collision so the
// caller can regenerate.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, t order.TrackingToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.Code, o.Email, o.Address, o.Subtotal, o.ShippingFee,
		o.DiscountCode, o.DiscountAmount, o.Total, string(o.Status),
		o.PaymentVerified, o.Courier, o.AWB, o.Notes,
	).Scan(&o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicateCode
		}
		return fmt.Errorf("creating order %q: %w", o.Code, err)
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx, insertOrderItemSQL,
			o.Code, item.ProductID, item.Quantity, item.Color, item.Size,
		)
		if err != nil {
			return fmt.Errorf("inserting item for order %q: %w", o.Code, err)
		}
	}

	if _, err := tx.Exec(ctx, insertTrackingTokenSQL, t.Token, o.Code, t.ExpiresAt); err != nil {
		return fmt.Errorf("inserting tracking token for order %q: %w", o.Code, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating order %q: %w", o.Code, err)
	}
	return nil
}

// Resolve looks up an order by exact code, falling back to a substring match.
func (r *OrderRepository) Resolve(ctx context.Context, code string) (*order.Order, error) {
	o, err := r.getOne(ctx, getOrderExactSQL, code)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, order.ErrNotFound) {
		return nil, err
	}
	return r.getOne(ctx, getOrderFuzzySQL, code)
}

func (r *OrderRepository) getOne(ctx context.Context, sql, arg string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("resolving order %q: %w", arg, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("resolving order %q: %w", arg, err)
	}

	list := []order.Order{o}
	if err := r.attachItems(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List returns all orders, newest first, with their items.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Update rewrites the admin-mutable fields of an order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.Code, string(o.Status), o.PaymentVerified, o.Courier, o.AWB, o.Notes,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes the order and its items in one transaction. Items first,
// then the order row; tracking tokens cascade.
func (r *OrderRepository) Delete(ctx context.Context, code string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", code, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteOrderItemsSQL, code); err != nil {
		return fmt.Errorf("deleting items for order %q: %w", code, err)
	}
	tag, err := tx.Exec(ctx, deleteOrderSQL, code)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("deleting order %q: %w", code, err)
	}
	return nil
}

// FindByTrackingToken returns the order behind a live guest tracking token.
func (r *OrderRepository) FindByTrackingToken(ctx context.Context, token string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByTokenSQL, token)
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	codes := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		codes[i] = orders[i].Code
		index[orders[i].Code] = i
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, codes)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code string
			item order.Item
		)
		if err := rows.Scan(&code, &item.ProductID, &item.Quantity, &item.Color, &item.Size); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if i, ok := index[code]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.Code, &o.Email, &o.Address, &o.Subtotal, &o.ShippingFee,
		&o.DiscountCode, &o.DiscountAmount, &o.Total, &status,
		&o.PaymentVerified, &o.Courier, &o.AWB, &o.Notes, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
