package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/capture"
)

const (
	insertSubscriberSQL = `INSERT INTO newsletter_subscribers (email) VALUES ($1)`
	listSubscribersSQL  = `SELECT email, created_at FROM newsletter_subscribers
		ORDER BY created_at DESC`

	insertMessageSQL = `INSERT INTO contact_messages (name, email, message)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	listMessagesSQL = `SELECT id, name, email, message, created_at
		FROM contact_messages ORDER BY created_at DESC`
)

var _ capture.Repository = (*CaptureRepository)(nil)

// CaptureRepository implements capture.Repository backed by PostgreSQL.
type CaptureRepository struct {
	pool *pgxpool.Pool
}

// NewCaptureRepository returns a CaptureRepository that uses the given pool.
func NewCaptureRepository(pool *pgxpool.Pool) *CaptureRepository {
	return &CaptureRepository{pool: pool}
}

// Subscribe adds an email to the newsletter list. Returns
// capture.ErrAlreadySignedUp on a duplicate.
func (r *CaptureRepository) Subscribe(ctx context.Context, email string) error {
	if _, err := r.pool.Exec(ctx, insertSubscriberSQL, email); err != nil {
		if isUniqueViolation(err) {
			return capture.ErrAlreadySignedUp
		}
		return fmt.Errorf("subscribing %q: %w", email, err)
	}
	return nil
}

// ListSubscribers returns all signups, newest first.
func (r *CaptureRepository) ListSubscribers(ctx context.Context) ([]capture.Subscriber, error) {
	rows, err := r.pool.Query(ctx, listSubscribersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (capture.Subscriber, error) {
		var s capture.Subscriber
		err := row.Scan(&s.Email, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	return subs, nil
}

// SaveMessage stores a contact form submission.
func (r *CaptureRepository) SaveMessage(ctx context.Context, m *capture.Message) error {
	err := r.pool.QueryRow(ctx, insertMessageSQL, m.Name, m.Email, m.Message).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving contact message: %w", err)
	}
	return nil
}

// ListMessages returns all contact messages, newest first.
func (r *CaptureRepository) ListMessages(ctx context.Context) ([]capture.Message, error) {
	rows, err := r.pool.Query(ctx, listMessagesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (capture.Message, error) {
		var m capture.Message
		err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	return msgs, nil
}
