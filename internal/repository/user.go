package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohilkohli/shids/internal/domain/user"
)

const (
	insertUserSQL = `INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	getUserByEmailSQL = `SELECT id, email, name, password_hash, role, created_at
		FROM users WHERE email = $1`

	insertSessionSQL = `INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)`

	getSessionUserSQL = `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > now()`

	deleteSessionSQL = `DELETE FROM sessions WHERE token_hash = $1`
)

var (
	_ user.Repository        = (*UserRepository)(nil)
	_ user.SessionRepository = (*SessionRepository)(nil)
)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts an account. Returns user.ErrDuplicateEmail when the email
// is taken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, insertUserSQL,
		u.Email, u.Name, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicateEmail
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// FindByEmail looks up an account by its normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, getUserByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return &u, nil
}

// SessionRepository implements user.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, s user.Session) error {
	if _, err := r.pool.Exec(ctx, insertSessionSQL, s.TokenHash, s.UserID, s.ExpiresAt); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// FindUser joins a live session with its account. Expired sessions behave
// as absent.
func (r *SessionRepository) FindUser(ctx context.Context, tokenHash string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, getSessionUserSQL, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("finding session user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding session user: %w", err)
	}
	return &u, nil
}

// Delete removes a session by token hash. Deleting an absent session is
// not an error.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, deleteSessionSQL, tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt)
	u.Role = user.Role(role)
	return u, err
}
