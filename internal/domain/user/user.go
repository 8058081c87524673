package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role gates access to the admin back-office.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an existing email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrBadCredentials is returned on login with a wrong email or password.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrPasswordTooShort is returned when a password is under 6 characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrNoSession is returned when a token resolves to no live session.
	ErrNoSession = errors.New("no session")
)

// User is a storefront account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may use admin endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is a server-side login session. Only the HMAC of the opaque
// token is stored.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

// Repository defines account persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SessionRepository defines session persistence. FindUser joins the
// session with its account and must ignore expired sessions.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	FindUser(ctx context.Context, tokenHash string) (*User, error)
	Delete(ctx context.Context, tokenHash string) error
}
