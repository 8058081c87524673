package user

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// sessionTTL is how long a login session stays valid.
const sessionTTL = 30 * 24 * time.Hour

// Service implements registration, login, and identity resolution from
// opaque session tokens. Tokens are stored as HMAC-SHA256 hashes with a
// server-side pepper, so a leaked sessions table is useless without it.
type Service struct {
	users    Repository
	sessions SessionRepository
	pepper   []byte

	now func() time.Time
}

// NewService creates a Service with the given repositories and HMAC pepper.
func NewService(users Repository, sessions SessionRepository, pepper []byte) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		pepper:   pepper,
		now:      time.Now,
	}
}

// Register creates a customer account. The email is normalized before the
// uniqueness check; the password is bcrypt-hashed.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         RoleCustomer,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and opens a session. It returns the user and
// the opaque session token handed to the client. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", ErrBadCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrBadCredentials
		}
		return nil, "", errors.Wrap(err, "find user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrBadCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, "", errors.Wrap(err, "generate session token")
	}

	sess := Session{
		TokenHash: s.hashToken(token),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, "", errors.Wrap(err, "create session")
	}

	return u, token, nil
}

// Resolve maps an opaque session token to its user. Expired or unknown
// tokens return ErrNoSession. Missing roles default to customer.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	u, err := s.sessions.FindUser(ctx, s.hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, errors.Wrap(err, "resolve session")
	}

	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return u, nil
}

// Logout deletes the session behind the token, if any.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, s.hashToken(token))
}

// hashToken computes the peppered HMAC-SHA256 of a session token.
func (s *Service) hashToken(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeEmail trims, lower-cases, and validates an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
