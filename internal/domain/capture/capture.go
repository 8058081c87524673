// Package capture holds the lead-capture surface: newsletter signups and
// contact form messages.
package capture

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrEmptyMessage    = errors.New("message is required")
	ErrAlreadySignedUp = errors.New("email already subscribed")
)

// Subscriber is a newsletter signup.
type Subscriber struct {
	Email     string
	CreatedAt time.Time
}

// Message is a contact form submission.
type Message struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// NormalizeEmail trims, lower-cases, and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidateMessage normalizes the sender email and rejects empty bodies.
func ValidateMessage(m *Message) error {
	email, err := NormalizeEmail(m.Email)
	if err != nil {
		return err
	}
	m.Email = email
	m.Name = strings.TrimSpace(m.Name)
	m.Message = strings.TrimSpace(m.Message)
	if m.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Repository persists signups and messages. Subscribe returns
// ErrAlreadySignedUp on a duplicate email.
type Repository interface {
	Subscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context) ([]Subscriber, error)
	SaveMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context) ([]Message, error)
}
