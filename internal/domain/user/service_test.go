package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	users     map[string]*User
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[u.Email]; ok {
		return ErrDuplicateEmail
	}
	u.ID = "u-" + u.Email
	m.users[u.Email] = u
	return nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

type mockSessionRepo struct {
	sessions map[string]Session
	users    map[string]*User
	now      time.Time
}

func newMockSessionRepo(now time.Time) *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]Session),
		users:    make(map[string]*User),
		now:      now,
	}
}

func (m *mockSessionRepo) Create(_ context.Context, s Session) error {
	m.sessions[s.TokenHash] = s
	return nil
}

func (m *mockSessionRepo) FindUser(_ context.Context, tokenHash string) (*User, error) {
	s, ok := m.sessions[tokenHash]
	if !ok || !s.ExpiresAt.After(m.now) {
		return nil, ErrNotFound
	}
	u, ok := m.users[s.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockSessionRepo) Delete(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockUserRepo, *mockSessionRepo) {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	users := newMockUserRepo()
	sessions := newMockSessionRepo(now)
	svc := NewService(users, sessions, []byte("pepper"))
	svc.now = func() time.Time { return now }
	return svc, users, sessions
}

func TestServiceRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, users, _ := newTestService(t)

		u, err := svc.Register(context.Background(), " Jane@Example.com ", " Jane ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email)
		assert.Equal(t, "Jane", u.Name)
		assert.Equal(t, RoleCustomer, u.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
		assert.Contains(t, users.users, "jane@example.com")
	})

	t.Run("short password", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(context.Background(), "jane@example.com", "Jane", "12345")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("bad email", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(context.Background(), "not-an-email", "Jane", "secret1")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(context.Background(), "jane@example.com", "Jane", "secret1")
		require.NoError(t, err)
		_, err = svc.Register(context.Background(), "JANE@example.com", "Jane", "secret1")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestServiceLogin(t *testing.T) {
	t.Run("success and resolve", func(t *testing.T) {
		svc, users, sessions := newTestService(t)

		u, err := svc.Register(context.Background(), "jane@example.com", "Jane", "secret1")
		require.NoError(t, err)
		sessions.users[u.ID] = users.users[u.Email]

		got, token, err := svc.Login(context.Background(), " JANE@example.com ", "secret1")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.Equal(t, u.ID, got.ID)

		resolved, err := svc.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, resolved.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(context.Background(), "jane@example.com", "Jane", "secret1")
		require.NoError(t, err)

		_, _, err = svc.Login(context.Background(), "jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})
}

func TestServiceResolve(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Resolve(context.Background(), "deadbeef")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired session", func(t *testing.T) {
		svc, users, sessions := newTestService(t)

		u, err := svc.Register(context.Background(), "jane@example.com", "Jane", "secret1")
		require.NoError(t, err)
		sessions.users[u.ID] = users.users[u.Email]

		_, token, err := svc.Login(context.Background(), "jane@example.com", "secret1")
		require.NoError(t, err)

		sessions.now = sessions.now.Add(31 * 24 * time.Hour)
		_, err = svc.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestServiceLogout(t *testing.T) {
	svc, users, sessions := newTestService(t)

	u, err := svc.Register(context.Background(), "jane@example.com", "Jane", "secret1")
	require.NoError(t, err)
	sessions.users[u.ID] = users.users[u.Email]

	_, token, err := svc.Login(context.Background(), "jane@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, svc.Logout(context.Background(), ""))
}
