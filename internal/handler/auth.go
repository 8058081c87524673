package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rohilkohli/shids/internal/domain/user"
)

// sessionCookie carries the opaque session token in browsers. API clients
// may send the same token as a bearer header instead.
const sessionCookie = "shids_session"

type identityKey struct{}

// identityFrom returns the authenticated user, or nil for guests.
func identityFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(identityKey{}).(*user.User)
	return u
}

// sessionToken extracts the token from the session cookie, falling back to
// the Authorization bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// withIdentity resolves the session token, if any, and stores the user in
// the request context. Requests without a valid session stay anonymous.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := h.users.Resolve(r.Context(), token)
		if err != nil {
			// Stale or bogus tokens degrade to anonymous.
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects requests whose identity is missing or not an admin.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFrom(r.Context()).IsAdmin() {
			respondError(w, http.StatusUnauthorized, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toUserDTO(u))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, 30*24*time.Hour)
	respond(w, http.StatusOK, map[string]any{
		"user":  toUserDTO(u),
		"token": token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.users.Logout(r.Context(), token); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}
	h.setSessionCookie(w, "", -time.Hour)
	respond(w, http.StatusOK, map[string]any{"loggedOut": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u := identityFrom(r.Context())
	if u == nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	respond(w, http.StatusOK, toUserDTO(u))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
