package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ocralab/ocra/internal/api/response"
	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	userKey    contextKey = "user"
)

// SessionCookie is the cookie carrying the opaque session id.
const SessionCookie = "ocra_session"

// SessionID extracts the opaque session id from the request, preferring the
// Authorization header over the cookie. Empty means unauthenticated.
func SessionID(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
			return token
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Auth returns middleware that resolves the caller's session and injects the
// session and its user into the request context. Unknown and expired
// sessions are both rejected with 401.
func Auth(sessions *core.SessionService, users *core.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := SessionID(r)
			if id == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing session")
				return
			}

			session, err := sessions.Resolve(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				response.WriteError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			if err != nil {
				response.WriteError(w, http.StatusInternalServerError, "session lookup failed")
				return
			}

			user, err := users.GetByID(r.Context(), session.UserID)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that rejects non-admin users. Must run
// after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin {
			response.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession extracts the resolved session from the request context.
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionKey).(*model.Session)
	return session
}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// WithSession injects a session and user into the context. Used by handlers
// under test.
func WithSession(ctx context.Context, session *model.Session, user *model.User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, session)
	return context.WithValue(ctx, userKey, user)
}
