package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/model"
)

// SessionCookie carries the login session token.
const SessionCookie = "session"

// Authenticator resolves a session token to its user; nil means not logged in.
type Authenticator interface {
	Authenticate(token string) (*model.User, error)
}

type userKey struct{}

// WithUser returns ctx carrying the logged-in user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user set by AuthMiddleware, or nil.
func CurrentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey{}).(*model.User)
	return u
}

// AuthMiddleware lets a request through when its session cookie names a
// live server-side session, and puts the session's user in the context.
// The login page, static assets and the plate feed for recognizers
// (token-authenticated in its handler) are public.
func AuthMiddleware(auth Authenticator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			var user *model.User
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				user, err = auth.Authenticate(cookie.Value)
				if err != nil {
					logger.Error("[%s] Session lookup failed: %v", RequestID(r.Context()), err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			if user == nil {
				if isAPIRequest(r) {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole answers 403 unless the logged-in user has one of roles.
func RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u != nil {
			for _, role := range roles {
				if u.Role == role {
					next(w, r)
					return
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "You do not have permission for this action"})
	}
}

func isPublic(r *http.Request) bool {
	path := r.URL.Path
	if path == "/api/plates" && r.Method == http.MethodPost {
		return true
	}
	return path == "/login" ||
		path == "/auth/login" ||
		strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/css/") ||
		strings.HasPrefix(path, "/js/")
}

// isAPIRequest reports whether a 401 is more useful than a redirect.
func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.HasPrefix(r.URL.Path, "/video_feed/") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		r.Header.Get("Content-Type") == "application/json"
}
