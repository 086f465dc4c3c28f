package handler

import (
	"errors"
	"net/http"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/middleware"
	"platewatch/internal/model"
	"platewatch/internal/service/auth"
)

// SessionIssuer opens and closes login sessions.
type SessionIssuer interface {
	Login(username, password string) (*model.Session, *model.User, error)
	Logout(token string) error
}

// LoginHandler handles POST /auth/login: it checks username and password,
// opens a server-side session and sets its token as the session cookie.
func LoginHandler(sessions SessionIssuer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.FormValue("username")
		password := r.FormValue("password")
		if username == "" || password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		session, user, err := sessions.Login(username, password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			logger.Warning("Failed login attempt for %s from %s", username, r.RemoteAddr)
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		case errors.Is(err, auth.ErrInactiveUser):
			logger.Warning("Login of deactivated user %s from %s", username, r.RemoteAddr)
			http.Error(w, "Your account is deactivated", http.StatusForbidden)
			return
		case err != nil:
			internalError(w, r, logger, "Login of %s failed: %v", username, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		logger.Info("User %s logged in from %s", user.Username, r.RemoteAddr)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler ends the session, clears the cookie and redirects to the login page.
func LogoutHandler(sessions SessionIssuer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
			if err := sessions.Logout(cookie.Value); err != nil {
				logger.Warning("[%s] Failed to end session: %v", middleware.RequestID(r.Context()), err)
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:   middleware.SessionCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
