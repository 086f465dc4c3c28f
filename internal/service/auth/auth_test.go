package auth

import (
	"errors"
	"testing"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository/sqlite"
)

func setupService(t *testing.T) (*Service, *sqlite.UserRepository) {
	t.Helper()
	db, err := sqlite.New(t.TempDir() + "/auth.db")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	return NewService(users, sqlite.NewSessionRepository(db), time.Hour, logger.Discard()), users
}

func TestBootstrap_OnlyOnEmptyDatabase(t *testing.T) {
	s, users := setupService(t)

	if err := s.Bootstrap("admin", "secret"); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if err := s.Bootstrap("other", "x"); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}

	all, _ := users.GetAll()
	if len(all) != 1 || all[0].Username != "admin" || !all[0].IsAdmin() {
		t.Fatalf("users = %+v", all)
	}
	if all[0].PasswordHash == "secret" || !CheckPassword(&all[0], "secret") {
		t.Error("password should be stored hashed")
	}
}

func TestLogin_IssuesDistinctSessions(t *testing.T) {
	s, users := setupService(t)
	s.Bootstrap("admin", "secret")

	first, u, err := s.Login("admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	second, _, _ := s.Login("admin", "secret")
	if first.Token == "" || first.Token == second.Token {
		t.Errorf("tokens should be random and distinct: %q %q", first.Token, second.Token)
	}
	if got, _ := users.GetByID(u.ID); got.LastLogin == nil {
		t.Error("last login should be recorded")
	}

	who, err := s.Authenticate(first.Token)
	if err != nil || who == nil || who.Username != "admin" {
		t.Errorf("Authenticate = %+v, %v", who, err)
	}
}

func TestLogin_Rejections(t *testing.T) {
	s, users := setupService(t)
	s.Bootstrap("admin", "secret")

	for _, tc := range []struct{ user, pass string }{{"admin", "wrong"}, {"nobody", "secret"}} {
		if _, _, err := s.Login(tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s/%s: err = %v, expected ErrInvalidCredentials", tc.user, tc.pass, err)
		}
	}

	hash, _ := HashPassword("pw")
	users.Insert(&model.User{Username: "gone", Email: "gone@example.com", PasswordHash: hash, Role: model.RoleOperator, IsActive: false})
	if _, _, err := s.Login("gone", "pw"); !errors.Is(err, ErrInactiveUser) {
		t.Errorf("err = %v, expected ErrInactiveUser", err)
	}
}

func TestAuthenticate_ForgedExpiredAndLoggedOut(t *testing.T) {
	s, users := setupService(t)
	s.Bootstrap("admin", "secret")

	if u, _ := s.Authenticate("true"); u != nil {
		t.Error("a guessed token must not authenticate")
	}

	session, u, _ := s.Login("admin", "secret")
	s.now = func() time.Time { return session.ExpiresAt }
	if who, _ := s.Authenticate(session.Token); who != nil {
		t.Error("expired session should not authenticate")
	}
	s.now = time.Now

	session, _, _ = s.Login("admin", "secret")
	if err := s.Logout(session.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if who, _ := s.Authenticate(session.Token); who != nil {
		t.Error("logged out session should not authenticate")
	}

	session, _, _ = s.Login("admin", "secret")
	u.IsActive = false
	users.Update(u)
	if who, _ := s.Authenticate(session.Token); who != nil {
		t.Error("deactivated user should lose their session")
	}
}

func TestEndSessionsAndPurge(t *testing.T) {
	s, _ := setupService(t)
	s.Bootstrap("admin", "secret")

	a, u, _ := s.Login("admin", "secret")
	b, _, _ := s.Login("admin", "secret")
	if err := s.EndSessions(u.ID); err != nil {
		t.Fatalf("EndSessions failed: %v", err)
	}
	for _, tok := range []string{a.Token, b.Token} {
		if who, _ := s.Authenticate(tok); who != nil {
			t.Errorf("session %s should be ended", tok)
		}
	}

	c, _, _ := s.Login("admin", "secret")
	s.now = func() time.Time { return c.ExpiresAt.Add(time.Second) }
	s.PurgeExpired()
	s.now = time.Now
	if who, _ := s.Authenticate(c.Token); who != nil {
		t.Error("purged session should not authenticate")
	}
}
