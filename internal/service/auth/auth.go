package auth

import (
	"errors"
	"fmt"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactiveUser is returned when a deactivated account logs in.
	ErrInactiveUser = errors.New("account is deactivated")
)

// Service issues and checks login sessions.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	ttl      time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(users repository.UserRepository, sessions repository.SessionRepository, ttl time.Duration, logger *logger.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// HashPassword returns the bcrypt hash stored for password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Bootstrap creates an admin account when the database has no users, so a
// fresh install can be logged into.
func (s *Service) Bootstrap(username, password string) error {
	n, err := s.users.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     username,
		Email:        username + "@localhost",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if _, err := s.users.Insert(admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	s.logger.Info("Created admin user %s", username)
	return nil
}

// Login checks the credentials and opens a session for the user.
func (s *Service) Login(username, password string) (*model.Session, *model.User, error) {
	u, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !CheckPassword(u, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, nil, ErrInactiveUser
	}

	now := s.now()
	session := &model.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Insert(session); err != nil {
		return nil, nil, err
	}
	if err := s.users.TouchLogin(u.ID, now); err != nil {
		s.logger.Warning("Failed to record login of %s: %v", u.Username, err)
	}
	return session, u, nil
}

// Authenticate resolves a session token to its user. Unknown and expired
// tokens, and sessions of deactivated users, give nil without error.
func (s *Service) Authenticate(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.sessions.Get(token)
	if err != nil || session == nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(token); err != nil {
			s.logger.Warning("Failed to drop expired session: %v", err)
		}
		return nil, nil
	}

	u, err := s.users.GetByID(session.UserID)
	if err != nil || u == nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, nil
	}
	return u, nil
}

// Logout ends a session.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(token)
}

// EndSessions logs a user out everywhere.
func (s *Service) EndSessions(userID int64) error {
	return s.sessions.DeleteForUser(userID)
}

// PurgeExpired drops expired sessions.
func (s *Service) PurgeExpired() {
	n, err := s.sessions.DeleteExpired(s.now())
	if err != nil {
		s.logger.Warning("Failed to purge sessions: %v", err)
		return
	}
	if n > 0 {
		s.logger.Info("Purged %d expired session(s)", n)
	}
}
