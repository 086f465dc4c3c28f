package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platewatch/internal/model"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a session.
func (r *SessionRepository) Insert(s *model.Session) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
	`, s.Token, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by token; nil if absent.
func (r *SessionRepository) Get(token string) (*model.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var s model.Session
	err := r.db.Conn().QueryRow(`
		SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Delete removes one session.
func (r *SessionRepository) Delete(token string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteForUser ends every session of a user.
func (r *SessionRepository) DeleteForUser(userID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired by now and reports how many.
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
