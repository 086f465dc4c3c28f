package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platewatch/internal/model"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, is_active, created_at, last_login`

// Insert adds a user.
func (r *UserRepository) Insert(u *model.User) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO users (username, email, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

// Update overwrites the editable columns of a user.
func (r *UserRepository) Update(u *model.User) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?, is_active = ?
		WHERE id = ?
	`, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID; nil if absent.
func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanUser(r.db.Conn().QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetByUsername retrieves a user by username; nil if absent.
func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanUser(r.db.Conn().QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetByEmail retrieves a user by email; nil if absent.
func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanUser(r.db.Conn().QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetAll lists users ordered by username.
func (r *UserRepository) GetAll() ([]model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + userColumns + ` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the number of users.
func (r *UserRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var n int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// TouchLogin records a successful login.
func (r *UserRepository) TouchLogin(id int64, at time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete removes a user; their sessions go with them.
func (r *UserRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func scanUserRow(row rowScanner) (model.User, error) {
	var u model.User
	var last sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &last); err != nil {
		return u, err
	}
	if last.Valid {
		t := last.Time
		u.LastLogin = &t
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
