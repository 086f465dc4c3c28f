package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate_number TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL,
		is_authorized INTEGER NOT NULL DEFAULT 0,
		processed_by TEXT NOT NULL DEFAULT 'system',
		action_taken TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS cameras (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		ip_address TEXT NOT NULL,
		port INTEGER NOT NULL DEFAULT 80,
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '',
		stream_type TEXT NOT NULL DEFAULT 'http',
		rtsp_path TEXT NOT NULL DEFAULT '/',
		is_active INTEGER NOT NULL DEFAULT 1,
		last_connected DATETIME
	);

	CREATE TABLE IF NOT EXISTS authorized_plates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate_number TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		sensitivity REAL NOT NULL DEFAULT 80,
		last_access DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS authorization_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate_number TEXT NOT NULL,
		action TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		changed_by TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'operator',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		last_login DATETIME
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plates_timestamp ON plates(timestamp);
	CREATE INDEX IF NOT EXISTS idx_plates_plate_number ON plates(plate_number);
	CREATE INDEX IF NOT EXISTS idx_cameras_is_active ON cameras(is_active);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON authorization_history(timestamp);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
