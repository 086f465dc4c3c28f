package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platewatch/internal/model"
)

// PlateRepository implements repository.PlateRepository for SQLite.
type PlateRepository struct {
	db *DB
}

// NewPlateRepository creates a new SQLite plate repository.
func NewPlateRepository(db *DB) *PlateRepository {
	return &PlateRepository{db: db}
}

const plateColumns = `id, plate_number, confidence, timestamp, is_authorized, processed_by, action_taken`

// Insert adds a new plate record. Timestamps are stored in UTC so that
// textual ordering matches chronological ordering.
func (r *PlateRepository) Insert(rec *model.PlateRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO plates (plate_number, confidence, timestamp, is_authorized, processed_by, action_taken)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.PlateNumber, rec.Confidence, rec.Timestamp.UTC(), rec.IsAuthorized, rec.ProcessedBy, rec.ActionTaken)
	if err != nil {
		return 0, fmt.Errorf("failed to insert plate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

// InsertBatch adds multiple plate records in a single transaction.
func (r *PlateRepository) InsertBatch(recs []model.PlateRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO plates (plate_number, confidence, timestamp, is_authorized, processed_by, action_taken)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.Exec(rec.PlateNumber, rec.Confidence, rec.Timestamp.UTC(), rec.IsAuthorized, rec.ProcessedBy, rec.ActionTaken); err != nil {
			return fmt.Errorf("failed to insert plate: %w", err)
		}
	}

	return tx.Commit()
}

// GetAll returns every plate record ascending by timestamp.
func (r *PlateRepository) GetAll() ([]model.PlateRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + plateColumns + ` FROM plates ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plates: %w", err)
	}
	return scanPlates(rows)
}

// GetSince returns records at or after since, ascending by timestamp.
func (r *PlateRepository) GetSince(since time.Time) ([]model.PlateRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT `+plateColumns+` FROM plates WHERE timestamp >= ? ORDER BY timestamp ASC, id ASC`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query plates: %w", err)
	}
	return scanPlates(rows)
}

// Count returns the number of stored plate records.
func (r *PlateRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM plates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plates: %w", err)
	}
	return count, nil
}

// DeleteAll removes every plate record.
func (r *PlateRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM plates`); err != nil {
		return fmt.Errorf("failed to delete plates: %w", err)
	}
	return nil
}

func scanPlates(rows *sql.Rows) ([]model.PlateRecord, error) {
	defer rows.Close()

	recs := []model.PlateRecord{}
	for rows.Next() {
		var rec model.PlateRecord
		if err := rows.Scan(&rec.ID, &rec.PlateNumber, &rec.Confidence, &rec.Timestamp, &rec.IsAuthorized, &rec.ProcessedBy, &rec.ActionTaken); err != nil {
			return nil, fmt.Errorf("failed to scan plate: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
