package sqlite

import (
	"fmt"
	"time"

	"platewatch/internal/model"
)

// HistoryRepository implements repository.AuthorizationHistoryRepository for SQLite.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new SQLite allow-list audit repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, plate_number, action, description, changed_by, timestamp`

// Insert appends an audit entry, stamping it now when no time is set.
func (r *HistoryRepository) Insert(h *model.AuthorizationHistory) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO authorization_history (plate_number, action, description, changed_by, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, h.PlateNumber, h.Action, h.Description, h.ChangedBy, h.Timestamp.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert authorization history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	h.ID = id
	return id, nil
}

// GetAll returns the whole trail, newest first.
func (r *HistoryRepository) GetAll() ([]model.AuthorizationHistory, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.query(`SELECT ` + historyColumns + ` FROM authorization_history ORDER BY timestamp DESC, id DESC`)
}

// GetByPlateNumber returns the trail of one plate, newest first.
func (r *HistoryRepository) GetByPlateNumber(plate string) ([]model.AuthorizationHistory, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.query(`SELECT `+historyColumns+` FROM authorization_history WHERE plate_number = ? ORDER BY timestamp DESC, id DESC`, plate)
}

func (r *HistoryRepository) query(q string, args ...interface{}) ([]model.AuthorizationHistory, error) {
	rows, err := r.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorization history: %w", err)
	}
	defer rows.Close()

	entries := []model.AuthorizationHistory{}
	for rows.Next() {
		var h model.AuthorizationHistory
		if err := rows.Scan(&h.ID, &h.PlateNumber, &h.Action, &h.Description, &h.ChangedBy, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan authorization history: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
