package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platewatch/internal/model"
)

// AuthorizedPlateRepository implements repository.AuthorizedPlateRepository for SQLite.
type AuthorizedPlateRepository struct {
	db *DB
}

// NewAuthorizedPlateRepository creates a new SQLite allow-list repository.
func NewAuthorizedPlateRepository(db *DB) *AuthorizedPlateRepository {
	return &AuthorizedPlateRepository{db: db}
}

const authorizedColumns = `id, plate_number, description, is_active, sensitivity, last_access, created_at`

// Insert adds a plate to the allow-list.
func (r *AuthorizedPlateRepository) Insert(p *model.AuthorizedPlate) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO authorized_plates (plate_number, description, is_active, sensitivity, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.PlateNumber, p.Description, p.IsActive, p.Sensitivity, p.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert authorized plate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// Update overwrites the editable columns of an allow-list entry.
func (r *AuthorizedPlateRepository) Update(p *model.AuthorizedPlate) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE authorized_plates SET plate_number = ?, description = ?, is_active = ?, sensitivity = ?
		WHERE id = ?
	`, p.PlateNumber, p.Description, p.IsActive, p.Sensitivity, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update authorized plate: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by ID; nil if absent.
func (r *AuthorizedPlateRepository) GetByID(id int64) (*model.AuthorizedPlate, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanAuthorized(r.db.Conn().QueryRow(`SELECT `+authorizedColumns+` FROM authorized_plates WHERE id = ?`, id))
}

// GetByPlateNumber retrieves an entry regardless of status; nil if absent.
func (r *AuthorizedPlateRepository) GetByPlateNumber(plate string) (*model.AuthorizedPlate, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanAuthorized(r.db.Conn().QueryRow(`SELECT `+authorizedColumns+` FROM authorized_plates WHERE plate_number = ?`, plate))
}

// GetActiveByPlateNumber retrieves an active entry; nil if absent or inactive.
func (r *AuthorizedPlateRepository) GetActiveByPlateNumber(plate string) (*model.AuthorizedPlate, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanAuthorized(r.db.Conn().QueryRow(`SELECT `+authorizedColumns+` FROM authorized_plates WHERE plate_number = ? AND is_active = 1`, plate))
}

// GetAll lists the allow-list ordered by plate number.
func (r *AuthorizedPlateRepository) GetAll() ([]model.AuthorizedPlate, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + authorizedColumns + ` FROM authorized_plates ORDER BY plate_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorized plates: %w", err)
	}
	defer rows.Close()

	plates := []model.AuthorizedPlate{}
	for rows.Next() {
		p, err := scanAuthorizedRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan authorized plate: %w", err)
		}
		plates = append(plates, p)
	}
	return plates, rows.Err()
}

// TouchAccess records the last time the plate opened the gate.
func (r *AuthorizedPlateRepository) TouchAccess(id int64, at time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE authorized_plates SET last_access = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("failed to update last access: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (r *AuthorizedPlateRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM authorized_plates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete authorized plate: %w", err)
	}
	return nil
}

func scanAuthorizedRow(row rowScanner) (model.AuthorizedPlate, error) {
	var p model.AuthorizedPlate
	var last sql.NullTime
	if err := row.Scan(&p.ID, &p.PlateNumber, &p.Description, &p.IsActive, &p.Sensitivity, &last, &p.CreatedAt); err != nil {
		return p, err
	}
	if last.Valid {
		t := last.Time
		p.LastAccess = &t
	}
	return p, nil
}

func scanAuthorized(row *sql.Row) (*model.AuthorizedPlate, error) {
	p, err := scanAuthorizedRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorized plate: %w", err)
	}
	return &p, nil
}
