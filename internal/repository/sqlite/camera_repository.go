package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"platewatch/internal/model"
)

// CameraRepository implements repository.CameraRepository for SQLite.
type CameraRepository struct {
	db *DB
}

// NewCameraRepository creates a new SQLite camera repository.
func NewCameraRepository(db *DB) *CameraRepository {
	return &CameraRepository{db: db}
}

const cameraColumns = `id, name, ip_address, port, username, password, stream_type, rtsp_path, is_active, last_connected`

// Insert adds a new camera.
func (r *CameraRepository) Insert(cam *model.Camera) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO cameras (name, ip_address, port, username, password, stream_type, rtsp_path, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cam.Name, cam.IPAddress, cam.Port, cam.Username, cam.Password, cam.StreamType, cam.RTSPPath, cam.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to insert camera: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	cam.ID = id
	return id, nil
}

// Update overwrites every editable column of a camera.
func (r *CameraRepository) Update(cam *model.Camera) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE cameras SET name = ?, ip_address = ?, port = ?, username = ?, password = ?,
			stream_type = ?, rtsp_path = ?, is_active = ?
		WHERE id = ?
	`, cam.Name, cam.IPAddress, cam.Port, cam.Username, cam.Password, cam.StreamType, cam.RTSPPath, cam.IsActive, cam.ID)
	if err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}
	return nil
}

// GetByID retrieves a camera by its ID; nil if absent.
func (r *CameraRepository) GetByID(id int64) (*model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanCamera(r.db.Conn().QueryRow(`SELECT `+cameraColumns+` FROM cameras WHERE id = ?`, id))
}

// GetByName retrieves a camera by its unique name; nil if absent.
func (r *CameraRepository) GetByName(name string) (*model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return scanCamera(r.db.Conn().QueryRow(`SELECT `+cameraColumns+` FROM cameras WHERE name = ?`, name))
}

// GetAll lists every camera ordered by ID.
func (r *CameraRepository) GetAll() ([]model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + cameraColumns + ` FROM cameras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	return scanCameras(rows)
}

// GetActive lists the active cameras ordered by ID.
func (r *CameraRepository) GetActive() ([]model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + cameraColumns + ` FROM cameras WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active cameras: %w", err)
	}
	return scanCameras(rows)
}

// SetActive enables or disables a camera.
func (r *CameraRepository) SetActive(id int64, active bool) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE cameras SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("failed to update camera status: %w", err)
	}
	return nil
}

// TouchConnected records a successful connection.
func (r *CameraRepository) TouchConnected(id int64, at time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE cameras SET last_connected = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("failed to update camera connection time: %w", err)
	}
	return nil
}

// Delete removes a camera.
func (r *CameraRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM cameras WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete camera: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCameraRow(row rowScanner) (model.Camera, error) {
	var cam model.Camera
	var last sql.NullTime
	err := row.Scan(&cam.ID, &cam.Name, &cam.IPAddress, &cam.Port, &cam.Username, &cam.Password,
		&cam.StreamType, &cam.RTSPPath, &cam.IsActive, &last)
	if err != nil {
		return cam, err
	}
	if last.Valid {
		t := last.Time
		cam.LastConnected = &t
	}
	return cam, nil
}

func scanCamera(row *sql.Row) (*model.Camera, error) {
	cam, err := scanCameraRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return &cam, nil
}

func scanCameras(rows *sql.Rows) ([]model.Camera, error) {
	defer rows.Close()

	cams := []model.Camera{}
	for rows.Next() {
		cam, err := scanCameraRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cams = append(cams, cam)
	}
	return cams, rows.Err()
}
