package repository

import (
	"time"

	"platewatch/internal/model"
)

// PlateRepository stores recognized plates.
type PlateRepository interface {
	// Create operations
	Insert(rec *model.PlateRecord) (int64, error)
	InsertBatch(recs []model.PlateRecord) error

	// Read operations
	// GetAll returns every record ascending by timestamp.
	GetAll() ([]model.PlateRecord, error)
	GetSince(since time.Time) ([]model.PlateRecord, error)
	Count() (int, error)

	// Delete operations
	DeleteAll() error
}

// CameraRepository stores camera configuration.
type CameraRepository interface {
	Insert(cam *model.Camera) (int64, error)
	Update(cam *model.Camera) error
	GetByID(id int64) (*model.Camera, error)
	GetByName(name string) (*model.Camera, error)
	GetAll() ([]model.Camera, error)
	GetActive() ([]model.Camera, error)
	SetActive(id int64, active bool) error
	TouchConnected(id int64, at time.Time) error
	Delete(id int64) error
}

// AuthorizedPlateRepository stores the gate allow-list.
type AuthorizedPlateRepository interface {
	Insert(p *model.AuthorizedPlate) (int64, error)
	Update(p *model.AuthorizedPlate) error
	GetByID(id int64) (*model.AuthorizedPlate, error)
	GetByPlateNumber(plate string) (*model.AuthorizedPlate, error)
	GetActiveByPlateNumber(plate string) (*model.AuthorizedPlate, error)
	GetAll() ([]model.AuthorizedPlate, error)
	TouchAccess(id int64, at time.Time) error
	Delete(id int64) error
}

// AuthorizationHistoryRepository stores the allow-list audit trail.
type AuthorizationHistoryRepository interface {
	Insert(h *model.AuthorizationHistory) (int64, error)
	// GetAll returns every entry, newest first.
	GetAll() ([]model.AuthorizationHistory, error)
	GetByPlateNumber(plate string) ([]model.AuthorizationHistory, error)
}

// UserRepository stores dashboard accounts.
type UserRepository interface {
	Insert(u *model.User) (int64, error)
	Update(u *model.User) error
	GetByID(id int64) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetAll() ([]model.User, error)
	Count() (int, error)
	TouchLogin(id int64, at time.Time) error
	Delete(id int64) error
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	Insert(s *model.Session) error
	Get(token string) (*model.Session, error)
	Delete(token string) error
	DeleteForUser(userID int64) error
	DeleteExpired(now time.Time) (int64, error)
}
