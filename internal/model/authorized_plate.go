package model

import "time"

// AuthorizedPlate is a plate allowed through the gate when recognized with
// at least Sensitivity confidence.
type AuthorizedPlate struct {
	ID          int64      `json:"id"`
	PlateNumber string     `json:"plate_number"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	Sensitivity float64    `json:"sensitivity"`
	LastAccess  *time.Time `json:"last_access,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
