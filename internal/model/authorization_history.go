package model

import "time"

// Allow-list audit actions.
const (
	HistoryAdded       = "add"
	HistoryUpdated     = "update"
	HistoryActivated   = "activate"
	HistoryDeactivated = "deactivate"
	HistoryDeleted     = "delete"
)

// AuthorizationHistory records one change to the allow-list and who made it.
type AuthorizationHistory struct {
	ID          int64     `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	ChangedBy   string    `json:"changed_by"`
	Timestamp   time.Time `json:"timestamp"`
}
