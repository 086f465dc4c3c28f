package dto

import "platewatch/internal/model"

// PlateResponse is returned by POST /api/plates.
type PlateResponse struct {
	Status       string `json:"status"`
	IsAuthorized bool   `json:"is_authorized"`
	ActionTaken  string `json:"action_taken"`
}

// StatusResponse is the generic acknowledgement body.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PlateHistoryResponse is returned by GET /api/plate-history.
type PlateHistoryResponse struct {
	PlateRecords []model.Detection            `json:"plate_records"`
	AuthHistory  []model.AuthorizationHistory `json:"auth_history"`
}
