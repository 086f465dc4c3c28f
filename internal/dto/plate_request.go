package dto

// PlateRequest is the body of POST /api/plates.
type PlateRequest struct {
	PlateNumber string   `json:"plate_number"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	ProcessedBy string   `json:"processed_by,omitempty"`
}
