package model

import (
	"errors"
	"strings"
	"time"
)

// Detection is one recognized plate event as served by GET /api/plates.
type Detection struct {
	ID           int64   `json:"id,omitempty"`
	PlateNumber  string  `json:"plate_number"`
	Confidence   float64 `json:"confidence"`
	Timestamp    string  `json:"timestamp"`
	IsAuthorized *bool   `json:"is_authorized,omitempty"`
	ProcessedBy  string  `json:"processed_by,omitempty"`
	ActionTaken  string  `json:"action_taken,omitempty"`
}

// ErrTimestamp is returned when a detection timestamp matches none of the accepted layouts.
var ErrTimestamp = errors.New("unrecognized timestamp")

// naiveLayouts are ISO-8601 forms without a zone; they are read in the caller's location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time parses the detection timestamp. Zoned values keep their instant;
// zone-less values are interpreted in loc.
func (d Detection) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(d.Timestamp)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrTimestamp
}

// PlateRecord is the stored form of a detection.
type PlateRecord struct {
	ID           int64     `json:"id"`
	PlateNumber  string    `json:"plate_number"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
	IsAuthorized bool      `json:"is_authorized"`
	ProcessedBy  string    `json:"processed_by"`
	ActionTaken  string    `json:"action_taken"`
}

// Detection projects the record onto the wire type.
func (r PlateRecord) Detection() Detection {
	authorized := r.IsAuthorized
	return Detection{
		ID:           r.ID,
		PlateNumber:  r.PlateNumber,
		Confidence:   r.Confidence,
		Timestamp:    r.Timestamp.Format(time.RFC3339Nano),
		IsAuthorized: &authorized,
		ProcessedBy:  r.ProcessedBy,
		ActionTaken:  r.ActionTaken,
	}
}
