package aggregate

import (
	"math"
	"strconv"
	"time"

	"platewatch/internal/model"
)

// TimestampLayout is how entry timestamps are shown.
const TimestampLayout = "2006-01-02 15:04:05"

// Authorization badges.
const (
	BadgeAuthorized = "AUTHORIZED"
	BadgeDenied     = "DENIED"
)

// Entry is a detection formatted for the recent-plates list.
type Entry struct {
	PlateNumber string `json:"plate_number"`
	Confidence  string `json:"confidence"`
	Timestamp   string `json:"timestamp"`
	Badge       string `json:"badge,omitempty"`
}

// FormatConfidence rounds half away from zero to exactly one decimal.
func FormatConfidence(v float64) string {
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// FormatEntry formats a detection in loc. Timestamps that do not parse are
// shown as received.
func FormatEntry(d model.Detection, loc *time.Location) Entry {
	e := Entry{
		PlateNumber: d.PlateNumber,
		Confidence:  FormatConfidence(d.Confidence),
		Timestamp:   d.Timestamp,
	}
	if t, err := d.Time(loc); err == nil {
		e.Timestamp = t.Format(TimestampLayout)
	}
	if d.IsAuthorized != nil {
		if *d.IsAuthorized {
			e.Badge = BadgeAuthorized
		} else {
			e.Badge = BadgeDenied
		}
	}
	return e
}
