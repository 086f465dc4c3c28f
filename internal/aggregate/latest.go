package aggregate

import (
	"time"

	"platewatch/internal/model"
)

// Latest returns the last n detections by array position, newest first.
// Order is taken from the array as received; nothing is re-sorted.
func Latest(dets []model.Detection, n int) []model.Detection {
	if n <= 0 {
		return []model.Detection{}
	}
	start := len(dets) - n
	if start < 0 {
		start = 0
	}
	tail := dets[start:]
	out := make([]model.Detection, len(tail))
	for i, d := range tail {
		out[len(tail)-1-i] = d
	}
	return out
}

// IsChronological reports whether parseable timestamps never decrease along
// the slice. Unparseable timestamps are ignored.
func IsChronological(dets []model.Detection, loc *time.Location) bool {
	var prev time.Time
	for _, d := range dets {
		t, err := d.Time(loc)
		if err != nil {
			continue
		}
		if !prev.IsZero() && t.Before(prev) {
			return false
		}
		prev = t
	}
	return true
}
