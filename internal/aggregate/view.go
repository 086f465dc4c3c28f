package aggregate

import (
	"time"

	"platewatch/internal/model"
)

// DefaultLatest is how many recent detections the list shows.
const DefaultLatest = 5

// ViewOptions configures BuildView.
type ViewOptions struct {
	Latest    int
	FullDay   bool
	TodayOnly bool
	Location  *time.Location
	Now       time.Time
}

// View is everything a dashboard shows, derived from one snapshot.
type View struct {
	Entries   []Entry   `json:"entries"`
	Histogram Histogram `json:"histogram"`
	Labels    []string  `json:"labels"`
	Values    []int     `json:"values"`
	Total     int       `json:"total"`
	Generated time.Time `json:"generated"`
}

// BuildView derives the list and the chart from the same snapshot.
func BuildView(dets []model.Detection, opts ViewOptions) View {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	n := opts.Latest
	if n <= 0 {
		n = DefaultLatest
	}

	latest := Latest(dets, n)
	entries := make([]Entry, 0, len(latest))
	for _, d := range latest {
		entries = append(entries, FormatEntry(d, loc))
	}

	hopts := HourlyOptions{Location: loc}
	if opts.TodayOnly {
		hopts.Day = now
	}
	h := Hourly(dets, hopts)
	labels, values := h.Series(opts.FullDay)

	return View{
		Entries:   entries,
		Histogram: h,
		Labels:    labels,
		Values:    values,
		Total:     h.Total(),
		Generated: now,
	}
}
