package aggregate

import (
	"fmt"
	"time"

	"platewatch/internal/model"
)

// HoursPerDay is the number of histogram buckets.
const HoursPerDay = 24

// Histogram counts detections per local hour of day.
type Histogram [HoursPerDay]int

// HourlyOptions controls bucketing.
type HourlyOptions struct {
	// Location is the zone hours are read in. Nil means time.Local.
	Location *time.Location
	// Day, when non-zero, restricts counting to that calendar day in Location.
	Day time.Time
}

// Hourly buckets detections by hour of day. Detections whose timestamp cannot
// be parsed are not counted.
func Hourly(dets []model.Detection, opts HourlyOptions) Histogram {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var dayY, dayD int
	var dayM time.Month
	filter := !opts.Day.IsZero()
	if filter {
		dayY, dayM, dayD = opts.Day.In(loc).Date()
	}

	var h Histogram
	for _, d := range dets {
		t, err := d.Time(loc)
		if err != nil {
			continue
		}
		if filter {
			y, m, dd := t.Date()
			if y != dayY || m != dayM || dd != dayD {
				continue
			}
		}
		h[t.Hour()]++
	}
	return h
}

// Total is the number of detections counted.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Max is the largest bucket count.
func (h Histogram) Max() int {
	m := 0
	for _, c := range h {
		if c > m {
			m = c
		}
	}
	return m
}

// Series returns parallel labels and values ordered by ascending hour.
// With fullDay every hour is present; otherwise only non-empty hours are.
func (h Histogram) Series(fullDay bool) ([]string, []int) {
	labels := make([]string, 0, HoursPerDay)
	values := make([]int, 0, HoursPerDay)
	for hour, c := range h {
		if !fullDay && c == 0 {
			continue
		}
		labels = append(labels, HourLabel(hour))
		values = append(values, c)
	}
	return labels, values
}

// HourLabel formats an hour bucket for chart axes, e.g. "9:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}
