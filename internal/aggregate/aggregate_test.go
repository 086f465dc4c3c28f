package aggregate

import (
	"fmt"
	"testing"
	"time"

	"platewatch/internal/model"
)

func detections(n int) []model.Detection {
	dets := make([]model.Detection, 0, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		dets = append(dets, model.Detection{
			PlateNumber: fmt.Sprintf("P%d", i),
			Confidence:  90,
			Timestamp:   base.Add(time.Duration(i) * 37 * time.Minute).Format(time.RFC3339),
		})
	}
	return dets
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"empty", 0, []string{}},
		{"one", 1, []string{"P0"}},
		{"exactly five", 5, []string{"P4", "P3", "P2", "P1", "P0"}},
		{"more than five", 8, []string{"P7", "P6", "P5", "P4", "P3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Latest(detections(tt.n), 5)
			if len(got) != len(tt.want) {
				t.Fatalf("Latest() returned %d entries, expected %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if d.PlateNumber != tt.want[i] {
					t.Errorf("entry %d = %s, expected %s", i, d.PlateNumber, tt.want[i])
				}
			}
		})
	}
}

func TestLatest_DoesNotMutateInput(t *testing.T) {
	dets := detections(3)
	Latest(dets, 5)
	if dets[0].PlateNumber != "P0" || dets[2].PlateNumber != "P2" {
		t.Errorf("input was reordered: %v", dets)
	}
}

func TestLatest_KeepsArrayOrder(t *testing.T) {
	dets := []model.Detection{
		{PlateNumber: "late", Timestamp: "2024-01-01T18:00:00Z"},
		{PlateNumber: "early", Timestamp: "2024-01-01T06:00:00Z"},
	}
	got := Latest(dets, 5)
	if got[0].PlateNumber != "early" {
		t.Errorf("expected array position to win over timestamp, got %s first", got[0].PlateNumber)
	}
	if IsChronological(dets, time.UTC) {
		t.Error("expected snapshot to be reported as unordered")
	}
	if !IsChronological(detections(6), time.UTC) {
		t.Error("expected ascending snapshot to be reported as ordered")
	}
}

func TestHourly_SumsAndRange(t *testing.T) {
	dets := detections(60)
	h := Hourly(dets, HourlyOptions{Location: time.UTC})

	if h.Total() != len(dets) {
		t.Errorf("Total() = %d, expected %d", h.Total(), len(dets))
	}

	labels, values := h.Series(false)
	if len(labels) != len(values) {
		t.Fatalf("labels/values length mismatch: %d vs %d", len(labels), len(values))
	}
	sum := 0
	prev := -1
	for i, label := range labels {
		var hour int
		if _, err := fmt.Sscanf(label, "%d:00", &hour); err != nil {
			t.Fatalf("bad label %q: %v", label, err)
		}
		if hour < 0 || hour > 23 {
			t.Errorf("hour %d out of range", hour)
		}
		if hour <= prev {
			t.Errorf("labels not ascending: %v", labels)
		}
		prev = hour
		sum += values[i]
	}
	if sum != len(dets) {
		t.Errorf("series sum = %d, expected %d", sum, len(dets))
	}
}

func TestHourly_DayFilter(t *testing.T) {
	dets := []model.Detection{
		{Timestamp: "2024-01-01T23:30:00Z"},
		{Timestamp: "2024-01-02T00:10:00Z"},
		{Timestamp: "2024-01-02T13:00:00Z"},
	}
	h := Hourly(dets, HourlyOptions{
		Location: time.UTC,
		Day:      time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
	})
	if h.Total() != 2 {
		t.Errorf("Total() = %d, expected 2", h.Total())
	}
	if h[0] != 1 || h[13] != 1 || h[23] != 0 {
		t.Errorf("unexpected buckets: %v", h)
	}
}

func TestHourly_SkipsBadTimestamps(t *testing.T) {
	dets := []model.Detection{
		{Timestamp: "not a date"},
		{Timestamp: ""},
		{Timestamp: "2024-01-01T10:00:00"},
	}
	h := Hourly(dets, HourlyOptions{Location: time.UTC})
	if h.Total() != 1 || h[10] != 1 {
		t.Errorf("unexpected histogram: %v", h)
	}
}

func TestSeries_FullDay(t *testing.T) {
	var h Histogram
	labels, values := h.Series(true)
	if len(labels) != HoursPerDay || len(values) != HoursPerDay {
		t.Fatalf("expected %d points, got %d/%d", HoursPerDay, len(labels), len(values))
	}
	if labels[0] != "0:00" || labels[23] != "23:00" {
		t.Errorf("unexpected labels: %s .. %s", labels[0], labels[23])
	}

	labels, values = h.Series(false)
	if len(labels) != 0 || len(values) != 0 {
		t.Errorf("expected empty sparse series, got %v %v", labels, values)
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{92.345, "92.3"},
		{91.2, "91.2"},
		{77.05, "77.1"},
		{100, "100.0"},
		{0, "0.0"},
		{99.96, "100.0"},
	}
	for _, tt := range tests {
		if got := FormatConfidence(tt.in); got != tt.want {
			t.Errorf("FormatConfidence(%v) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEntry_Badge(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		auth *bool
		want string
	}{
		{"absent", nil, ""},
		{"authorized", &yes, BadgeAuthorized},
		{"denied", &no, BadgeDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FormatEntry(model.Detection{
				PlateNumber:  "34ABC12",
				Confidence:   88.88,
				Timestamp:    "2024-01-01T09:15:00Z",
				IsAuthorized: tt.auth,
			}, time.UTC)
			if e.Badge != tt.want {
				t.Errorf("Badge = %q, expected %q", e.Badge, tt.want)
			}
			if e.Timestamp != "2024-01-01 09:15:00" {
				t.Errorf("Timestamp = %q", e.Timestamp)
			}
			if e.Confidence != "88.9" {
				t.Errorf("Confidence = %q", e.Confidence)
			}
		})
	}
}

func TestBuildView_Scenario(t *testing.T) {
	dets := []model.Detection{
		{PlateNumber: "A", Timestamp: "2024-01-01T09:15:00Z", Confidence: 91.2},
		{PlateNumber: "B", Timestamp: "2024-01-01T09:40:00Z", Confidence: 77.05},
	}
	v := BuildView(dets, ViewOptions{Location: time.UTC})

	if len(v.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(v.Entries))
	}
	if v.Entries[0].PlateNumber != "B" || v.Entries[1].PlateNumber != "A" {
		t.Errorf("entries not reversed: %+v", v.Entries)
	}
	if v.Entries[0].Confidence != "77.1" || v.Entries[1].Confidence != "91.2" {
		t.Errorf("unexpected confidence strings: %s, %s", v.Entries[0].Confidence, v.Entries[1].Confidence)
	}
	if v.Histogram[9] != 2 {
		t.Errorf("bucket 9 = %d, expected 2", v.Histogram[9])
	}
	if len(v.Labels) != 1 || v.Labels[0] != "9:00" || v.Values[0] != 2 {
		t.Errorf("unexpected series: %v %v", v.Labels, v.Values)
	}
}

func TestBuildView_Empty(t *testing.T) {
	v := BuildView(nil, ViewOptions{Location: time.UTC, FullDay: true})
	if len(v.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(v.Entries))
	}
	if v.Total != 0 || len(v.Values) != HoursPerDay {
		t.Errorf("expected all-zero full-day histogram, got total=%d points=%d", v.Total, len(v.Values))
	}
}

func TestBuildView_TodayOnly(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	dets := []model.Detection{
		{Timestamp: "2024-03-04T10:00:00Z"},
		{Timestamp: "2024-03-05T10:00:00Z"},
	}
	v := BuildView(dets, ViewOptions{Location: time.UTC, TodayOnly: true, Now: now})
	if v.Total != 1 {
		t.Errorf("Total = %d, expected 1", v.Total)
	}
	if len(v.Entries) != 2 {
		t.Errorf("list should not be day-filtered, got %d entries", len(v.Entries))
	}
}
