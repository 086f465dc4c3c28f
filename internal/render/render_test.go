package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"platewatch/internal/aggregate"
	"platewatch/internal/feed"
	"platewatch/internal/model"
)

func scenarioView() aggregate.View {
	yes := true
	dets := []model.Detection{
		{PlateNumber: "34ABC12", Timestamp: "2024-01-01T09:15:00Z", Confidence: 91.2, IsAuthorized: &yes},
		{PlateNumber: "06XYZ99", Timestamp: "2024-01-01T09:40:00Z", Confidence: 77.05},
	}
	return aggregate.BuildView(dets, aggregate.ViewOptions{
		Location: time.UTC,
		FullDay:  true,
		Now:      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	})
}

func TestWriteHourlyChart(t *testing.T) {
	tests := []struct {
		name string
		h    aggregate.Histogram
	}{
		{"empty day", aggregate.Histogram{}},
		{"scenario", scenarioView().Histogram},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteHourlyChart(&buf, tt.h); err != nil {
				t.Fatalf("WriteHourlyChart failed: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if img.Bounds().Dx() != ChartWidth || img.Bounds().Dy() != ChartHeight {
				t.Errorf("unexpected size %v", img.Bounds())
			}
		})
	}
}

func TestPNGFile_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "hourly.png")
	NewPNGFile(path, nil).Render(scenarioView())

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("written chart is not a PNG: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestTerminal_RenderWithoutScreen(t *testing.T) {
	term := NewTerminal()
	term.Render(scenarioView())

	rows := term.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if !strings.HasPrefix(rows[0], "06XYZ99") || !strings.Contains(rows[0], "77.1%") {
		t.Errorf("unexpected first row %q", rows[0])
	}
	if !strings.Contains(rows[1], "[AUTHORIZED]") {
		t.Errorf("missing badge in %q", rows[1])
	}
	if term.plot.Data[0][9] != 2 || len(term.plot.Data[0]) != aggregate.HoursPerDay {
		t.Errorf("unexpected plot data %v", term.plot.Data)
	}
	if !strings.Contains(term.Status(), "2 detections") {
		t.Errorf("unexpected status %q", term.Status())
	}
}

func TestTerminal_EmptyAndNotices(t *testing.T) {
	term := NewTerminal()
	term.Render(aggregate.BuildView(nil, aggregate.ViewOptions{FullDay: true}))

	if rows := term.Rows(); len(rows) != 1 || rows[0] != "no detections" {
		t.Errorf("unexpected rows %v", rows)
	}
	if term.plot.MaxVal != 1 {
		t.Errorf("MaxVal = %v, expected 1 for an empty day", term.plot.MaxVal)
	}

	term.ShowNotice(feed.Notice{Kind: feed.NoticeNoCamera, Message: "No active camera"})
	if !strings.HasPrefix(term.Status(), "No active camera") {
		t.Errorf("notice not shown: %q", term.Status())
	}
	term.ClearNotice()
	if strings.Contains(term.Status(), "No active camera") {
		t.Errorf("notice not cleared: %q", term.Status())
	}
}

type countingTarget struct{ n int }

func (c *countingTarget) Render(aggregate.View) { c.n++ }

func TestMulti(t *testing.T) {
	a, b := &countingTarget{}, &countingTarget{}
	Multi{a, b}.Render(scenarioView())
	if a.n != 1 || b.n != 1 {
		t.Errorf("targets rendered %d and %d times", a.n, b.n)
	}
}

func TestTerminal_ShowsStreamSource(t *testing.T) {
	term := NewTerminal()
	term.Render(scenarioView())

	term.ShowSource("http://lpr.local/video_feed/1")
	if !strings.Contains(term.Status(), "stream: http://lpr.local/video_feed/1") {
		t.Errorf("source not shown: %q", term.Status())
	}
	if !strings.Contains(term.Status(), "2 detections") {
		t.Errorf("summary lost: %q", term.Status())
	}

	term.ShowSource("")
	if strings.Contains(term.Status(), "stream:") {
		t.Errorf("source not cleared: %q", term.Status())
	}
}

var _ feed.SourceReporter = (*Terminal)(nil)
