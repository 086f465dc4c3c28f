package render

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"platewatch/internal/aggregate"
	"platewatch/internal/logger"
)

// ChartTitle is the series name shown on hourly charts.
const ChartTitle = "Detections per hour"

// Chart dimensions in pixels.
const (
	ChartWidth  = 800
	ChartHeight = 320
)

var lineColor = drawing.ColorFromHex("0066CC")

// WriteHourlyChart renders the full-day histogram as a PNG line chart.
func WriteHourlyChart(w io.Writer, h aggregate.Histogram) error {
	xs := make([]float64, aggregate.HoursPerDay)
	ys := make([]float64, aggregate.HoursPerDay)
	ticks := make([]chart.Tick, 0, aggregate.HoursPerDay/3+1)
	for hour, c := range h {
		xs[hour] = float64(hour)
		ys[hour] = float64(c)
		if hour%3 == 0 {
			ticks = append(ticks, chart.Tick{Value: float64(hour), Label: aggregate.HourLabel(hour)})
		}
	}

	// go-chart rejects a zero-height range, so an empty day still gets an axis of 1.
	maxY := float64(h.Max())
	if maxY < 1 {
		maxY = 1
	}

	graph := chart.Chart{
		Title:  ChartTitle,
		Width:  ChartWidth,
		Height: ChartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Hour",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: aggregate.HoursPerDay - 1},
		},
		YAxis: chart.YAxis{
			Name:  "Detections",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    ChartTitle,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// PNGFile rewrites a chart image on every render.
type PNGFile struct {
	path   string
	logger *logger.Logger
}

// NewPNGFile creates a renderer writing to path.
func NewPNGFile(path string, log *logger.Logger) *PNGFile {
	if log == nil {
		log = logger.Discard()
	}
	return &PNGFile{path: path, logger: log}
}

// Render writes the view's histogram. The file is replaced atomically so
// readers never see a partial image.
func (p *PNGFile) Render(view aggregate.View) {
	var buf bytes.Buffer
	if err := WriteHourlyChart(&buf, view.Histogram); err != nil {
		p.logger.Error("Error rendering chart: %v", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		p.logger.Error("Error creating chart directory: %v", err)
		return
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		p.logger.Error("Error writing chart %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, p.path); err != nil {
		p.logger.Error("Error replacing chart %s: %v", p.path, err)
	}
}
