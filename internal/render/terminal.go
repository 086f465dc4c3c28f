package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"platewatch/internal/aggregate"
	"platewatch/internal/feed"
)

const statusHeight = 3

// Terminal draws the dashboard with termui: the latest plates on the left,
// the hourly chart on the right and a status line at the bottom.
type Terminal struct {
	mu      sync.Mutex
	list    *widgets.List
	plot    *widgets.Plot
	status  *widgets.Paragraph
	notice  string
	source  string
	summary string
	started bool
}

// NewTerminal builds the widgets. Nothing is drawn until Run is called.
func NewTerminal() *Terminal {
	list := widgets.NewList()
	list.Title = "Latest plates"
	list.TextStyle = ui.NewStyle(ui.ColorWhite)
	list.WrapText = false
	list.Rows = []string{"waiting for data..."}

	plot := widgets.NewPlot()
	plot.Title = ChartTitle
	plot.Marker = widgets.MarkerBraille
	plot.PlotType = widgets.LineChart
	plot.AxesColor = ui.ColorWhite
	plot.LineColors = []ui.Color{ui.ColorBlue}
	plot.HorizontalScale = 2

	status := widgets.NewParagraph()
	status.Title = "Status"

	t := &Terminal{list: list, plot: plot, status: status}
	t.setPlot(aggregate.Histogram{})
	return t
}

// Render implements dashboard.Renderer.
func (t *Terminal) Render(view aggregate.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		rows = append(rows, FormatRow(e))
	}
	if len(rows) == 0 {
		rows = append(rows, "no detections")
	}
	t.list.Rows = rows
	t.setPlot(view.Histogram)
	t.summary = fmt.Sprintf("%d detections, updated %s", view.Total, view.Generated.Format("15:04:05"))
	t.updateStatus()
	t.draw()
}

// ShowNotice implements feed.Surface.
func (t *Terminal) ShowNotice(n feed.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notice = n.Message
	t.updateStatus()
	t.draw()
}

// ClearNotice implements feed.Surface.
func (t *Terminal) ClearNotice() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notice = ""
	t.updateStatus()
	t.draw()
}

// ShowSource implements feed.SourceReporter.
func (t *Terminal) ShowSource(src string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = src
	t.updateStatus()
	t.draw()
}

// Rows returns the list rows currently shown.
func (t *Terminal) Rows() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.list.Rows...)
}

// Status returns the status line currently shown.
func (t *Terminal) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status.Text
}

// Run takes over the terminal until ctx is done or the user presses q.
func (t *Terminal) Run(ctx context.Context, quit func()) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer ui.Close()

	t.mu.Lock()
	t.started = true
	t.layout(ui.TerminalDimensions())
	t.draw()
	t.mu.Unlock()

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			t.stop()
			return nil
		case e := <-events:
			switch {
			case e.ID == "q" || e.ID == "<C-c>":
				t.stop()
				quit()
				return nil
			case e.Type == ui.ResizeEvent:
				resize := e.Payload.(ui.Resize)
				t.mu.Lock()
				t.layout(resize.Width, resize.Height)
				ui.Clear()
				t.draw()
				t.mu.Unlock()
			}
		}
	}
}

func (t *Terminal) stop() {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
}

// FormatRow renders one list entry.
func FormatRow(e aggregate.Entry) string {
	row := fmt.Sprintf("%-10s %5s%%  %s", e.PlateNumber, e.Confidence, e.Timestamp)
	if e.Badge != "" {
		row += "  [" + e.Badge + "]"
	}
	return row
}

func (t *Terminal) setPlot(h aggregate.Histogram) {
	values := make([]float64, aggregate.HoursPerDay)
	labels := make([]string, aggregate.HoursPerDay)
	for hour, c := range h {
		values[hour] = float64(c)
		labels[hour] = fmt.Sprint(hour)
	}
	t.plot.Data = [][]float64{values}
	t.plot.DataLabels = labels
	t.plot.MaxVal = float64(h.Max())
	if t.plot.MaxVal < 1 {
		t.plot.MaxVal = 1
	}
}

func (t *Terminal) updateStatus() {
	parts := make([]string, 0, 3)
	if t.notice != "" {
		parts = append(parts, t.notice)
	}
	if t.source != "" {
		parts = append(parts, "stream: "+t.source)
	}
	if t.summary != "" {
		parts = append(parts, t.summary)
	}
	t.status.Text = strings.Join(parts, " | ")
}

func (t *Terminal) layout(width, height int) {
	top := height - statusHeight
	if top < 1 {
		top = 1
	}
	t.list.SetRect(0, 0, width/2, top)
	t.plot.SetRect(width/2, 0, width, top)
	t.status.SetRect(0, top, width, height)
}

// draw must be called with t.mu held.
func (t *Terminal) draw() {
	if !t.started {
		return
	}
	ui.Render(t.list, t.plot, t.status)
}
