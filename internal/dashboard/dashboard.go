package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"platewatch/internal/aggregate"
	"platewatch/internal/logger"
	"platewatch/internal/model"
)

// DefaultInterval is the polling period.
const DefaultInterval = 5 * time.Second

var (
	// ErrNoSource is returned when the dashboard has nothing to poll.
	ErrNoSource = errors.New("dashboard: detection source not configured")
	// ErrNoRenderer is returned when the dashboard has nowhere to draw.
	ErrNoRenderer = errors.New("dashboard: renderer not configured")
	// ErrSuperseded is returned by a fetch that a newer fetch replaced.
	ErrSuperseded = errors.New("dashboard: fetch superseded")
)

// Source provides detection snapshots.
type Source interface {
	Plates(ctx context.Context) ([]model.Detection, error)
}

// Renderer draws a view. A view always holds the list and the chart of a
// single snapshot.
type Renderer interface {
	Render(view aggregate.View)
}

// Config controls polling and the derived views.
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	LatestCount  int
	FullDay      bool
	TodayOnly    bool
	Location     *time.Location
}

// Dashboard polls detections and re-renders the recent list and hourly chart.
type Dashboard struct {
	source   Source
	renderer Renderer
	cfg      Config
	logger   *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	seq      uint64
	inflight context.CancelFunc
	last     *aggregate.View
	wg       sync.WaitGroup
}

// New validates dependencies and applies defaults.
func New(source Source, renderer Renderer, cfg Config, log *logger.Logger) (*Dashboard, error) {
	if log == nil {
		log = logger.Discard()
	}
	if source == nil {
		log.Error("%v", ErrNoSource)
		return nil, ErrNoSource
	}
	if renderer == nil {
		log.Error("%v", ErrNoRenderer)
		return nil, ErrNoRenderer
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = cfg.Interval
	}
	if cfg.LatestCount <= 0 {
		cfg.LatestCount = aggregate.DefaultLatest
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dashboard{
		source:   source,
		renderer: renderer,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}, nil
}

// Start fetches immediately and then every Interval until ctx is done. It
// returns once every in-flight fetch has finished.
func (d *Dashboard) Start(ctx context.Context) {
	d.logger.Info("Dashboard polling every %v", d.cfg.Interval)

	d.spawn(ctx)
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			d.logger.Info("Dashboard polling stopped")
			return
		case <-ticker.C:
			d.spawn(ctx)
		}
	}
}

func (d *Dashboard) spawn(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.FetchAndRender(ctx)
	}()
}

// FetchAndRender fetches one snapshot and renders it. It cancels any fetch
// still in flight; only the newest fetch may render. On failure the previous
// render is left as it was.
func (d *Dashboard) FetchAndRender(parent context.Context) error {
	ctx, seq, done := d.begin(parent)
	defer done()

	plates, err := d.source.Plates(ctx)
	if err != nil {
		if ctx.Err() != nil && d.superseded(seq) {
			return ErrSuperseded
		}
		if parent.Err() != nil {
			return parent.Err()
		}
		d.logger.Error("Error fetching plates: %v", err)
		return err
	}

	if !aggregate.IsChronological(plates, d.cfg.Location) {
		d.logger.Warning("Plate snapshot is not in ascending timestamp order; latest list follows array order")
	}

	view := aggregate.BuildView(plates, aggregate.ViewOptions{
		Latest:    d.cfg.LatestCount,
		FullDay:   d.cfg.FullDay,
		TodayOnly: d.cfg.TodayOnly,
		Location:  d.cfg.Location,
		Now:       d.now(),
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return ErrSuperseded
	}
	d.last = &view
	d.renderer.Render(view)
	return nil
}

// Last returns the most recently rendered view.
func (d *Dashboard) Last() (aggregate.View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return aggregate.View{}, false
	}
	return *d.last, true
}

// begin supersedes the in-flight fetch and returns a bounded context for a new one.
func (d *Dashboard) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithTimeout(parent, d.cfg.FetchTimeout)

	d.mu.Lock()
	if d.inflight != nil {
		d.inflight()
	}
	d.seq++
	seq := d.seq
	d.inflight = cancel
	d.mu.Unlock()

	return ctx, seq, func() {
		cancel()
		d.mu.Lock()
		if d.seq == seq {
			d.inflight = nil
		}
		d.mu.Unlock()
	}
}

func (d *Dashboard) superseded(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq != d.seq
}
