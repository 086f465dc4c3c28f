package feed

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/model"
)

var (
	// ErrNoElement is returned when the viewer has nowhere to show the stream.
	ErrNoElement = errors.New("feed: stream element not found")
	// ErrNoSurface is returned when the viewer has nowhere to show notices.
	ErrNoSurface = errors.New("feed: notice surface not found")
)

// DefaultStreamTemplate is the stream path used when none is configured.
const DefaultStreamTemplate = "/video_feed/{id}"

// CameraLister discovers active cameras.
type CameraLister interface {
	ActiveCameras(ctx context.Context) ([]model.CameraRef, error)
}

// Options configures a Viewer.
type Options struct {
	// BaseURL is prefixed to the expanded stream template.
	BaseURL string
	// StreamTemplate is a path containing "{id}".
	StreamTemplate string
	// RetryDelay re-assigns the source once after each stream failure. Zero disables it.
	RetryDelay time.Duration
	Logger     *logger.Logger
}

// Viewer binds a camera stream to an element and reports failures on a surface.
type Viewer struct {
	el      Element
	surface Surface
	lister  CameraLister
	opts    Options
	logger  *logger.Logger

	mu     sync.Mutex
	camera model.CameraID
	src    string
	retry  *time.Timer
}

// NewViewer wires a viewer to its element and surface. A missing element or
// surface fails immediately instead of on first use.
func NewViewer(el Element, surface Surface, lister CameraLister, opts Options) (*Viewer, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if el == nil {
		log.Error("Feed viewer: %v", ErrNoElement)
		if surface != nil {
			surface.ShowNotice(Notice{Kind: NoticeError, Message: ErrNoElement.Error()})
		}
		return nil, ErrNoElement
	}
	if surface == nil {
		log.Error("Feed viewer: %v", ErrNoSurface)
		return nil, ErrNoSurface
	}
	if opts.StreamTemplate == "" {
		opts.StreamTemplate = DefaultStreamTemplate
	}

	v := &Viewer{el: el, surface: surface, lister: lister, opts: opts, logger: log}
	el.OnError(v.handleStreamError)
	return v, nil
}

// StreamURL returns the source URL for a camera.
func (v *Viewer) StreamURL(id model.CameraID) string {
	path := strings.ReplaceAll(v.opts.StreamTemplate, "{id}", url.PathEscape(string(id)))
	if v.opts.BaseURL == "" {
		return path
	}
	return strings.TrimRight(v.opts.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// InitWithKnownCamera starts streaming the given camera.
func (v *Viewer) InitWithKnownCamera(id model.CameraID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopRetryLocked()
	v.camera = id
	v.src = v.StreamURL(id)

	v.logger.Info("Feed viewer: streaming camera %s from %s", id, v.src)
	v.surface.ClearNotice()
	v.bindLocked(v.src)
}

// InitByDiscovery streams the first active camera. With no cameras it shows
// a notice and opens no stream; a failed lookup shows an error notice.
func (v *Viewer) InitByDiscovery(ctx context.Context) {
	if v.lister == nil {
		v.logger.Error("Feed viewer: no camera lister configured")
		v.surface.ShowNotice(newNotice(NoticeError))
		return
	}

	cams, err := v.lister.ActiveCameras(ctx)
	if err != nil {
		v.logger.Error("Feed viewer: active camera lookup failed: %v", err)
		v.surface.ShowNotice(newNotice(NoticeError))
		return
	}
	if len(cams) == 0 {
		v.logger.Info("Feed viewer: no active camera")
		v.surface.ShowNotice(newNotice(NoticeNoCamera))
		return
	}
	v.InitWithKnownCamera(cams[0].ID)
}

// SwitchCamera replaces the current stream.
func (v *Viewer) SwitchCamera(id model.CameraID) {
	v.InitWithKnownCamera(id)
}

// Stop clears the source, closing the stream, and cancels any pending reconnect.
func (v *Viewer) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopRetryLocked()
	v.camera = ""
	v.src = ""
	v.bindLocked("")
}

// Camera returns the camera being shown, "" when stopped.
func (v *Viewer) Camera() model.CameraID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

// handleStreamError runs on the element's loader goroutine. The element is
// cleared under v.mu so a concurrent SwitchCamera cannot lose its source.
func (v *Viewer) handleStreamError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var se *StreamError
	if errors.As(err, &se) && se.Source != v.src {
		return
	}
	if v.src == "" {
		return
	}
	src := v.src
	v.stopRetryLocked()
	if v.opts.RetryDelay > 0 {
		v.retry = time.AfterFunc(v.opts.RetryDelay, func() { v.reconnect(src) })
	}

	v.logger.Error("Feed viewer: %v", err)
	v.bindLocked("")
	v.surface.ShowNotice(newNotice(NoticeStreamError))
}

func (v *Viewer) reconnect(src string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.src != src {
		return
	}
	v.retry = nil

	v.logger.Info("Feed viewer: reconnecting to %s", src)
	v.surface.ClearNotice()
	v.bindLocked(src)
}

// bindLocked assigns src to the element and tells the surface about it.
// The element must not call its error handler synchronously.
func (v *Viewer) bindLocked(src string) {
	v.el.SetSource(src)
	if r, ok := v.surface.(SourceReporter); ok {
		r.ShowSource(src)
	}
}

func (v *Viewer) stopRetryLocked() {
	if v.retry != nil {
		v.retry.Stop()
		v.retry = nil
	}
}
