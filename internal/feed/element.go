package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrStreamEnded is reported when the server closes a live stream.
var ErrStreamEnded = errors.New("stream ended")

// StreamError is a load failure for a specific source.
type StreamError struct {
	Source string
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Source, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Element is a stream display target. Assigning a source starts loading it;
// assigning "" stops it. Load failures are delivered to the OnError handler.
type Element interface {
	SetSource(src string)
	Source() string
	OnError(fn func(error))
}

// HTTPElement holds a stream URL open the way an image tag holds an MJPEG
// connection: the body is drained, never decoded.
type HTTPElement struct {
	client *http.Client

	mu      sync.Mutex
	src     string
	cancel  context.CancelFunc
	onError func(error)
	bytes   int64
}

// NewHTTPElement creates an element using hc, or http.DefaultClient if nil.
// hc should not carry a Timeout, since streams are long-lived.
func NewHTTPElement(hc *http.Client) *HTTPElement {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPElement{client: hc}
}

// SetSource cancels the current connection and, for a non-empty src, opens a new one.
func (e *HTTPElement) SetSource(src string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.src = src
	e.bytes = 0
	if src == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.load(ctx, src)
}

// Source returns the assigned source, "" when stopped.
func (e *HTTPElement) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// OnError registers the load-error handler.
func (e *HTTPElement) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// BytesReceived reports how much of the current stream has been read.
func (e *HTTPElement) BytesReceived() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bytes
}

func (e *HTTPElement) load(ctx context.Context, src string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		e.fail(ctx, src, err)
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.fail(ctx, src, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.fail(ctx, src, fmt.Errorf("status %d", resp.StatusCode))
		return
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			e.mu.Lock()
			if e.src == src {
				e.bytes += int64(n)
			}
			e.mu.Unlock()
		}
		if err == io.EOF {
			e.fail(ctx, src, ErrStreamEnded)
			return
		}
		if err != nil {
			e.fail(ctx, src, err)
			return
		}
	}
}

// fail reports err unless the load was superseded by a newer SetSource.
func (e *HTTPElement) fail(ctx context.Context, src string, err error) {
	if ctx.Err() != nil {
		return
	}
	e.mu.Lock()
	fn := e.onError
	current := e.src == src
	e.mu.Unlock()
	if fn != nil && current {
		fn(&StreamError{Source: src, Err: err})
	}
}
