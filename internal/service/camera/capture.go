package camera

import (
	"context"
	"sync"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/service"

	"gocv.io/x/gocv"
)

// DefaultIdleTimeout is how long a pull capture keeps running with no
// stream subscribers.
const DefaultIdleTimeout = 10 * time.Second

// Capture pulls frames from RTSP and HTTP cameras with OpenCV and hands
// them to the Manager as JPEG. UDP cameras push frames on their own.
type Capture struct {
	manager *service.Manager
	cameras repository.CameraRepository
	logger  *logger.Logger
	idle    time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running map[int64]bool
	wg      sync.WaitGroup
}

func NewCapture(manager *service.Manager, cameras repository.CameraRepository, logger *logger.Logger) *Capture {
	ctx, cancel := context.WithCancel(context.Background())
	return &Capture{
		manager: manager,
		cameras: cameras,
		logger:  logger,
		idle:    DefaultIdleTimeout,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[int64]bool),
	}
}

// Ensure starts reading cam unless it is a push camera or already running.
func (c *Capture) Ensure(cam model.Camera) error {
	if cam.StreamType == model.StreamUDP {
		return nil
	}
	if err := c.ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[cam.ID] {
		return nil
	}
	c.running[cam.ID] = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(cam)

		// release stream clients in the same step that allows a restart
		c.mu.Lock()
		delete(c.running, cam.ID)
		c.manager.EndStream(cam.StreamKey())
		c.mu.Unlock()
	}()
	return nil
}

// Stop ends every capture and waits for the readers to exit.
func (c *Capture) Stop() {
	c.cancel()
	c.wg.Wait()
}

// run reads cam until a read fails, it idles out or the capture is stopped.
func (c *Capture) run(cam model.Camera) {
	key := cam.StreamKey()
	c.logger.Info("Attempting to connect to camera stream: %s", cam.RedactedSourceURL())

	vc, err := gocv.OpenVideoCapture(cam.SourceURL())
	if err != nil {
		c.logger.Error("Failed to open camera stream %s: %v", cam.RedactedSourceURL(), err)
		return
	}
	defer vc.Close()
	if !vc.IsOpened() {
		c.logger.Error("Failed to open camera stream: %s", cam.RedactedSourceURL())
		return
	}

	c.logger.Info("Successfully connected to camera %d", cam.ID)
	if err := c.cameras.TouchConnected(cam.ID, time.Now()); err != nil {
		c.logger.Warning("Failed to record connection of camera %d: %v", cam.ID, err)
	}

	mat := gocv.NewMat()
	defer mat.Close()

	var idleSince time.Time
	for c.ctx.Err() == nil {
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			c.logger.Error("Failed to read frame from camera %d", cam.ID)
			return
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			c.logger.Error("Failed to encode frame from camera %d: %v", cam.ID, err)
			return
		}
		frame := append([]byte(nil), buf.GetBytes()...)
		buf.Close()

		c.manager.HandleCameraImage(frame, key)

		if c.manager.SubscriberCount(key) > 0 {
			idleSince = time.Time{}
			continue
		}
		if idleSince.IsZero() {
			idleSince = time.Now()
		} else if time.Since(idleSince) > c.idle {
			break
		}
	}

	c.logger.Info("Camera %d stream ended", cam.ID)
}
