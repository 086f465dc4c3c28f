package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/service"

	"github.com/disintegration/imaging"
)

// MJPEGBoundary separates parts of the multipart stream.
const MJPEGBoundary = "frame"

// DefaultStreamTimeout is used when StreamHandler is given no timeout.
const DefaultStreamTimeout = 10 * time.Second

// maxSnapshotWidth caps ?width on snapshots.
const maxSnapshotWidth = 4096

// FrameStarter makes sure frames of a camera are flowing into the Manager.
type FrameStarter interface {
	Ensure(cam model.Camera) error
}

// StreamHandler serves a camera as multipart/x-mixed-replace MJPEG until the
// client goes away, the camera's capture ends, or no frame arrives within
// timeout. Unknown and inactive cameras get 404; a camera that produces no
// first frame gets 503.
func StreamHandler(cameras repository.CameraRepository, manager *service.Manager, starter FrameStarter, timeout time.Duration, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadActiveCamera(w, r, cameras, logger)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		if timeout <= 0 {
			timeout = DefaultStreamTimeout
		}
		key := cam.StreamKey()
		sub := manager.Subscribe(key)
		defer manager.Unsubscribe(key, sub)

		if err := starter.Ensure(*cam); err != nil {
			logger.Error("Failed to start camera %d: %v", cam.ID, err)
			http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
			return
		}

		stall := time.NewTimer(timeout)
		defer stall.Stop()

		frame, ok := manager.LatestFrame(key)
		if !ok {
			select {
			case <-r.Context().Done():
				return
			case <-sub.Done:
				logger.Warning("Camera %d stream ended before the first frame", cam.ID)
				http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
				return
			case <-stall.C:
				logger.Warning("No frame from camera %d within %v", cam.ID, timeout)
				http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
				return
			case frame = <-sub.Frames:
			}
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+MJPEGBoundary)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		logger.Info("Stream client connected to camera %d", cam.ID)
		defer logger.Info("Stream client left camera %d", cam.ID)

		for {
			if err := writeMJPEGPart(w, frame); err != nil {
				return
			}
			flusher.Flush()
			resetTimer(stall, timeout)

			select {
			case <-r.Context().Done():
				return
			case <-sub.Done:
				return
			case <-stall.C:
				logger.Warning("Camera %d stalled, closing stream", cam.ID)
				return
			case frame = <-sub.Frames:
			}
		}
	}
}

// resetTimer restarts t for d whether or not it has fired.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// SnapshotHandler returns the latest frame of a camera as JPEG, scaled to
// ?width=N (aspect kept) when given.
func SnapshotHandler(cameras repository.CameraRepository, manager *service.Manager, starter FrameStarter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadActiveCamera(w, r, cameras, logger)
		if !ok {
			return
		}

		frame, ok := manager.LatestFrame(cam.StreamKey())
		if !ok {
			if err := starter.Ensure(*cam); err != nil {
				logger.Error("Failed to start camera %d: %v", cam.ID, err)
			}
			http.Error(w, "No frame available yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")

		width := atoiDefault(r.URL.Query().Get("width"), 0)
		if width == 0 {
			w.Write(frame)
			return
		}
		if width > maxSnapshotWidth {
			width = maxSnapshotWidth
		}

		img, err := imaging.Decode(bytes.NewReader(frame))
		if err != nil {
			logger.Error("Failed to decode frame of camera %d: %v", cam.ID, err)
			http.Error(w, "Corrupt frame", http.StatusInternalServerError)
			return
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		if err := imaging.Encode(w, resized, imaging.JPEG); err != nil {
			logger.Error("Failed to encode snapshot of camera %d: %v", cam.ID, err)
		}
	}
}

func loadActiveCamera(w http.ResponseWriter, r *http.Request, cameras repository.CameraRepository, logger *logger.Logger) (*model.Camera, bool) {
	cam, ok := loadCamera(w, r, cameras, logger)
	if !ok {
		return nil, false
	}
	if !cam.IsActive {
		logger.Warning("Camera %d is not active", cam.ID)
		http.NotFound(w, r)
		return nil, false
	}
	return cam, true
}

func writeMJPEGPart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", MJPEGBoundary, len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
