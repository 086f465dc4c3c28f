package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"platewatch/internal/model"

	"gocv.io/x/gocv"
)

// ConnectionTimeout bounds each HTTP connection check.
const ConnectionTimeout = 5 * time.Second

var (
	ErrStreamOpen  = errors.New("stream could not be opened")
	ErrFrameRead   = errors.New("frame could not be read")
	ErrUnreachable = errors.New("server unreachable")
)

// ConnectionChecker checks whether a camera answers on its configured address.
type ConnectionChecker struct {
	client *http.Client
}

func NewConnectionChecker() *ConnectionChecker {
	return &ConnectionChecker{client: &http.Client{Timeout: ConnectionTimeout}}
}

// TestConnection returns a human readable success message, or an error
// describing why the camera could not be reached.
func (c *ConnectionChecker) TestConnection(ctx context.Context, cam model.Camera) (string, error) {
	if cam.StreamType == model.StreamRTSP {
		return c.testRTSP(cam)
	}
	return c.testHTTP(ctx, cam)
}

func (c *ConnectionChecker) testRTSP(cam model.Camera) (string, error) {
	vc, err := gocv.OpenVideoCapture(cam.SourceURL())
	if err != nil {
		return "", fmt.Errorf("RTSP connection failed: %w: %v", ErrStreamOpen, err)
	}
	defer vc.Close()
	if !vc.IsOpened() {
		return "", fmt.Errorf("RTSP connection failed: %w", ErrStreamOpen)
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := vc.Read(&mat); !ok || mat.Empty() {
		return "", fmt.Errorf("RTSP connection failed: %w", ErrFrameRead)
	}
	return "RTSP connection succeeded", nil
}

func (c *ConnectionChecker) testHTTP(ctx context.Context, cam model.Camera) (string, error) {
	for _, protocol := range []string{"http", "https"} {
		url := fmt.Sprintf("%s://%s:%d", protocol, cam.IPAddress, cam.Port)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		if cam.Username != "" && cam.Password != "" {
			req.SetBasicAuth(cam.Username, cam.Password)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return fmt.Sprintf("HTTP connection succeeded (protocol: %s)", protocol), nil
		}
	}
	return "", fmt.Errorf("HTTP connection failed: %w", ErrUnreachable)
}
