package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Stream types a camera can be configured with.
const (
	StreamHTTP = "http"
	StreamRTSP = "rtsp"
	StreamUDP  = "udp"
)

// CameraID identifies a camera. On the wire it may be a string or a number.
type CameraID string

// UnmarshalJSON accepts both `"3"` and `3`.
func (id *CameraID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CameraID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("camera id must be a string or number: %w", err)
	}
	*id = CameraID(n.String())
	return nil
}

// CameraRef is the minimal descriptor returned by /api/active_cameras.
type CameraRef struct {
	ID   CameraID `json:"id"`
	Name string   `json:"name,omitempty"`
}

// Camera is a configured camera source.
type Camera struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	IPAddress     string     `json:"ip_address"`
	Port          int        `json:"port"`
	Username      string     `json:"username,omitempty"`
	Password      string     `json:"-"`
	StreamType    string     `json:"stream_type"`
	RTSPPath      string     `json:"rtsp_path"`
	IsActive      bool       `json:"is_active"`
	LastConnected *time.Time `json:"last_connected,omitempty"`
}

// Ref returns the descriptor used by stream clients.
func (c Camera) Ref() CameraRef {
	return CameraRef{ID: CameraID(fmt.Sprint(c.ID)), Name: c.Name}
}

// StreamKey identifies the camera's frames in the stream manager. It is the
// id, so renaming a camera keeps its stream.
func (c Camera) StreamKey() string {
	return strconv.FormatInt(c.ID, 10)
}

// credentials returns "user:pass@" when both are set.
func (c Camera) credentials() string {
	if c.Username == "" || c.Password == "" {
		return ""
	}
	return c.Username + ":" + c.Password + "@"
}

// SourceURL builds the URL a pull camera is read from.
func (c Camera) SourceURL() string {
	if c.StreamType == StreamRTSP {
		return fmt.Sprintf("rtsp://%s%s:%d%s", c.credentials(), c.IPAddress, c.Port, c.RTSPPath)
	}
	return fmt.Sprintf("http://%s:%d/video_feed", c.IPAddress, c.Port)
}

// RedactedSourceURL is SourceURL with credentials masked, for logs.
func (c Camera) RedactedSourceURL() string {
	if c.credentials() == "" || c.StreamType != StreamRTSP {
		return c.SourceURL()
	}
	return fmt.Sprintf("rtsp://***@%s:%d%s", c.IPAddress, c.Port, c.RTSPPath)
}
