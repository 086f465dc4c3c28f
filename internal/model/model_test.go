package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDetectionTime(t *testing.T) {
	istanbul := time.FixedZone("TRT", 3*3600)
	tests := []struct {
		name     string
		ts       string
		wantHour int
		wantErr  bool
	}{
		{"utc zulu", "2024-01-01T09:15:00Z", 12, false},
		{"offset", "2024-01-01T09:15:00+03:00", 9, false},
		{"naive python isoformat", "2024-01-01T09:15:00.123456", 9, false},
		{"naive space", "2024-01-01 21:00:00", 21, false},
		{"garbage", "yesterday", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detection{Timestamp: tt.ts}.Time(istanbul)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Time() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.Hour() != tt.wantHour {
				t.Errorf("Hour() = %d, expected %d", got.Hour(), tt.wantHour)
			}
		})
	}
}

func TestCameraRef_UnmarshalID(t *testing.T) {
	var refs []CameraRef
	if err := json.Unmarshal([]byte(`[{"id":3},{"id":"gate-1"}]`), &refs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if refs[0].ID != "3" || refs[1].ID != "gate-1" {
		t.Errorf("unexpected ids: %q %q", refs[0].ID, refs[1].ID)
	}

	var bad CameraRef
	if err := json.Unmarshal([]byte(`{"id":true}`), &bad); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestPlateRecord_Detection(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	d := PlateRecord{ID: 7, PlateNumber: "06XYZ99", Confidence: 93.5, Timestamp: ts, IsAuthorized: true}.Detection()

	if d.IsAuthorized == nil || !*d.IsAuthorized {
		t.Error("expected is_authorized to be set")
	}
	parsed, err := d.Time(time.UTC)
	if err != nil || !parsed.Equal(ts) {
		t.Errorf("timestamp round trip: %v %v", parsed, err)
	}
}

func TestCamera_SourceURL(t *testing.T) {
	c := Camera{IPAddress: "10.0.0.5", Port: 554, StreamType: StreamRTSP, RTSPPath: "/live", Username: "u", Password: "p"}
	if got := c.SourceURL(); got != "rtsp://u:p@10.0.0.5:554/live" {
		t.Errorf("SourceURL() = %s", got)
	}
	if got := c.RedactedSourceURL(); got != "rtsp://***@10.0.0.5:554/live" {
		t.Errorf("RedactedSourceURL() = %s", got)
	}
	c.StreamType = StreamHTTP
	if got := c.SourceURL(); got != "http://10.0.0.5:554/video_feed" {
		t.Errorf("SourceURL() = %s", got)
	}
}

func TestCamera_StreamKeyIsID(t *testing.T) {
	cam := Camera{ID: 12, Name: "gate"}
	before := cam.StreamKey()
	cam.Name = "front gate"
	if cam.StreamKey() != before || before != "12" {
		t.Errorf("StreamKey() = %q then %q, expected 12 both times", before, cam.StreamKey())
	}
}

func TestUserAndSession(t *testing.T) {
	if !(User{Role: RoleAdmin}).IsAdmin() || (User{Role: RoleOperator}).IsAdmin() {
		t.Error("IsAdmin() should follow the role")
	}
	if ValidRole("root") || !ValidRole(RoleOperator) {
		t.Error("ValidRole() accepted an unknown role or rejected a known one")
	}
	if !strings.Contains(mustJSON(t, User{Username: "a", PasswordHash: "hash"}), `"username":"a"`) ||
		strings.Contains(mustJSON(t, User{PasswordHash: "hash"}), "hash") {
		t.Error("password hash must not be serialized")
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	if !s.Expired(now) || s.Expired(now.Add(-time.Second)) {
		t.Error("a session expires at ExpiresAt")
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return string(b)
}
