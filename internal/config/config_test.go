package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dashboard.Interval() != 5*time.Second {
		t.Errorf("Interval() = %v, expected 5s", cfg.Dashboard.Interval())
	}
	if cfg.Dashboard.Latest != 5 {
		t.Errorf("Latest = %d, expected 5", cfg.Dashboard.Latest)
	}
	if cfg.Dashboard.SimulateInterval() != 0 {
		t.Error("simulator should be disabled by default")
	}
	if cfg.StreamTimeout() != 10*time.Second {
		t.Errorf("StreamTimeout() = %v, expected 10s", cfg.StreamTimeout())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("SessionTTL() = %v, expected 24h", cfg.SessionTTL())
	}
	if cfg.Dashboard.Session != "" || cfg.Dashboard.Username != "admin" {
		t.Errorf("dashboard should log in as admin by default, got %+v", cfg.Dashboard)
	}
}

func TestDashboardPassword_FallsBackToServerPassword(t *testing.T) {
	cfg := &Config{Password: "server"}
	if got := cfg.DashboardPassword(); got != "server" {
		t.Errorf("DashboardPassword() = %q, expected server", got)
	}
	cfg.Dashboard.Password = "own"
	if got := cfg.DashboardPassword(); got != "own" {
		t.Errorf("DashboardPassword() = %q, expected own", got)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platewatch.yaml")
	content := `
port: 9090
api_token: from-file
camera_names:
  10.0.0.5: gate
dashboard:
  interval_ms: 2000
  camera: "2"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_TOKEN", "from-env")
	t.Setenv("DASHBOARD_TODAY_ONLY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, expected 9090", cfg.Port)
	}
	if cfg.APIToken != "from-env" {
		t.Errorf("APIToken = %s, expected env to win", cfg.APIToken)
	}
	if cfg.CameraNames["10.0.0.5"] != "gate" {
		t.Errorf("CameraNames = %v", cfg.CameraNames)
	}
	if cfg.Dashboard.IntervalMS != 2000 || cfg.Dashboard.Camera != "2" {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if !cfg.Dashboard.TodayOnly {
		t.Error("TodayOnly should come from env")
	}
	if cfg.Dashboard.StreamTemplate != "/video_feed/{id}" {
		t.Errorf("default StreamTemplate lost: %q", cfg.Dashboard.StreamTemplate)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestParseCameraNames(t *testing.T) {
	names := parseCameraNames("10.0.0.5=gate, 10.0.0.6=exit,broken,=x")
	if len(names) != 2 || names["10.0.0.6"] != "exit" {
		t.Errorf("parseCameraNames() = %v", names)
	}
}
