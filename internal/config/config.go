package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server and dashboard settings. Values come from, in order of
// precedence: environment, the YAML file named by CONFIG_FILE, defaults.
type Config struct {
	Port            int               `yaml:"port"`
	CamerasPort     int               `yaml:"cameras_port"`
	AdminUsername   string            `yaml:"admin_username"` // bootstrap admin, created when no user exists
	Password        string            `yaml:"password"`       // bootstrap admin password
	APIToken        string            `yaml:"api_token"`
	DatabasePath    string            `yaml:"database_path"`
	LogDirectory    string            `yaml:"log_dir"`
	SessionHours    int               `yaml:"session_hours"`
	StreamTimeoutMS int               `yaml:"stream_timeout_ms"`
	CameraNames     map[string]string `yaml:"camera_names"` // source IP -> camera name for UDP push cameras

	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DashboardConfig configures the terminal dashboard client.
type DashboardConfig struct {
	APIURL         string `yaml:"api_url"`
	Session        string `yaml:"session"` // existing session token; empty means log in with Username/Password
	Username       string `yaml:"username"`
	Password       string `yaml:"password"` // empty falls back to the server's Password
	IntervalMS     int    `yaml:"interval_ms"`
	FetchTimeoutMS int    `yaml:"fetch_timeout_ms"`
	Latest         int    `yaml:"latest"`
	FullDay        bool   `yaml:"full_day"`
	TodayOnly      bool   `yaml:"today_only"`
	Camera         string `yaml:"camera"` // empty means discover via /api/active_cameras
	StreamTemplate string `yaml:"stream_template"`
	RetryMS        int    `yaml:"retry_ms"`
	SimulateMS     int    `yaml:"simulate_ms"`
	ChartPNG       string `yaml:"chart_png"`
}

// SessionTTL is how long a login stays valid.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionHours) * time.Hour
}

// StreamTimeout is how long an MJPEG client waits for a frame before the
// stream is ended.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutMS) * time.Millisecond
}

// Interval is the polling period.
func (d DashboardConfig) Interval() time.Duration {
	return time.Duration(d.IntervalMS) * time.Millisecond
}

// FetchTimeout bounds each poll request.
func (d DashboardConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutMS) * time.Millisecond
}

// RetryDelay is the stream reconnect delay; zero disables reconnects.
func (d DashboardConfig) RetryDelay() time.Duration {
	return time.Duration(d.RetryMS) * time.Millisecond
}

// SimulateInterval is the simulated-detection period; zero disables it.
func (d DashboardConfig) SimulateInterval() time.Duration {
	return time.Duration(d.SimulateMS) * time.Millisecond
}

func defaults() *Config {
	return &Config{
		Port:            8080,
		CamerasPort:     9000,
		AdminUsername:   "admin",
		Password:        "admin123",
		APIToken:        "test-token-123",
		DatabasePath:    filepath.Join(".", "data", "plates.db"),
		LogDirectory:    filepath.Join(".", "logs"),
		SessionHours:    24,
		StreamTimeoutMS: 10000,
		CameraNames:     map[string]string{},
		Dashboard: DashboardConfig{
			APIURL:         "http://localhost:8080",
			Username:       "admin",
			IntervalMS:     5000,
			FetchTimeoutMS: 5000,
			Latest:         5,
			FullDay:        true,
			StreamTemplate: "/video_feed/{id}",
			RetryMS:        5000,
		},
	}
}

// Load reads .env (if present), the optional YAML file, then the environment.
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// DashboardPassword is the password the dashboard logs in with.
func (c *Config) DashboardPassword() string {
	if c.Dashboard.Password != "" {
		return c.Dashboard.Password
	}
	return c.Password
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.CamerasPort = getEnvAsInt("CAMERAS_PORT", c.CamerasPort)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.Password = getEnv("PASSWORD", c.Password)
	c.APIToken = getEnv("API_TOKEN", c.APIToken)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.SessionHours = getEnvAsInt("SESSION_HOURS", c.SessionHours)
	c.StreamTimeoutMS = getEnvAsInt("STREAM_TIMEOUT_MS", c.StreamTimeoutMS)
	if v := os.Getenv("CAMERA_NAMES"); v != "" {
		c.CameraNames = parseCameraNames(v)
	}

	d := &c.Dashboard
	d.APIURL = getEnv("DASHBOARD_API_URL", d.APIURL)
	d.Session = getEnv("DASHBOARD_SESSION", d.Session)
	d.Username = getEnv("DASHBOARD_USERNAME", d.Username)
	d.Password = getEnv("DASHBOARD_PASSWORD", d.Password)
	d.IntervalMS = getEnvAsInt("DASHBOARD_INTERVAL_MS", d.IntervalMS)
	d.FetchTimeoutMS = getEnvAsInt("DASHBOARD_FETCH_TIMEOUT_MS", d.FetchTimeoutMS)
	d.Latest = getEnvAsInt("DASHBOARD_LATEST", d.Latest)
	d.FullDay = getEnvAsBool("DASHBOARD_FULL_DAY", d.FullDay)
	d.TodayOnly = getEnvAsBool("DASHBOARD_TODAY_ONLY", d.TodayOnly)
	d.Camera = getEnv("DASHBOARD_CAMERA", d.Camera)
	d.StreamTemplate = getEnv("DASHBOARD_STREAM_TEMPLATE", d.StreamTemplate)
	d.RetryMS = getEnvAsInt("DASHBOARD_RETRY_MS", d.RetryMS)
	d.SimulateMS = getEnvAsInt("DASHBOARD_SIMULATE_MS", d.SimulateMS)
	d.ChartPNG = getEnv("DASHBOARD_CHART_PNG", d.ChartPNG)
}

// parseCameraNames parses "10.0.0.5=gate,10.0.0.6=exit".
func parseCameraNames(v string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[ip] = name
	}
	return names
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
