package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"platewatch/internal/client"
	"platewatch/internal/config"
	"platewatch/internal/logger"
	"platewatch/internal/middleware"
	"platewatch/internal/model"
	"platewatch/internal/repository/sqlite"
	"platewatch/internal/service"
	"platewatch/internal/service/auth"
	"platewatch/internal/service/websocket"
)

type noopStarter struct{}

func (noopStarter) Ensure(model.Camera) error { return nil }

type noopTester struct{}

func (noopTester) TestConnection(context.Context, model.Camera) (string, error) { return "ok", nil }

type testRouter struct {
	handler  http.Handler
	admin    string
	operator string
}

func setupRouter(t *testing.T) *testRouter {
	t.Helper()

	db, err := sqlite.New(t.TempDir() + "/routes.db")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.Discard()
	users := sqlite.NewUserRepository(db)
	sessions := auth.NewService(users, sqlite.NewSessionRepository(db), time.Hour, log)
	if err := sessions.Bootstrap("admin", "pw"); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	hash, _ := auth.HashPassword("ops-pw")
	users.Insert(&model.User{Username: "ops", Email: "ops@example.com", PasswordHash: hash, Role: model.RoleOperator, IsActive: true})

	admin, _, err := sessions.Login("admin", "pw")
	if err != nil {
		t.Fatalf("admin Login failed: %v", err)
	}
	operator, _, err := sessions.Login("ops", "ops-pw")
	if err != nil {
		t.Fatalf("operator Login failed: %v", err)
	}

	h := SetupRoutes(Dependencies{
		Config:     &config.Config{APIToken: "tok", StreamTimeoutMS: 100},
		Logger:     log,
		Manager:    service.NewManager(websocket.NewHubService(log), log),
		Plates:     sqlite.NewPlateRepository(db),
		Cameras:    sqlite.NewCameraRepository(db),
		Authorized: sqlite.NewAuthorizedPlateRepository(db),
		History:    sqlite.NewHistoryRepository(db),
		Users:      users,
		Auth:       sessions,
		Starter:    noopStarter{},
		Tester:     noopTester{},
	})
	return &testRouter{handler: h, admin: admin.Token, operator: operator.Token}
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t)

	const (
		none = iota
		operator
		admin
		forged
	)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		token      bool
		session    int
		wantStatus int
	}{
		{"plates without session", http.MethodGet, "/api/plates", "", false, none, http.StatusUnauthorized},
		{"plates with forged cookie", http.MethodGet, "/api/plates", "", false, forged, http.StatusUnauthorized},
		{"plates with session", http.MethodGet, "/api/plates", "", false, operator, http.StatusOK},
		{"post plate with token only", http.MethodPost, "/api/plates", `{"plate_number":"A1"}`, true, none, http.StatusOK},
		{"post plate without token", http.MethodPost, "/api/plates", `{"plate_number":"A1"}`, false, none, http.StatusUnauthorized},
		{"active cameras for operators", http.MethodGet, "/api/active_cameras", "", false, operator, http.StatusOK},
		{"camera list needs admin", http.MethodGet, "/api/cameras", "", false, operator, http.StatusForbidden},
		{"camera list for admin", http.MethodGet, "/api/cameras", "", false, admin, http.StatusOK},
		{"unknown camera", http.MethodGet, "/api/cameras/9", "", false, admin, http.StatusNotFound},
		{"unknown stream", http.MethodGet, "/video_feed/9", "", false, operator, http.StatusNotFound},
		{"chart", http.MethodGet, "/api/plates/chart.png", "", false, operator, http.StatusOK},
		{"authorized plates", http.MethodGet, "/api/authorized-plates", "", false, operator, http.StatusOK},
		{"sensitivity needs admin", http.MethodPost, "/api/authorized-plates", `{"plate_number":"X1","sensitivity":50}`, false, operator, http.StatusForbidden},
		{"plate history", http.MethodGet, "/api/plate-history", "", false, operator, http.StatusOK},
		{"users need admin", http.MethodGet, "/api/users", "", false, operator, http.StatusForbidden},
		{"users for admin", http.MethodGet, "/api/users", "", false, admin, http.StatusOK},
		{"clearing logs needs admin", http.MethodPost, "/logs/info/clear", "", false, operator, http.StatusForbidden},
		{"login wrong password", http.MethodPost, "/auth/login", "username=admin&password=x", false, none, http.StatusUnauthorized},
		{"login", http.MethodPost, "/auth/login", "username=admin&password=pw", false, none, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if strings.HasPrefix(tt.body, "{") {
				req.Header.Set("Content-Type", "application/json")
			} else if tt.body != "" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			if tt.token {
				req.Header.Set("X-API-Token", "tok")
			}
			switch tt.session {
			case operator:
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: router.operator})
			case admin:
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: router.admin})
			case forged:
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "true"})
			}
			rec := httptest.NewRecorder()
			router.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, expected %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID should be set")
			}
		})
	}
}

func TestLoginThenLogout(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("username=ops&password=ops-pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.handler.ServeHTTP(rec, req)

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" || session.Value == "true" || !session.HttpOnly {
		t.Fatalf("expected a random HttpOnly session cookie, got %+v", session)
	}

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/plates", nil)
		req.AddCookie(session)
		rec := httptest.NewRecorder()
		router.handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := get(); code != http.StatusOK {
		t.Fatalf("fresh session status = %d, expected 200", code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(session)
	router.handler.ServeHTTP(httptest.NewRecorder(), req)

	if code := get(); code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, expected 401", code)
	}
}

func TestDashboardClientLogsIn(t *testing.T) {
	router := setupRouter(t)
	srv := httptest.NewServer(router.handler)
	defer srv.Close()

	if client.SessionCookie != middleware.SessionCookie {
		t.Fatalf("client cookie %q, server cookie %q", client.SessionCookie, middleware.SessionCookie)
	}

	api, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := api.Plates(context.Background()); !client.IsNetwork(err) {
		t.Errorf("plates before login should be rejected, got %v", err)
	}

	if _, err := api.Login(context.Background(), "ops", "ops-pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := api.Plates(context.Background()); err != nil {
		t.Errorf("plates after login: %v", err)
	}
	if _, err := api.ActiveCameras(context.Background()); err != nil {
		t.Errorf("active cameras after login: %v", err)
	}
}
