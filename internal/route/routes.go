package route

import (
	"net/http"
	"os"
	"path/filepath"

	"platewatch/internal/config"
	"platewatch/internal/handler"
	"platewatch/internal/logger"
	"platewatch/internal/middleware"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/service"
	"platewatch/internal/service/auth"

	"github.com/gorilla/mux"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config     *config.Config
	Logger     *logger.Logger
	Manager    *service.Manager
	Plates     repository.PlateRepository
	Cameras    repository.CameraRepository
	Authorized repository.AuthorizedPlateRepository
	History    repository.AuthorizationHistoryRepository
	Users      repository.UserRepository
	Auth       *auth.Service
	Starter    handler.FrameStarter
	Tester     handler.ConnectionTester
}

func adminOnly(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequireRole(h, model.RoleAdmin)
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers API endpoints, streams, auth and static files, and
// wraps the router with the request-id and authentication middleware.
func SetupRoutes(d Dependencies) http.Handler {
	r := mux.NewRouter()
	log := d.Logger

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Plates
	r.HandleFunc("/api/plates", handler.GetPlatesHandler(d.Plates, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/plates", handler.PostPlateHandler(d.Config, d.Manager, d.Plates, d.Authorized, log)).Methods(http.MethodPost)
	r.HandleFunc("/api/plates/chart.png", handler.PlatesChartHandler(d.Plates, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/view", handler.ViewWebsocketHandler(d.Manager, log))

	// Cameras
	r.HandleFunc("/api/active_cameras", handler.ActiveCamerasHandler(d.Cameras, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras", adminOnly(handler.ListCamerasHandler(d.Cameras, log))).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras", adminOnly(handler.CreateCameraHandler(d.Cameras, log))).Methods(http.MethodPost)
	r.HandleFunc("/api/cameras/{id:[0-9]+}", adminOnly(handler.GetCameraHandler(d.Cameras, log))).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras/{id:[0-9]+}", adminOnly(handler.UpdateCameraHandler(d.Cameras, log))).Methods(http.MethodPut)
	r.HandleFunc("/api/cameras/{id:[0-9]+}", adminOnly(handler.DeleteCameraHandler(d.Cameras, d.Manager, log))).Methods(http.MethodDelete)
	r.HandleFunc("/api/cameras/{id:[0-9]+}/toggle-status", adminOnly(handler.ToggleCameraHandler(d.Cameras, log))).Methods(http.MethodPost)
	r.HandleFunc("/api/cameras/{id:[0-9]+}/test-connection", adminOnly(handler.TestCameraConnectionHandler(d.Cameras, d.Tester, log))).Methods(http.MethodPost)

	// Streams
	stream := handler.StreamHandler(d.Cameras, d.Manager, d.Starter, d.Config.StreamTimeout(), log)
	r.HandleFunc("/video_feed/{id:[0-9]+}", stream).Methods(http.MethodGet)
	r.HandleFunc("/api/stream/{id:[0-9]+}", stream).Methods(http.MethodGet)
	r.HandleFunc("/api/stream/{id:[0-9]+}/snapshot", handler.SnapshotHandler(d.Cameras, d.Manager, d.Starter, log)).Methods(http.MethodGet)

	// Authorized plates and their audit trail
	r.HandleFunc("/api/authorized-plates", handler.ListAuthorizedPlatesHandler(d.Authorized, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/authorized-plates", handler.CreateAuthorizedPlateHandler(d.Authorized, d.History, log)).Methods(http.MethodPost)
	r.HandleFunc("/api/authorized-plates/{id:[0-9]+}", handler.GetAuthorizedPlateHandler(d.Authorized, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/authorized-plates/{id:[0-9]+}", handler.UpdateAuthorizedPlateHandler(d.Authorized, d.History, log)).Methods(http.MethodPut)
	r.HandleFunc("/api/authorized-plates/{id:[0-9]+}", handler.DeleteAuthorizedPlateHandler(d.Authorized, d.History, log)).Methods(http.MethodDelete)
	r.HandleFunc("/api/plate-history", handler.PlateHistoryHandler(d.Plates, d.History, log)).Methods(http.MethodGet)

	// Users
	r.HandleFunc("/api/users", adminOnly(handler.ListUsersHandler(d.Users, log))).Methods(http.MethodGet)
	r.HandleFunc("/api/users", adminOnly(handler.CreateUserHandler(d.Users, log))).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}", adminOnly(handler.GetUserHandler(d.Users, log))).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id:[0-9]+}", adminOnly(handler.UpdateUserHandler(d.Users, d.Auth, log))).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{id:[0-9]+}", adminOnly(handler.DeleteUserHandler(d.Users, log))).Methods(http.MethodDelete)
	r.HandleFunc("/api/users/{id:[0-9]+}/toggle-status", adminOnly(handler.ToggleUserHandler(d.Users, d.Auth, log))).Methods(http.MethodPost)

	// Log endpoints
	for _, level := range handler.LogLevels() {
		r.HandleFunc("/logs/"+level, handler.ShowLogsHandler(log, level)).Methods(http.MethodGet)
		r.HandleFunc("/logs/"+level+"/clear", adminOnly(handler.ClearLogsHandler(log, level)))
	}

	// Auth endpoints
	r.HandleFunc("/auth/login", handler.LoginHandler(d.Auth, log)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler(d.Auth, log))

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	r.PathPrefix("/").HandlerFunc(dynamicHTMLHandler)

	// Apply middleware
	return middleware.RequestIDMiddleware(middleware.AuthMiddleware(d.Auth, log)(r))
}
