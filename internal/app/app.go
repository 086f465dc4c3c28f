package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"platewatch/internal/config"
	"platewatch/internal/handler"
	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/repository/sqlite"
	"platewatch/internal/route"
	"platewatch/internal/service"
	"platewatch/internal/service/auth"
	"platewatch/internal/service/camera"
	"platewatch/internal/service/websocket"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// sessionPurgeInterval is how often expired sessions are deleted.
const sessionPurgeInterval = time.Hour

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	plates     repository.PlateRepository
	cameras    repository.CameraRepository
	authorized repository.AuthorizedPlateRepository
	history    repository.AuthorizationHistoryRepository
	users      repository.UserRepository
	auth       *auth.Service
	hubService *websocket.HubService
	manager    *service.Manager
	capture    *camera.Capture
	checker    *camera.ConnectionChecker
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	cameras := sqlite.NewCameraRepository(db)
	users := sqlite.NewUserRepository(db)
	hub := websocket.NewHubService(log)
	mng := service.NewManager(hub, log)

	a := &App{
		config:     cfg,
		logger:     log,
		db:         db,
		plates:     sqlite.NewPlateRepository(db),
		cameras:    cameras,
		authorized: sqlite.NewAuthorizedPlateRepository(db),
		history:    sqlite.NewHistoryRepository(db),
		users:      users,
		auth:       auth.NewService(users, sqlite.NewSessionRepository(db), cfg.SessionTTL(), log),
		hubService: hub,
		manager:    mng,
		capture:    camera.NewCapture(mng, cameras, log),
		checker:    camera.NewConnectionChecker(),
	}

	if err := a.seedPushCameras(); err != nil {
		db.Close()
		return nil, err
	}
	if err := a.auth.Bootstrap(cfg.AdminUsername, cfg.Password); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// seedPushCameras makes every camera named in CAMERA_NAMES visible to
// clients as an active UDP camera.
func (a *App) seedPushCameras() error {
	for ip, name := range a.config.CameraNames {
		existing, err := a.cameras.GetByName(name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		cam := &model.Camera{
			Name:       name,
			IPAddress:  ip,
			Port:       a.config.CamerasPort,
			StreamType: model.StreamUDP,
			RTSPPath:   "/",
			IsActive:   true,
		}
		if _, err := a.cameras.Insert(cam); err != nil {
			return fmt.Errorf("failed to register camera %s: %w", name, err)
		}
		a.logger.Info("Registered UDP camera %s (%s)", name, ip)
	}
	return nil
}

// Run serves HTTP and the UDP camera listener until ctx is done.
func (a *App) Run(ctx context.Context) error {
	// Start background services
	go a.hubService.Run(ctx)
	go handler.UDPCameraHandler(ctx, a.manager, a.cameras, a.logger, a.config)
	go a.purgeSessions(ctx)

	// Setup routes
	router := route.SetupRoutes(route.Dependencies{
		Config:     a.config,
		Logger:     a.logger,
		Manager:    a.manager,
		Plates:     a.plates,
		Cameras:    a.cameras,
		Authorized: a.authorized,
		History:    a.history,
		Users:      a.users,
		Auth:       a.auth,
		Starter:    a.capture,
		Tester:     a.checker,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("HTTP shutdown: %v", err)
		}
	}()

	fmt.Printf("🚗 Plate Recognition Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📡 UDP cameras: port %d\n", a.config.CamerasPort)
	fmt.Printf("🗄️  Database: %s\n", a.config.DatabasePath)

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	a.auth.PurgeExpired()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.auth.PurgeExpired()
		}
	}
}

// Close stops camera readers and closes the database.
func (a *App) Close() error {
	a.capture.Stop()
	return a.db.Close()
}
