package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/service"
)

// ConnectionTester checks a camera and describes the outcome.
type ConnectionTester interface {
	TestConnection(ctx context.Context, cam model.Camera) (string, error)
}

// ActiveCamerasHandler lists the cameras a dashboard may stream from.
func ActiveCamerasHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := cameras.GetActive()
		if err != nil {
			internalError(w, r, logger, "Error querying active cameras: %v", err)
			return
		}

		refs := make([]model.CameraRef, 0, len(active))
		for _, cam := range active {
			refs = append(refs, cam.Ref())
		}
		writeJSON(w, logger, http.StatusOK, refs)
	}
}

// ListCamerasHandler returns every configured camera.
func ListCamerasHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := cameras.GetAll()
		if err != nil {
			internalError(w, r, logger, "Error querying cameras: %v", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, all)
	}
}

// CreateCameraHandler adds a camera. name and ip_address are required.
func CreateCameraHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CameraRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.IPAddress == nil || *req.IPAddress == "" {
			writeError(w, logger, http.StatusBadRequest, "Camera name and IP address are required")
			return
		}

		cam := &model.Camera{
			Port:       80,
			StreamType: model.StreamHTTP,
			RTSPPath:   "/",
			IsActive:   true,
		}
		applyCameraRequest(cam, req)
		if !validStreamType(cam.StreamType) {
			writeError(w, logger, http.StatusBadRequest, "Unknown stream type")
			return
		}

		existing, err := cameras.GetByName(cam.Name)
		if err != nil {
			internalError(w, r, logger, "Error looking up camera %s: %v", cam.Name, err)
			return
		}
		if existing != nil {
			writeError(w, logger, http.StatusBadRequest, "A camera with this name already exists")
			return
		}

		if _, err := cameras.Insert(cam); err != nil {
			internalError(w, r, logger, "Error creating camera: %v", err)
			return
		}
		logger.Info("Camera %d (%s) added: %s", cam.ID, cam.Name, cam.RedactedSourceURL())
		writeJSON(w, logger, http.StatusCreated, cam)
	}
}

// GetCameraHandler returns one camera.
func GetCameraHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadCamera(w, r, cameras, logger)
		if !ok {
			return
		}
		writeJSON(w, logger, http.StatusOK, cam)
	}
}

// UpdateCameraHandler applies the fields present in the body. Renaming onto
// another camera's name is rejected.
func UpdateCameraHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadCamera(w, r, cameras, logger)
		if !ok {
			return
		}

		var req dto.CameraRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, logger, http.StatusBadRequest, "Camera name is required")
				return
			}
			other, err := cameras.GetByName(name)
			if err != nil {
				internalError(w, r, logger, "Error looking up camera %s: %v", name, err)
				return
			}
			if other != nil && other.ID != cam.ID {
				writeError(w, logger, http.StatusBadRequest, "A camera with this name already exists")
				return
			}
		}
		applyCameraRequest(cam, req)
		if !validStreamType(cam.StreamType) {
			writeError(w, logger, http.StatusBadRequest, "Unknown stream type")
			return
		}

		if err := cameras.Update(cam); err != nil {
			internalError(w, r, logger, "Error updating camera %d: %v", cam.ID, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cam)
	}
}

// DeleteCameraHandler removes a camera and drops its frames and stream clients.
func DeleteCameraHandler(cameras repository.CameraRepository, manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadCamera(w, r, cameras, logger)
		if !ok {
			return
		}
		if err := cameras.Delete(cam.ID); err != nil {
			internalError(w, r, logger, "Error deleting camera %d: %v", cam.ID, err)
			return
		}
		manager.Forget(cam.StreamKey())
		logger.Info("Camera %d (%s) deleted", cam.ID, cam.Name)
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success"})
	}
}

// ToggleCameraHandler flips a camera between active and inactive.
func ToggleCameraHandler(cameras repository.CameraRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadCamera(w, r, cameras, logger)
		if !ok {
			return
		}
		if err := cameras.SetActive(cam.ID, !cam.IsActive); err != nil {
			internalError(w, r, logger, "Error toggling camera %d: %v", cam.ID, err)
			return
		}
		logger.Info("Camera %d active: %t", cam.ID, !cam.IsActive)
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success"})
	}
}

// TestCameraConnectionHandler checks the camera and records the time of a
// successful connection.
func TestCameraConnectionHandler(cameras repository.CameraRepository, tester ConnectionTester, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, ok := loadCamera(w, r, cameras, logger)
		if !ok {
			return
		}

		msg, err := tester.TestConnection(r.Context(), *cam)
		if err != nil {
			logger.Warning("Connection test of camera %d failed: %v", cam.ID, err)
			writeJSON(w, logger, http.StatusBadRequest, dto.StatusResponse{Status: "error", Message: err.Error()})
			return
		}
		if err := cameras.TouchConnected(cam.ID, time.Now()); err != nil {
			logger.Warning("Failed to record connection of camera %d: %v", cam.ID, err)
		}
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success", Message: msg})
	}
}

// loadCamera resolves {id}; it writes the 404/500 response itself.
func loadCamera(w http.ResponseWriter, r *http.Request, cameras repository.CameraRepository, logger *logger.Logger) (*model.Camera, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	cam, err := cameras.GetByID(id)
	if err != nil {
		internalError(w, r, logger, "Error loading camera %d: %v", id, err)
		return nil, false
	}
	if cam == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return cam, true
}

func applyCameraRequest(cam *model.Camera, req dto.CameraRequest) {
	if req.Name != nil {
		cam.Name = strings.TrimSpace(*req.Name)
	}
	if req.IPAddress != nil {
		cam.IPAddress = *req.IPAddress
	}
	if req.Port != nil {
		cam.Port = *req.Port
	}
	if req.Username != nil {
		cam.Username = *req.Username
	}
	if req.Password != nil {
		cam.Password = *req.Password
	}
	if req.StreamType != nil {
		cam.StreamType = *req.StreamType
	}
	if req.RTSPPath != nil {
		cam.RTSPPath = *req.RTSPPath
	}
}

func validStreamType(t string) bool {
	return t == model.StreamHTTP || t == model.StreamRTSP || t == model.StreamUDP
}
