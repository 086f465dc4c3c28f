package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/middleware"
	"platewatch/internal/model"
	"platewatch/internal/repository"
)

// DefaultSensitivity is the minimum confidence for a new allow-list entry.
const DefaultSensitivity = 80

// ListAuthorizedPlatesHandler returns the allow-list.
func ListAuthorizedPlatesHandler(plates repository.AuthorizedPlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := plates.GetAll()
		if err != nil {
			internalError(w, r, logger, "Error querying authorized plates: %v", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, all)
	}
}

// CreateAuthorizedPlateHandler adds a plate to the allow-list. Only admins
// may set a sensitivity other than the default.
func CreateAuthorizedPlateHandler(plates repository.AuthorizedPlateRepository, history repository.AuthorizationHistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.AuthorizedPlateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.PlateNumber == nil || strings.TrimSpace(*req.PlateNumber) == "" {
			writeError(w, logger, http.StatusBadRequest, "plate_number is required")
			return
		}
		if req.Sensitivity != nil && !isAdmin(r) {
			writeError(w, logger, http.StatusForbidden, "Only admins can change sensitivity")
			return
		}

		p := &model.AuthorizedPlate{IsActive: true, Sensitivity: DefaultSensitivity}
		applyAuthorizedRequest(p, req)

		existing, err := plates.GetByPlateNumber(p.PlateNumber)
		if err != nil {
			internalError(w, r, logger, "Error looking up authorized plate %s: %v", p.PlateNumber, err)
			return
		}
		if existing != nil {
			writeError(w, logger, http.StatusBadRequest, "This plate is already authorized")
			return
		}

		if _, err := plates.Insert(p); err != nil {
			internalError(w, r, logger, "Error creating authorized plate: %v", err)
			return
		}
		logger.Info("Authorized plate %s added", p.PlateNumber)
		recordHistory(r, history, logger, p.PlateNumber, model.HistoryAdded, "Plate added")
		writeJSON(w, logger, http.StatusCreated, p)
	}
}

// GetAuthorizedPlateHandler returns one entry.
func GetAuthorizedPlateHandler(plates repository.AuthorizedPlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorizedPlate(w, r, plates, logger)
		if !ok {
			return
		}
		writeJSON(w, logger, http.StatusOK, p)
	}
}

// UpdateAuthorizedPlateHandler applies the fields present in the body and
// records each status, number and sensitivity change in the audit trail.
// Renaming onto another entry's plate number is rejected, and only admins
// may change sensitivity.
func UpdateAuthorizedPlateHandler(plates repository.AuthorizedPlateRepository, history repository.AuthorizationHistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorizedPlate(w, r, plates, logger)
		if !ok {
			return
		}

		var req dto.AuthorizedPlateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Sensitivity != nil && !isAdmin(r) {
			writeError(w, logger, http.StatusForbidden, "Only admins can change sensitivity")
			return
		}

		if req.PlateNumber != nil {
			number := strings.TrimSpace(*req.PlateNumber)
			if number == "" {
				writeError(w, logger, http.StatusBadRequest, "plate_number is required")
				return
			}
			other, err := plates.GetByPlateNumber(number)
			if err != nil {
				internalError(w, r, logger, "Error looking up authorized plate %s: %v", number, err)
				return
			}
			if other != nil && other.ID != p.ID {
				writeError(w, logger, http.StatusBadRequest, "This plate number is already in use")
				return
			}
		}

		before := *p
		applyAuthorizedRequest(p, req)
		if err := plates.Update(p); err != nil {
			internalError(w, r, logger, "Error updating authorized plate %d: %v", p.ID, err)
			return
		}

		if req.IsActive != nil {
			if p.IsActive {
				recordHistory(r, history, logger, p.PlateNumber, model.HistoryActivated, "Plate status changed: active")
			} else {
				recordHistory(r, history, logger, p.PlateNumber, model.HistoryDeactivated, "Plate status changed: inactive")
			}
		}
		if req.PlateNumber != nil && p.PlateNumber != before.PlateNumber {
			recordHistory(r, history, logger, p.PlateNumber, model.HistoryUpdated,
				fmt.Sprintf("Plate number changed: %s -> %s", before.PlateNumber, p.PlateNumber))
		}
		if req.Sensitivity != nil {
			recordHistory(r, history, logger, p.PlateNumber, model.HistoryUpdated,
				fmt.Sprintf("Sensitivity changed: %g -> %g", before.Sensitivity, p.Sensitivity))
		}
		writeJSON(w, logger, http.StatusOK, p)
	}
}

// DeleteAuthorizedPlateHandler removes an entry.
func DeleteAuthorizedPlateHandler(plates repository.AuthorizedPlateRepository, history repository.AuthorizationHistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorizedPlate(w, r, plates, logger)
		if !ok {
			return
		}
		if err := plates.Delete(p.ID); err != nil {
			internalError(w, r, logger, "Error deleting authorized plate %d: %v", p.ID, err)
			return
		}
		logger.Info("Authorized plate %s deleted", p.PlateNumber)
		recordHistory(r, history, logger, p.PlateNumber, model.HistoryDeleted, "Plate deleted")
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success"})
	}
}

// PlateHistoryHandler returns recognized plates and the allow-list audit
// trail, both newest first.
func PlateHistoryHandler(plates repository.PlateRepository, history repository.AuthorizationHistoryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := plates.GetAll()
		if err != nil {
			internalError(w, r, logger, "Error querying plates for history: %v", err)
			return
		}

		var trail []model.AuthorizationHistory
		if plate := strings.TrimSpace(r.URL.Query().Get("plate")); plate != "" {
			trail, err = history.GetByPlateNumber(plate)
		} else {
			trail, err = history.GetAll()
		}
		if err != nil {
			internalError(w, r, logger, "Error querying authorization history: %v", err)
			return
		}

		detections := toDetections(records)
		for i, j := 0, len(detections)-1; i < j; i, j = i+1, j-1 {
			detections[i], detections[j] = detections[j], detections[i]
		}
		writeJSON(w, logger, http.StatusOK, dto.PlateHistoryResponse{
			PlateRecords: detections,
			AuthHistory:  trail,
		})
	}
}

// recordHistory appends to the audit trail. A failure is logged; the
// allow-list change itself already happened.
func recordHistory(r *http.Request, history repository.AuthorizationHistoryRepository, logger *logger.Logger, plate, action, description string) {
	entry := &model.AuthorizationHistory{
		PlateNumber: plate,
		Action:      action,
		Description: description,
		ChangedBy:   currentUsername(r),
	}
	if _, err := history.Insert(entry); err != nil {
		logger.Warning("[%s] Failed to record %s of plate %s: %v", middleware.RequestID(r.Context()), action, plate, err)
	}
}

func loadAuthorizedPlate(w http.ResponseWriter, r *http.Request, plates repository.AuthorizedPlateRepository, logger *logger.Logger) (*model.AuthorizedPlate, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	p, err := plates.GetByID(id)
	if err != nil {
		internalError(w, r, logger, "Error loading authorized plate %d: %v", id, err)
		return nil, false
	}
	if p == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return p, true
}

func applyAuthorizedRequest(p *model.AuthorizedPlate, req dto.AuthorizedPlateRequest) {
	if req.PlateNumber != nil {
		p.PlateNumber = strings.TrimSpace(*req.PlateNumber)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Sensitivity != nil {
		p.Sensitivity = *req.Sensitivity
	}
}
