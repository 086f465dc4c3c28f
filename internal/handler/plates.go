package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"platewatch/internal/aggregate"
	"platewatch/internal/config"
	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/render"
	"platewatch/internal/repository"
	"platewatch/internal/service"
)

// Gate decisions stored with each plate record.
const (
	ActionGateOpened = "Gate opened"
	ActionDenied     = "Access denied"
)

const (
	defaultConfidence  = 100
	defaultProcessedBy = "system"
	apiTokenHeader     = "X-API-Token"
)

// GetPlatesHandler returns every plate record, oldest first.
func GetPlatesHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := plates.GetAll()
		if err != nil {
			internalError(w, r, logger, "Error querying plates from database: %v", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, toDetections(recs))
	}
}

// PostPlateHandler records a recognized plate, decides whether the gate
// opens, and pushes the record to live viewers. Callers authenticate with
// the X-API-Token header.
func PostPlateHandler(cfg *config.Config, manager *service.Manager, plates repository.PlateRepository,
	authorized repository.AuthorizedPlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiTokenHeader) != cfg.APIToken {
			writeError(w, logger, http.StatusUnauthorized, "Invalid API token")
			return
		}

		var req dto.PlateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		req.PlateNumber = strings.TrimSpace(req.PlateNumber)
		if req.PlateNumber == "" {
			writeError(w, logger, http.StatusBadRequest, "plate_number is required")
			return
		}

		now := time.Now()
		rec := &model.PlateRecord{
			PlateNumber: req.PlateNumber,
			Confidence:  defaultConfidence,
			Timestamp:   now,
			ProcessedBy: defaultProcessedBy,
		}
		if req.Confidence != nil {
			rec.Confidence = *req.Confidence
		}
		if req.ProcessedBy != "" {
			rec.ProcessedBy = req.ProcessedBy
		}
		if req.Timestamp != "" {
			ts, err := model.Detection{Timestamp: req.Timestamp}.Time(time.Local)
			if err != nil {
				writeError(w, logger, http.StatusBadRequest, "Invalid timestamp")
				return
			}
			rec.Timestamp = ts
		}

		allowed, err := authorized.GetActiveByPlateNumber(rec.PlateNumber)
		if err != nil {
			internalError(w, r, logger, "Error looking up authorized plate %s: %v", rec.PlateNumber, err)
			return
		}
		if allowed != nil {
			rec.IsAuthorized = rec.Confidence >= allowed.Sensitivity
			if err := authorized.TouchAccess(allowed.ID, now); err != nil {
				logger.Warning("Failed to update last access of %s: %v", rec.PlateNumber, err)
			}
		}
		rec.ActionTaken = ActionDenied
		if rec.IsAuthorized {
			rec.ActionTaken = ActionGateOpened
		}

		if _, err := plates.Insert(rec); err != nil {
			internalError(w, r, logger, "Error storing plate %s: %v", rec.PlateNumber, err)
			return
		}
		logger.Info("Plate %s (%.1f%%) by %s: %s", rec.PlateNumber, rec.Confidence, rec.ProcessedBy, rec.ActionTaken)

		if err := manager.BroadcastDetection(rec.Detection()); err != nil {
			logger.Warning("Failed to push detection: %v", err)
		}

		writeJSON(w, logger, http.StatusOK, dto.PlateResponse{
			Status:       "success",
			IsAuthorized: rec.IsAuthorized,
			ActionTaken:  rec.ActionTaken,
		})
	}
}

// PlatesChartHandler renders the hourly histogram as PNG. With ?today=1
// only today's detections are counted.
func PlatesChartHandler(plates repository.PlateRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := aggregate.HourlyOptions{Location: time.Local}

		var recs []model.PlateRecord
		var err error
		if r.URL.Query().Get("today") == "1" {
			now := time.Now()
			opts.Day = now
			y, m, d := now.Date()
			recs, err = plates.GetSince(time.Date(y, m, d, 0, 0, 0, 0, time.Local))
		} else {
			recs, err = plates.GetAll()
		}
		if err != nil {
			internalError(w, r, logger, "Error querying plates for chart: %v", err)
			return
		}

		hist := aggregate.Hourly(toDetections(recs), opts)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := render.WriteHourlyChart(w, hist); err != nil {
			logger.Error("Error rendering chart: %v", err)
		}
	}
}

func toDetections(recs []model.PlateRecord) []model.Detection {
	dets := make([]model.Detection, 0, len(recs))
	for _, rec := range recs {
		dets = append(dets, rec.Detection())
	}
	return dets
}
