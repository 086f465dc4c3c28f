package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/middleware"

	"github.com/gorilla/mux"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError sends {"error": message}.
func writeError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	writeJSON(w, logger, status, dto.ErrorResponse{Error: message})
}

// internalError logs a failure tagged with the request id and answers 500.
func internalError(w http.ResponseWriter, r *http.Request, logger *logger.Logger, format string, v ...interface{}) {
	if id := middleware.RequestID(r.Context()); id != "" {
		format = "[" + id + "] " + format
	}
	logger.Error(format, v...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// isAdmin reports whether the logged-in user is an admin.
func isAdmin(r *http.Request) bool {
	u := middleware.CurrentUser(r.Context())
	return u != nil && u.IsAdmin()
}

// currentUsername names who made a change; requests without a session
// are attributed to the system.
func currentUsername(r *http.Request) string {
	if u := middleware.CurrentUser(r.Context()); u != nil {
		return u.Username
	}
	return "system"
}

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
