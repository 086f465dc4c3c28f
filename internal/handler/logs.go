package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"platewatch/internal/logger"
)

// logFiles maps the {level} route variable to its file.
var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// ShowLogsHandler serves the log file of the given level as text/plain.
func ShowLogsHandler(log *logger.Logger, level string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveLogFile(w, r, log.Dir(), logFiles[level])
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates the log file of the given level.
func ClearLogsHandler(log *logger.Logger, level string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := log.CleanLogs(logFiles[level]); err != nil {
			internalError(w, r, log, "Failed to clear %s log: %v", level, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LogLevels lists the levels that have a log file.
func LogLevels() []string {
	return []string{"info", "warning", "error"}
}
