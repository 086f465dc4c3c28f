package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"platewatch/internal/config"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and, unless
// disabled, stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger writing to the log directory and the console.
func NewLogger(config *config.Config) *Logger {
	return newLogger(config.LogDirectory, true)
}

// NewFileLogger creates a Logger that writes only to files. The terminal
// dashboard uses it while the screen is owned by the UI.
func NewFileLogger(config *config.Config) *Logger {
	return newLogger(config.LogDirectory, false)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{
		infoLog:    log.New(io.Discard, "", 0),
		warningLog: log.New(io.Discard, "", 0),
		errorLog:   log.New(io.Discard, "", 0),
	}
}

func newLogger(logDir string, console bool) *Logger {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: logDir,
	}

	logger.setupLoggers(console)
	return logger
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers(console bool) {
	infoWriter := io.Writer(l.openLogFile(filepath.Join(l.logDir, InfoFile)))
	warningWriter := io.Writer(l.openLogFile(filepath.Join(l.logDir, WarningFile)))
	errorWriter := io.Writer(l.openLogFile(filepath.Join(l.logDir, ErrorFile)))

	if console {
		infoWriter = io.MultiWriter(os.Stdout, infoWriter)
		warningWriter = io.MultiWriter(os.Stdout, warningWriter)
		errorWriter = io.MultiWriter(os.Stderr, errorWriter)
	}

	l.infoLog = log.New(infoWriter, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) *os.File {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", filename, err)
	}
	return file
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Dir is the directory log files are written to.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.Error("Error opening file: %v", err)
		return err
	}
	defer file.Close()

	l.Info("File %s has been cleared.", fileName)
	return nil
}
