package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newLogger(os.Stderr)
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetupLogger routes log output to logFilePath (stderr when empty) and enables
// debug messages when debug is set
func SetupLogger(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		logger.SetOutput(f)
	}
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Debugf("--- gallerydiff log started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file and restores stderr output
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Debugf("--- gallerydiff log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	isSetup = false
}

// Logger exposes the underlying logger for structured fields
func Logger() *logrus.Logger {
	return logger
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogImageProcessed logs the outcome of decoding one gallery file
func LogImageProcessed(path string, success bool, errMsg string) {
	entry := logger.WithField("path", path)
	if success {
		entry.Debug("loaded")
		return
	}
	entry.WithField("error", errMsg).Debug("skipped")
}
