package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger  = logrus.New()
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

// Setup configures process logging. Warnings are printed by default; quiet
// mode raises the level so only errors get through, debug mode lowers it.
// When logFilePath is non-empty, log output is additionally written there.
func Setup(debugMode bool, quiet bool, logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	switch {
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case debugMode:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// Open log file if requested
	if logFilePath != "" {
		var err error
		logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	isSetup = true
	return nil
}

// Close closes the log file, if one was opened by Setup.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	isSetup = false
}

// Debugf logs a message visible only in debug mode
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof logs an information message
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warnf logs a non-fatal warning, suppressed in quiet mode
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf logs an error message, printed regardless of quiet mode
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
