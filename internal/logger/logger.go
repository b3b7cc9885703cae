// Package logger provides the process-wide logger used by every tenantctl component.
//
// Messages are printf-style and prefixed by the caller with its component name
// (for example "session:" or "graph:"). Output defaults to stderr in text format
// at info level; SetVerbose switches to debug.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newLogger()
)

func newLogger() *logrus.Logger {
	return &logrus.Logger{
		Out:       os.Stderr,
		Level:     logrus.InfoLevel,
		Formatter: buildFormatter("text"),
		Hooks:     make(logrus.LevelHooks),
	}
}

func buildFormatter(format string) logrus.Formatter {
	switch strings.ToUpper(format) {
	case "JSON":
		return &logrus.JSONFormatter{}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

// Configure sets the level ("trace", "debug", "info", "warn", "error") and format ("text", "json").
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	log.SetLevel(lvl)
	log.SetFormatter(buildFormatter(format))
	return nil
}

// SetVerbose enables or disables debug output.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return
	}
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.SetLevel(logrus.InfoLevel)
	}
}

// Verbose reports whether debug output is enabled.
func Verbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return log.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput redirects log output. Used by the TUI to keep the terminal clean.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(w)
}

// Debug logs at debug level.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debugf(format, args...)
}

// Info logs at info level.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Infof(format, args...)
}

// Warn logs at warn level.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warnf(format, args...)
}

// Error logs at error level.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Errorf(format, args...)
}
