package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Leveled logger shared by the wiki server and wikictl.
// - logrus JSON output
// - provides Debug/Info/Warn/Error/Fatal variants and Init(level)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu    sync.RWMutex
	base  = newLogrus(os.Stdout)
	level = LevelInfo
)

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	return l
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
		base.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		level = LevelWarn
		base.SetLevel(logrus.WarnLevel)
	case "error":
		level = LevelError
		base.SetLevel(logrus.ErrorLevel)
	case "fatal":
		level = LevelFatal
		base.SetLevel(logrus.FatalLevel)
	default:
		level = LevelInfo
		base.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.Out = w
}

// Entry returns a logrus entry carrying the given fields, for structured request logs.
func Entry(fields map[string]interface{}) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithFields(logrus.Fields(fields))
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, v ...interface{}) { current().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { current().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { current().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { current().Errorf(format, v...) }

func Fatalf(format string, v ...interface{}) {
	current().Errorf(format, v...)
	os.Exit(1)
}

func Warn(v string) { Warnf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
