package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type Logger = *log.Logger

var (
	mu     sync.RWMutex
	global Logger
)

// Init replaces the global logger with one at the given level writing to stderr.
func Init(level string) {
	set(New(os.Stderr, level))
}

// SetOutput redirects the global logger, keeping its level.
func SetOutput(w io.Writer) {
	l := L()
	l.SetOutput(w)
}

func L() Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = New(os.Stderr, "info")
	}
	return global
}

// With returns a child of the global logger tagged with a component prefix.
func With(component string) Logger {
	return L().WithPrefix(component)
}

func New(w io.Writer, level string) Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// ParseLevel maps a config string to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func set(l Logger) {
	mu.Lock()
	global = l
	mu.Unlock()
}
