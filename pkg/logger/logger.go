// Package logger is the component logger shared by gitterclaw packages.
//
// Every call names the component that emits it ("gitter", "relay", ...)
// and may attach a field map. Output is zerolog's console format on stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "debug",
	INFO:  "info",
	WARN:  "warn",
	ERROR: "error",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

var (
	mu      sync.RWMutex
	level   = INFO
	backend = newBackend(os.Stderr)
)

func newBackend(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    w != io.Writer(os.Stderr),
	}
	return zerolog.New(console).
		With().
		Timestamp().
		Logger()
}

// SetLevel sets the minimum level that is written.
func SetLevel(l LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output. A nil writer discards everything.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	mu.Lock()
	defer mu.Unlock()
	backend = newBackend(w)
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a level.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

func logMessage(l LogLevel, component, message string, fields map[string]any) {
	mu.RLock()
	minimum := level
	out := backend
	mu.RUnlock()

	if l < minimum {
		return
	}

	var event *zerolog.Event
	switch l {
	case DEBUG:
		event = out.Debug()
	case WARN:
		event = out.Warn()
	case ERROR:
		event = out.Error()
	default:
		event = out.Info()
	}
	if component != "" {
		event = event.Str("component", component)
	}
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Msg(message)
}

func DebugCF(component, message string, fields map[string]any) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]any) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]any) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]any) {
	logMessage(ERROR, component, message, fields)
}
