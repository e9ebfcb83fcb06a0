package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a configuration string into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (expected error, warn, info or debug)", s)
	}
}

// Format selects how records are emitted.
type Format int

const (
	// FormatMachine emits one JSON record per line with a stable schema.
	FormatMachine Format = iota
	// FormatHuman emits aligned columns for interactive reading.
	FormatHuman
)

func (f Format) String() string {
	switch f {
	case FormatHuman:
		return "human"
	default:
		return "machine"
	}
}

// ParseFormat converts a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "machine", "json", "":
		return FormatMachine, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatMachine, fmt.Errorf("unknown log format %q (expected machine or human)", s)
	}
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init initializes the logging system. It should be called once at startup;
// components that log before Init see a machine-format logger on stderr.
func Init(level LogLevel, format Format, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level:       level.SlogLevel(),
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	switch format {
	case FormatHuman:
		handler = newHumanHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
	slog.SetDefault(Logger())
}

// Logger returns the process-wide logger, initializing a machine-format
// fallback on stderr if Init has not run yet.
func Logger() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(LevelInfo, FormatMachine, os.Stderr)
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// ForRequest returns a logger pre-bound to a correlation id. All records
// emitted through it carry the requestId key.
func ForRequest(requestID string) *slog.Logger {
	return Logger().With(slog.String("requestId", requestID))
}

// ForComponent returns a logger pre-bound to a component identifier.
func ForComponent(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}

func logInternal(level LogLevel, component string, err error, messageFmt string, args ...interface{}) {
	l := Logger()
	if !l.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("component", component)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message for a component.
func Debug(component string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, component, nil, messageFmt, args...)
}

// Info logs an informational message for a component.
func Info(component string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, component, nil, messageFmt, args...)
}

// Warn logs a warning message for a component.
func Warn(component string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, component, nil, messageFmt, args...)
}

// Error logs an error message for a component.
func Error(component string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, component, err, messageFmt, args...)
}
