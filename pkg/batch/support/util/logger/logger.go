// Package logger provides the process-wide logging facade for idbatch.
// It keeps a small printf-style API (Debugf, Infof, ...) on top of a zerolog logger
// and adds structured helpers for entries that carry data alongside the message.
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

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelTrace is the most verbose level.
	LevelTrace LogLevel = iota
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
	// LevelSilent disables all output.
	LevelSilent
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	base     = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
)

// exitFunc is replaced in tests so Fatalf can be exercised.
var exitFunc = os.Exit

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

// ParseLevel converts a level name (TRACE, DEBUG, INFO, WARN, ERROR, FATAL, SILENT)
// into a LogLevel. Matching is case-insensitive.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "SILENT", "DISABLED", "OFF":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// SetLogLevel sets the global log level.
// An unknown value falls back to INFO and a warning is written through the logger itself.
func SetLogLevel(level string) {
	parsed, err := ParseLevel(level)
	mu.Lock()
	logLevel = parsed
	mu.Unlock()
	if err != nil {
		Warnf("Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// GetLogLevel returns the current global log level.
func GetLogLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetOutput redirects all log output to w as JSON lines.
// Passing nil restores the human-readable console writer on stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		base = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return
	}
	base = newLogger(w)
}

// enabled reports whether messages at level l pass the current filter, and returns the logger to use.
func enabled(l LogLevel) (zerolog.Logger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if logLevel == LevelSilent {
		return base, false
	}
	return base, l >= logLevel
}

// Tracef formats and outputs a TRACE level log message.
func Tracef(format string, v ...interface{}) {
	if l, ok := enabled(LevelTrace); ok {
		l.Trace().Msgf(format, v...)
	}
}

// Debugf formats and outputs a DEBUG level log message.
// It is only output if the current log level is DEBUG or lower.
//
// format: A format string in the same format as `fmt.Printf`.
// v: Arguments to pass to the format string.
func Debugf(format string, v ...interface{}) {
	if l, ok := enabled(LevelDebug); ok {
		l.Debug().Msgf(format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
// It is only output if the current log level is INFO or lower.
//
// format: A format string in the same format as `fmt.Printf`.
// v: Arguments to pass to the format string.
func Infof(format string, v ...interface{}) {
	if l, ok := enabled(LevelInfo); ok {
		l.Info().Msgf(format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	if l, ok := enabled(LevelWarn); ok {
		l.Warn().Msgf(format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	if l, ok := enabled(LevelError); ok {
		l.Error().Msgf(format, v...)
	}
}

// Fatalf formats and outputs a FATAL level log message,
// then terminates the program by calling os.Exit(1).
// The message is always written, regardless of the configured level.
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := base
	mu.RUnlock()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	exitFunc(1)
}

// InfoWith writes an INFO entry whose fields are attached as structured data.
func InfoWith(msg string, fields map[string]interface{}) {
	if l, ok := enabled(LevelInfo); ok {
		l.Info().Fields(fields).Msg(msg)
	}
}

// ErrorWith writes an ERROR entry whose fields are attached as structured data.
func ErrorWith(msg string, fields map[string]interface{}) {
	if l, ok := enabled(LevelError); ok {
		l.Error().Fields(fields).Msg(msg)
	}
}
