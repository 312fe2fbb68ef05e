// Package logger is the process-wide structured logger of the gccfetch command.
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

// OutputFormat selects how log lines are rendered.
type OutputFormat string

const (
	// FormatText renders human readable console lines.
	FormatText OutputFormat = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON OutputFormat = "json"
)

var (
	// testOutput is used to capture log output during tests
	testOutput   io.Writer
	testOutputMu sync.Mutex
)

// Fields is a type alias for log fields to make the API cleaner
type Fields map[string]any

var (
	mu           sync.RWMutex
	logger       *zerolog.Logger
	currentLevel = zerolog.InfoLevel
	currentFmt   = FormatText
	noColor      bool
)

// SetTestOutput sets the output writer for testing purposes
func SetTestOutput(w io.Writer) {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	testOutput = w
}

// UnsetTestOutput resets the test output to nil
func UnsetTestOutput() {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	testOutput = nil
}

func getOutput() io.Writer {
	testOutputMu.Lock()
	defer testOutputMu.Unlock()
	if testOutput != nil {
		return testOutput
	}
	return os.Stderr
}

// ParseLevel maps a config level name to a zerolog level. Unknown names fall back to info.
func ParseLevel(logLevel string) zerolog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// InitLogger initializes the global logger for CLI operations.
func InitLogger(logLevel string, format OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = ParseLevel(logLevel)
	currentFmt = format
	rebuild()
}

// SetOutputFormat switches the output format, keeping the level.
func SetOutputFormat(format OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	currentFmt = format
	rebuild()
}

// SetNoColor disables ANSI colours in text output.
func SetNoColor(disabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disabled
	rebuild()
}

// rebuild must be called with mu held.
func rebuild() {
	out := zerolog.SyncWriter(getOutput())

	var w io.Writer = out
	if currentFmt != FormatJSON {
		w = zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: time.TimeOnly}
	}

	l := zerolog.New(w).Level(currentLevel).With().Timestamp().Logger()
	logger = &l
}

// GetLogger returns the configured logger instance.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		rebuild()
	}
	return logger
}

func event(level zerolog.Level, fields ...Fields) *zerolog.Event {
	e := GetLogger().WithLevel(level)
	if merged := mergeFields(fields...); len(merged) > 0 {
		e = e.Fields(map[string]any(merged))
	}
	return e
}

// Info logs an info message.
func Info(msg string, fields ...Fields) {
	event(zerolog.InfoLevel, fields...).Msg(msg)
}

// Infof logs a formatted info message.
func Infof(format string, args ...any) {
	event(zerolog.InfoLevel).Msgf(format, args...)
}

// InfofWithFields logs a formatted info message with fields.
func InfofWithFields(fields Fields, format string, args ...any) {
	event(zerolog.InfoLevel, fields).Msgf(format, args...)
}

// Debug logs a debug message (only shown when debug level is enabled).
func Debug(msg string, fields ...Fields) {
	event(zerolog.DebugLevel, fields...).Msg(msg)
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...any) {
	event(zerolog.DebugLevel).Msgf(format, args...)
}

// DebugfWithFields logs a formatted debug message with fields.
func DebugfWithFields(fields Fields, format string, args ...any) {
	event(zerolog.DebugLevel, fields).Msgf(format, args...)
}

// Error logs an error message.
func Error(msg string, fields ...Fields) {
	event(zerolog.ErrorLevel, fields...).Msg(msg)
}

// Errorf logs a formatted error message.
func Errorf(format string, args ...any) {
	event(zerolog.ErrorLevel).Msgf(format, args...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...Fields) {
	event(zerolog.WarnLevel, fields...).Msg(msg)
}

// Warnf logs a formatted warning message.
func Warnf(format string, args ...any) {
	event(zerolog.WarnLevel).Msgf(format, args...)
}

// Success logs a success message as info with success indicator.
func Success(msg string, fields ...Fields) {
	event(zerolog.InfoLevel, append(fields, Fields{"status": "success"})...).Msg(msg)
}

// Successf logs a formatted success message.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// mergeFields merges multiple field maps into one; later maps win.
func mergeFields(fields ...Fields) Fields {
	result := Fields{}
	for _, field := range fields {
		for k, v := range field {
			result[k] = v
		}
	}
	return result
}
