package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// Logger is the leveled logging interface injected into every component.
// Callers that do not want logs pass Nop().
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// LevelFromEnv determines the log level from environment variables.
// DEBUG=1/true/yes/on forces the debug level; otherwise LOG_LEVEL is
// consulted and defaults to info.
func LevelFromEnv() LogLevel {
	if debug := os.Getenv("DEBUG"); debug != "" {
		switch strings.ToLower(debug) {
		case "1", "true", "yes", "on":
			return LevelDebug
		}
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type leveledLogger struct {
	level LogLevel
	out   *log.Logger
}

// New returns a Logger writing to stderr with the level taken from the
// environment.
func New() Logger {
	return NewWithLevel(LevelFromEnv())
}

// NewWithLevel returns a Logger writing to stderr at a fixed level.
func NewWithLevel(level LogLevel) Logger {
	return &leveledLogger{
		level: level,
		out:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *leveledLogger) Debug(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.out.Printf("[DEBUG] "+format, args...)
	}
}

func (l *leveledLogger) Info(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.out.Printf("[INFO] "+format, args...)
	}
}

func (l *leveledLogger) Warn(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.out.Printf("[WARN] "+format, args...)
	}
}

func (l *leveledLogger) Error(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.out.Printf("[ERROR] "+format, args...)
	}
}

type nopLogger struct{}

// Nop returns a Logger that discards all messages.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(format string, args ...interface{}) {}
func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Warn(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}

// Or returns l if non-nil and Nop() otherwise.
func Or(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
