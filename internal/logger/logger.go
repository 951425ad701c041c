// Package logger provides a simple leveled logger for the application.
// It supports three levels: off (no output), normal (info/warn/error),
// and verbose (includes debug). Output is structured via zerolog and the
// logger is safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Level controls the verbosity of the logger.
type Level int32

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// ParseLevel maps a config string to a Level. Unknown values give LevelNormal.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "quiet", "none":
		return LevelOff
	case "debug", "verbose", "trace":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// Logger is a leveled logger. All methods are safe for concurrent use.
// Loggers derived with With share the level of their parent.
type Logger struct {
	level *atomic.Int32
	zl    zerolog.Logger
}

// New creates a logger with the given level, writing JSON lines to out.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return newLogger(level, out)
}

// NewConsole creates a logger that writes human-readable lines through
// zerolog's console writer.
func NewConsole(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return newLogger(level, zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: out != os.Stderr})
}

func newLogger(level Level, out io.Writer) *Logger {
	lvl := new(atomic.Int32)
	lvl.Store(int32(level))
	return &Logger{
		level: lvl,
		zl:    zerolog.New(out).With().Timestamp().Logger(),
	}
}

// With returns a child logger that tags every line with key=value.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{
		level: l.level,
		zl:    l.zl.With().Interface(key, value).Logger(),
	}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	return Level(l.level.Load())
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	if l.GetLevel() >= LevelVerbose {
		l.zl.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.zl.Info().Msg(fmt.Sprintf(format, args...))
	}
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.zl.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	if l.GetLevel() >= LevelNormal {
		l.zl.Error().Msg(fmt.Sprintf(format, args...))
	}
}
