// Package logging provides component loggers for wsanon built on
// charmbracelet/log. Every logger writes to a rotating log file once Init has
// been called and, optionally, to stderr at its own level.
//
// Basic usage:
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/ws/src")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
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
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
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
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Console overrides the console writer. Nil means os.Stderr.
	Console io.Writer
}

// Logger is a named component logger. Loggers obtained before Init keep
// working after it: sinks are resolved on every call.
type Logger struct {
	component string
	fields    []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{component: l.component, fields: fields}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	s := resolve(l.component)

	file, console := s.file, s.console
	if len(l.fields) > 0 {
		file = file.With(l.fields...)
		if console != nil {
			console = console.With(l.fields...)
		}
	}

	logTo(file, level, msg, args...)
	if console != nil {
		logTo(console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

type sinks struct {
	file    *log.Logger
	console *log.Logger
}

type state struct {
	mu           sync.RWMutex
	initialized  bool
	writer       *RotatingWriter
	level        Level
	components   map[string]Level
	consoleOn    bool
	consoleLevel Level
	console      io.Writer
	sinks        map[string]*sinks
}

var globalState = &state{
	components: make(map[string]Level),
	sinks:      make(map[string]*sinks),
}

// Init configures the logging system. Calling it again replaces the previous
// configuration. Before Init, loggers discard everything.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var consoleLevel Level
	consoleOn := cfg.ConsoleLevel != ""
	if consoleOn {
		consoleLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.writer != nil {
		_ = globalState.writer.Close()
	}

	globalState.writer = writer
	globalState.level = level
	globalState.components = components
	globalState.consoleOn = consoleOn
	globalState.consoleLevel = consoleLevel
	globalState.console = cfg.Console
	if globalState.console == nil {
		globalState.console = os.Stderr
	}
	globalState.initialized = true
	globalState.sinks = make(map[string]*sinks)

	return nil
}

// Get returns the logger for component.
func Get(component string) *Logger {
	return &Logger{component: component}
}

// resolve returns the cached sinks for component, building them on first use.
func resolve(component string) *sinks {
	globalState.mu.RLock()
	s, ok := globalState.sinks[component]
	globalState.mu.RUnlock()
	if ok {
		return s
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if s, ok := globalState.sinks[component]; ok {
		return s
	}
	s = buildSinks(component)
	globalState.sinks[component] = s
	return s
}

// buildSinks creates the loggers for component.
// Must be called with globalState.mu held.
func buildSinks(component string) *sinks {
	level := globalState.level
	if l, ok := globalState.components[component]; ok {
		level = l
	}

	if !globalState.initialized {
		return &sinks{file: log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component})}
	}

	s := &sinks{
		file: log.NewWithOptions(globalState.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if globalState.consoleOn {
		s.console = log.NewWithOptions(globalState.console, log.Options{
			Level:           globalState.consoleLevel.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return s
}

// Close flushes and closes the log file. Loggers discard output afterwards.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	var err error
	if globalState.writer != nil {
		if cerr := globalState.writer.Close(); cerr != nil {
			err = fmt.Errorf("closing log writer: %w", cerr)
		}
		globalState.writer = nil
	}

	globalState.initialized = false
	globalState.components = make(map[string]Level)
	globalState.sinks = make(map[string]*sinks)
	globalState.consoleOn = false
	return err
}

// DefaultLogPath returns $XDG_STATE_HOME/wsanon/wsanon.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "wsanon", "wsanon.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
