package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract shared by every
// component in the engine.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel maps a config string onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

var (
	baseInstance *fileLogger
	baseOnce     sync.Once
)

// fileLogger writes timestamped component-tagged lines to allersim-debug.log
// in the user's home directory. A failure to open the file disables file
// output rather than failing the caller; a live conversation must never be
// interrupted by logging.
type fileLogger struct {
	mu        sync.Mutex
	out       *log.Logger
	level     Level
	component string
}

func base() *fileLogger {
	baseOnce.Do(func() {
		l := &fileLogger{level: LevelDebug}
		home, err := os.UserHomeDir()
		if err != nil {
			log.Printf("logging: no home directory, file log disabled: %v", err)
			baseInstance = l
			return
		}
		path := filepath.Join(home, "allersim-debug.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("logging: cannot open %s, file log disabled: %v", path, err)
			baseInstance = l
			return
		}
		l.out = log.New(file, "", 0)
		baseInstance = l
	})
	return baseInstance
}

// NewComponentLogger returns the default application logger scoped to a
// component tag, e.g. "MenuLoader" or "SemanticClassifier".
func NewComponentLogger(component string) Logger {
	b := base()
	return &fileLogger{out: b.out, level: b.level, component: component}
}

// SetLevel sets the minimum level for the shared base logger and every
// component logger created after the call.
func SetLevel(level Level) {
	b := base()
	b.mu.Lock()
	b.level = level
	b.mu.Unlock()
}

func (l *fileLogger) write(level Level, format string, args ...any) {
	if level < l.level || l.out == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	tag := l.component
	if tag == "" {
		tag = "app"
	}
	l.mu.Lock()
	l.out.Printf("%s [%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05.000"), level, tag, msg)
	l.mu.Unlock()
}

func (l *fileLogger) Debug(format string, args ...any) { l.write(LevelDebug, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.write(LevelInfo, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.write(LevelWarn, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.write(LevelError, format, args...) }
