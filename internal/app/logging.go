package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel parses a level name. Unknown names give info.
func ParseLogLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum level, as accepted by ParseLogLevel.
	Level string
	// Output receives console logs. Defaults to os.Stderr.
	Output io.Writer
	// File, when set, also receives every entry at or above Level.
	File string
	// Name prefixes logger names.
	Name string
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  "info",
		Output: os.Stderr,
		Name:   "autoprefix",
	}
}

// Logger is the application logger. Loggers derived with WithField or
// WithComponent share the level and the log file of their root.
type Logger struct {
	*zap.Logger

	level *zap.AtomicLevel
	file  *fileSink
}

// NewLogger creates a zap logger with a console core and a file core.
// The file core writes nothing until a file is attached.
func NewLogger(cfg LoggerConfig) (*Logger, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	level := zap.NewAtomicLevelAt(ParseLogLevel(cfg.Level))

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	console := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(cfg.Output)), level)

	fc := zap.NewDevelopmentEncoderConfig()
	fc.EncodeCaller = nil
	sink := &fileSink{}
	file := zapcore.NewCore(zapcore.NewConsoleEncoder(fc), sink, level)

	l := zap.New(zapcore.NewTee(console, file))
	if cfg.Name != "" {
		l = l.Named(cfg.Name)
	}
	logger := &Logger{Logger: l, level: &level, file: sink}
	if cfg.File != "" {
		if err := logger.AttachFile(cfg.File); err != nil {
			return nil, err
		}
	}
	return logger, nil
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &Logger{Logger: zap.NewNop(), level: &level, file: &fileSink{}}
}

func (l *Logger) derive(z *zap.Logger) *Logger {
	return &Logger{Logger: z, level: l.level, file: l.file}
}

// WithField returns a logger that adds key to every entry.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(zap.Any(key, value)))
}

// WithComponent returns a logger named after component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(l.Named(component))
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.Logger
}

// Level returns the current minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level of this logger and every logger
// derived from the same root.
func (l *Logger) SetLevel(s string) {
	l.level.SetLevel(ParseLogLevel(s))
}

// AttachFile appends every later entry to path, replacing a previously
// attached file.
func (l *Logger) AttachFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open log file %s: %w", path, err)
	}
	return l.file.swap(f)
}

// Close flushes the logger and closes the log file.
func (l *Logger) Close() error {
	err := l.Sync()
	if isIgnorableSyncError(err) {
		err = nil
	}
	return multierr.Append(err, l.file.swap(nil))
}

// isIgnorableSyncError reports the error syncing a terminal or pipe
// returns on some platforms.
func isIgnorableSyncError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// fileSink is a WriteSyncer whose file can be replaced while in use.
type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return len(p), nil
	}
	return s.f.Write(p)
}

func (s *fileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

// swap installs f and closes the previous file.
func (s *fileSink) swap(f *os.File) error {
	s.mu.Lock()
	old := s.f
	s.f = f
	s.mu.Unlock()
	if old == nil {
		return nil
	}
	return old.Close()
}
