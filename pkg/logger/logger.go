// Package logger configures logrus for the process and hands out
// component loggers with preset fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config selects the log level, format and optional log file.
type Config struct {
	// Level is a logrus level name such as "debug" or "info".
	Level string `json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`

	// File, when set, receives a copy of everything written to stdout. It is
	// truncated at start.
	File string `json:"file" yaml:"file"`
}

// Init configures the global logrus logger and returns a closer for the log
// file. The closer is never nil.
//
// The log file is truncated and starts with a banner line carrying the
// start time, so every file holds exactly one process run.
func Init(cfg Config) (io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	logrus.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nopCloser{}, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}

	banner := Banner(time.Now())
	_, _ = fmt.Fprintln(f, banner)
	_, _ = fmt.Fprintln(os.Stdout, banner)

	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

// Banner is the first line of every log file.
func Banner(t time.Time) string {
	return fmt.Sprintf("--- AVA MEMORY START (%s) ---", t.Format("2006-01-02 15:04:05"))
}

// Logger wraps a logrus entry with the fields used across the service.
type Logger struct {
	entry *logrus.Entry
}

// New creates a Logger for a named service using the global logrus logger.
func New(service string) *Logger {
	return &Logger{entry: logrus.WithField("service", service)}
}

// FromEntry wraps an existing entry.
func FromEntry(entry *logrus.Entry) *Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Logger{entry: entry}
}

// Discard returns a Logger that writes nowhere. Intended for tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(l)}
}

// Entry returns the underlying entry for components that take *logrus.Entry.
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.entry.WithField("component", name)
}

// WithTurn tags log lines with a conversation turn id.
func (l *Logger) WithTurn(id string) *Logger {
	return &Logger{entry: l.entry.WithField("turn_id", id)}
}

// WithField adds a single field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// Debug logs at debug level.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Info logs at info level.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error logs at error level.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Fatal logs at fatal level and exits the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
