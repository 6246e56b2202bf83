package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Format represents the log format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a config string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// Logger represents a logger instance. The embedded *slog.Logger is fixed for
// the logger's lifetime; format and output changes swap what sits behind it.
type Logger struct {
	*slog.Logger
	mu      sync.Mutex
	out     *output
	level   *slog.LevelVar
	current atomic.Pointer[handlerRef]
}

// New creates a new logger
func New(level slog.Level, format Format, writers ...io.Writer) *Logger {
	l := &Logger{
		out:   &output{writers: writers},
		level: new(slog.LevelVar),
	}
	l.level.Set(level)
	l.current.Store(&handlerRef{l.newHandler(format)})
	l.Logger = slog.New(&swapHandler{current: &l.current})
	return l
}

func (l *Logger) newHandler(format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level}
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(l.out, opts)
	default:
		return slog.NewTextHandler(l.out, opts)
	}
}

// SetLevel sets the logging level. Safe to call while other goroutines log.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current log level
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// AddOutput adds a new output destination
func (l *Logger) AddOutput(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.writers = append(l.out.writers, w)
}

// SetFormat changes the log format. Loggers derived with With or WithGroup
// follow the change.
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current.Store(&handlerRef{l.newHandler(format)})
}

// Rotate closes any open log file and appends to path instead. No entry is
// written to the old file after Rotate returns.
func (l *Logger) Rotate(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := openLogFile(path)
	if err != nil {
		return err
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	var kept []io.Writer
	for _, writer := range l.out.writers {
		if f, ok := writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
			f.Close()
			continue
		}
		kept = append(kept, writer)
	}
	l.out.writers = append(kept, file)
	return nil
}

// Close closes all file writers
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	for _, writer := range l.out.writers {
		if file, ok := writer.(*os.File); ok {
			// Don't close stdout/stderr
			if file != os.Stdout && file != os.Stderr {
				if err := file.Close(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// output fans each record out to every writer. Handlers emit one Write per
// record, so holding mu keeps records whole across writer changes.
type output struct {
	mu      sync.Mutex
	writers []io.Writer
}

func (o *output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, w := range o.writers {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

type handlerRef struct {
	slog.Handler
}

// swapHandler forwards to the logger's current handler, replaying any
// attributes and groups added through With and WithGroup.
type swapHandler struct {
	current *atomic.Pointer[handlerRef]
	derive  func(slog.Handler) slog.Handler
}

func (h *swapHandler) target() slog.Handler {
	base := h.current.Load().Handler
	if h.derive == nil {
		return base
	}
	return h.derive(base)
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current.Load().Enabled(ctx, level)
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *swapHandler) with(step func(slog.Handler) slog.Handler) slog.Handler {
	prev := h.derive
	return &swapHandler{
		current: h.current,
		derive: func(base slog.Handler) slog.Handler {
			if prev != nil {
				base = prev(base)
			}
			return step(base)
		},
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Init initializes the default logger. Output always goes to stderr so that
// command output on stdout stays machine readable.
func Init(level slog.Level, format Format, paths ...string) error {
	writers := []io.Writer{os.Stderr}
	for _, path := range paths {
		if path == "" {
			continue
		}
		file, err := openLogFile(path)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	defaultLogger = New(level, format, writers...)
	return nil
}

// GetLevelFromString returns the log level from a string
func GetLevelFromString(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaultLogger is the default logger instance
var defaultLogger = New(slog.LevelInfo, FormatText, os.Stderr)

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel changes the level of the default logger.
func SetLevel(level slog.Level) {
	defaultLogger.SetLevel(level)
}

// Helper functions for common logging patterns
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.ErrorContext(ctx, msg, args...)
}
