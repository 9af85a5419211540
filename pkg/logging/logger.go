package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LevelFatal sits above slog.LevelError so fatal entries survive any filter.
const LevelFatal = slog.Level(12)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	case FatalLevel:
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a configuration string onto a LogLevel. Unknown values fall back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Fields represents structured log fields
type Fields map[string]interface{}

type contextKey string

// RequestIDKey is the context key the HTTP layer stores request ids under.
const RequestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the request id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// StructuredLogger writes leveled, structured entries through log/slog.
// JSON output is used for machines, tint-colored text for terminals.
type StructuredLogger struct {
	mu       sync.RWMutex
	level    *slog.LevelVar
	format   string
	service  string
	version  string
	hostname string
	handler  slog.Handler
	exit     func(int)
}

// NewStructuredLogger creates a JSON logger writing to stdout.
func NewStructuredLogger(service, version string, level LogLevel) *StructuredLogger {
	return NewStructuredLoggerWithFormat(service, version, level, FormatJSON)
}

// NewStructuredLoggerWithFormat creates a logger using the given output format.
func NewStructuredLoggerWithFormat(service, version string, level LogLevel, format string) *StructuredLogger {
	hostname, _ := os.Hostname()

	lv := new(slog.LevelVar)
	lv.Set(level.slogLevel())

	l := &StructuredLogger{
		level:    lv,
		format:   format,
		service:  service,
		version:  version,
		hostname: hostname,
		exit:     os.Exit,
	}
	l.handler = l.newHandler(os.Stdout)
	return l
}

func (l *StructuredLogger) newHandler(w io.Writer) slog.Handler {
	var h slog.Handler
	if l.format == FormatText {
		h = tint.NewHandler(w, &tint.Options{
			Level:      l.level,
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l.level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey && a.Value.Any() == LevelFatal {
					return slog.String(slog.LevelKey, FatalLevel.String())
				}
				return a
			},
		})
	}
	return h.WithAttrs([]slog.Attr{
		slog.String("service", l.service),
		slog.String("version", l.version),
		slog.String("hostname", l.hostname),
	})
}

// SetOutput sets the output destination for logs
func (l *StructuredLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = l.newHandler(w)
}

// SetLevel sets the minimum log level
func (l *StructuredLogger) SetLevel(level LogLevel) {
	l.level.Set(level.slogLevel())
}

// Debug logs a debug message with structured fields
func (l *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	l.log(ctx, DebugLevel, message, fields, nil)
}

// Info logs an info message with structured fields
func (l *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	l.log(ctx, InfoLevel, message, fields, nil)
}

// Warn logs a warning message with structured fields
func (l *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	l.log(ctx, WarnLevel, message, fields, nil)
}

// Error logs an error message with structured fields and error details
func (l *StructuredLogger) Error(ctx context.Context, message string, fields Fields, err error) {
	l.log(ctx, ErrorLevel, message, fields, err)
}

// Fatal logs a fatal message and exits the program
func (l *StructuredLogger) Fatal(ctx context.Context, message string, fields Fields, err error) {
	l.log(ctx, FatalLevel, message, fields, err)
	l.exit(1)
}

func (l *StructuredLogger) log(ctx context.Context, level LogLevel, message string, fields Fields, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.RLock()
	h := l.handler
	l.mu.RUnlock()

	sl := level.slogLevel()
	if !h.Enabled(ctx, sl) {
		return
	}

	rec := slog.NewRecord(time.Now().UTC(), sl, message, 0)

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		rec.AddAttrs(slog.String("request_id", requestID))
	}

	if len(fields) > 0 {
		attrs := make([]any, 0, len(fields))
		for k, v := range fields {
			attrs = append(attrs, slog.Any(k, v))
		}
		rec.AddAttrs(slog.Group("fields", attrs...))
	}

	// Caller information for error and fatal levels
	if level >= ErrorLevel {
		if pc, file, line, ok := runtime.Caller(2); ok {
			rec.AddAttrs(slog.String("file", file), slog.Int("line", line))
			if fn := runtime.FuncForPC(pc); fn != nil {
				rec.AddAttrs(slog.String("function", fn.Name()))
			}
		}
		if err != nil {
			rec.AddAttrs(slog.String("error", err.Error()))
			if level == FatalLevel {
				rec.AddAttrs(slog.String("stack_trace", captureStackTrace()))
			}
		}
	}

	if herr := h.Handle(ctx, rec); herr != nil {
		fmt.Fprintf(os.Stderr, "%s [%s] %s: %v (handler error: %v)\n",
			rec.Time.Format(time.RFC3339), level, message, fields, herr)
	}
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// WithFields creates a new logger with additional fields
func (l *StructuredLogger) WithFields(fields Fields) *ContextLogger {
	return &ContextLogger{
		logger: l,
		fields: fields,
	}
}

// ContextLogger wraps StructuredLogger with additional context fields
type ContextLogger struct {
	logger *StructuredLogger
	fields Fields
}

func (c *ContextLogger) Debug(ctx context.Context, message string, fields Fields) {
	c.logger.Debug(ctx, message, c.mergeFields(fields))
}

func (c *ContextLogger) Info(ctx context.Context, message string, fields Fields) {
	c.logger.Info(ctx, message, c.mergeFields(fields))
}

func (c *ContextLogger) Warn(ctx context.Context, message string, fields Fields) {
	c.logger.Warn(ctx, message, c.mergeFields(fields))
}

func (c *ContextLogger) Error(ctx context.Context, message string, fields Fields, err error) {
	c.logger.Error(ctx, message, c.mergeFields(fields), err)
}

func (c *ContextLogger) Fatal(ctx context.Context, message string, fields Fields, err error) {
	c.logger.Fatal(ctx, message, c.mergeFields(fields), err)
}

func (c *ContextLogger) mergeFields(fields Fields) Fields {
	merged := make(Fields, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
