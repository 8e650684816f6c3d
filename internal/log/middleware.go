package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey keys values this package stores in a context.
type ContextKey string

const (
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the logger stored by NewContext, or a default one
// tagged "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// log writes fields as-is; they already carry the component.
func (sl *StructuredLogger) log(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	sl.logger.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.log(ctx, slog.LevelInfo, "HTTP request started", fields)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.log(ctx, level, "HTTP request completed", fields)
}

// LogRender logs a successful validate, derive and render pass.
func (sl *StructuredLogger) LogRender(ctx context.Context, op, source, mode string, years int, cacheHit bool) {
	fields := NewFields().
		WithRender(source, mode, years, cacheHit).
		WithOperation(op).
		WithComponent(ComponentChart)

	sl.log(ctx, slog.LevelInfo, "Chart rendered", fields)
}

// LogRejected logs input that failed parsing or validation. These are user
// errors, so they are logged at warn level.
func (sl *StructuredLogger) LogRejected(ctx context.Context, op, source string, err error, kind string) {
	fields := NewFields().
		WithError(err, kind).
		WithOperation(op).
		WithComponent(ComponentChart)
	fields[FieldSource] = source

	sl.log(ctx, slog.LevelWarn, "Chart input rejected", fields)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err, "").
		WithOperation(operation).
		WithComponent(component)

	sl.log(ctx, slog.LevelError, msg, allFields)
}
