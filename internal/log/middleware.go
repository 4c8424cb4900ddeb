package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ComponentMiddleware retags the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware adds the request id to the request logger.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			if requestID == "" {
				next.ServeHTTP(w, r)
				return
			}
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger logs domain events with the shared field names.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	if _, ok := fields[FieldComponent]; !ok {
		fields.WithComponent(sl.logger.component)
	}
	sl.logger.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// LogHTTPEnd logs a completed request at a level derived from its status.
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
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	if requestID != "" {
		fields.WithRequestID(requestID)
	}
	sl.emit(ctx, level, "HTTP request completed", fields)
}

// LogEntryChanged records a successful mutation.
func (sl *StructuredLogger) LogEntryChanged(ctx context.Context, op string, id int64, pillar string, timeSaved, moneySaved float64) {
	fields := NewFields().
		WithEntry(id, pillar, timeSaved, moneySaved).
		WithOperation(op).
		WithComponent(ComponentEntries)
	sl.emit(ctx, slog.LevelInfo, "Entry "+op+" succeeded", fields)
}

// LogError logs a failed operation with its API code.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, code, errType, operation string) {
	fields := NewFields().
		WithError(err).
		WithErrorCode(code, errType).
		WithOperation(operation)
	sl.emit(ctx, slog.LevelError, msg, fields)
}
