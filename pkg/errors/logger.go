package errors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

// Logger reports errors with their code, field and request context
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an error logger bound to a component of the global logging factory
func NewLogger(component string) *Logger {
	return &Logger{logger: logging.GetGlobalLogger(component)}
}

// NewLoggerWithSlog creates an error logger with a specific slog logger
func NewLoggerWithSlog(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// LogError logs err and returns an error that is safe to hand to clients.
// AppErrors are returned unchanged so their kind survives; anything else
// becomes an internal error.
func (l *Logger) LogError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("error_type", fmt.Sprintf("%T", err)),
	}
	if requestID := logging.GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	appErr, ok := As(err)
	if !ok {
		attrs = append(attrs,
			slog.String("error", err.Error()),
			slog.String("error_code", string(ErrCodeInternal)),
		)
		l.logger.LogAttrs(ctx, slog.LevelError, "Unexpected error occurred", attrs...)
		return Internal(err)
	}

	attrs = append(attrs,
		slog.String("error_code", string(appErr.Code)),
		slog.String("error_message", appErr.Message),
	)
	if appErr.Field != "" {
		attrs = append(attrs, slog.String("error_field", appErr.Field))
	}
	if appErr.Internal != nil {
		attrs = append(attrs, slog.String("internal_error", appErr.Internal.Error()))
	}
	if appErr.Details != nil {
		attrs = append(attrs, slog.Any("error_details", appErr.Details))
	}

	l.logger.LogAttrs(ctx, levelFor(appErr.Code), "Application error occurred", attrs...)
	return err
}

// LogAndWrap logs an error and wraps it with an AppError
func (l *Logger) LogAndWrap(ctx context.Context, err error, code ErrorCode, message, operation string) *AppError {
	if err == nil {
		return nil
	}

	appErr := Wrap(err, code, message)
	l.LogError(ctx, appErr, operation)
	return appErr
}

// levelFor determines the appropriate log level for an error code
func levelFor(code ErrorCode) slog.Level {
	switch {
	case strings.HasPrefix(string(code), "VALIDATION_"), strings.HasPrefix(string(code), "TRANSPORT_"):
		return slog.LevelWarn
	case code == ErrCodeStoreNotFound, code == ErrCodeStoreConflict:
		return slog.LevelInfo
	case code == ErrCodeStoreRejected, code == ErrCodeDecodeFailed:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.RWMutex
)

func getDefaultLogger() *Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerMu.Lock()
		defer defaultLoggerMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = NewLogger("errors")
		}
	})
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the default error logger in a thread-safe manner
func SetDefaultLogger(logger *slog.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = NewLoggerWithSlog(logger)
}

// LogError logs an error using the default logger
func LogError(ctx context.Context, err error, operation string) error {
	return getDefaultLogger().LogError(ctx, err, operation)
}
