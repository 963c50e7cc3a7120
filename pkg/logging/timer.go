package logging

import (
	"context"
	"log/slog"
	"time"
)

// OperationTimer helps track operation latencies
type OperationTimer struct {
	logger    *slog.Logger
	operation string
	startTime time.Time
	ctx       context.Context
}

// StartTimer creates a new operation timer and logs the start at debug level
func StartTimer(ctx context.Context, logger *slog.Logger, operation string) *OperationTimer {
	startTime := time.Now()

	if GetRequestID(ctx) == "" {
		ctx = NewRequestContext(ctx, operation)
	}

	logger.DebugContext(ctx, "Operation started",
		slog.String("operation", operation),
		slog.String("request_id", GetRequestID(ctx)),
	)

	return &OperationTimer{
		logger:    logger,
		operation: operation,
		startTime: startTime,
		ctx:       ctx,
	}
}

// Context returns the context the timer logs with
func (t *OperationTimer) Context() context.Context {
	return t.ctx
}

// End completes the timer and logs the duration
func (t *OperationTimer) End() time.Duration {
	return t.EndWithError(nil)
}

// EndWithError completes the timer and logs the duration with an error
func (t *OperationTimer) EndWithError(err error) time.Duration {
	duration := time.Since(t.startTime)
	attrs := []slog.Attr{
		slog.String("operation", t.operation),
		slog.String("request_id", GetRequestID(t.ctx)),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		t.logger.LogAttrs(t.ctx, slog.LevelWarn, "Operation failed", attrs...)
	} else {
		t.logger.LogAttrs(t.ctx, slog.LevelDebug, "Operation completed", attrs...)
	}

	return duration
}
